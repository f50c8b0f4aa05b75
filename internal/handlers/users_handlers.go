package handlers

import (
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
)

// Users lists every account. Admin only.
func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, "users.html", TemplateData{Title: "Users", Users: users})
}

// Profile shows another user's page. Your own profile is the home page.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	username := mux.Vars(r)["username"]
	if username == me.Username {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	user, err := h.users.FindByUsername(r.Context(), username)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	posts, err := h.posts.ListByUser(r.Context(), user.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, "user.html", TemplateData{
		Title:     "@" + user.Username,
		Profile:   user,
		Posts:     posts,
		Following: user.IsFollowedBy(me.Username),
	})
}

func (h *Handler) Followers(w http.ResponseWriter, r *http.Request) {
	h.relationList(w, r, "followers.html", "Followers")
}

func (h *Handler) Following(w http.ResponseWriter, r *http.Request) {
	h.relationList(w, r, "following.html", "Following")
}

func (h *Handler) relationList(w http.ResponseWriter, r *http.Request, page, title string) {
	user, err := h.users.FindByUsername(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, page, TemplateData{Title: title, Profile: user})
}

// Follow adds the current user to the target's followers.
func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) {
	target := mux.Vars(r)["username"]
	if err := h.social.Follow(r.Context(), currentUser(r), target); err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/users/"+url.PathEscape(target), http.StatusSeeOther)
}

func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request) {
	target := mux.Vars(r)["username"]
	if err := h.social.Unfollow(r.Context(), currentUser(r), target); err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/users/"+url.PathEscape(target), http.StatusSeeOther)
}
