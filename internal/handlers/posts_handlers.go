package handlers

import (
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
)

// Posts lists every post next to the directory of users.
func (h *Handler) Posts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	users, err := h.users.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, "posts.html", TemplateData{Title: "Posts", Posts: posts, Users: users})
}

// CreatePost stores a post for the current user and shows it.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	p, err := h.social.CreatePost(r.Context(), currentUser(r), r.FormValue("caption"), r.FormValue("img"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/posts/"+url.PathEscape(p.ID), http.StatusSeeOther)
}

func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	p, err := h.posts.FindByID(r.Context(), mux.Vars(r)["postId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, "post.html", TemplateData{
		Title: "Post by @" + p.Username,
		Post:  p,
		Liked: p.LikedBy(currentUser(r).Username),
	})
}

func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	postID := mux.Vars(r)["postId"]
	if err := h.social.Like(r.Context(), currentUser(r), postID); err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/posts/"+url.PathEscape(postID), http.StatusSeeOther)
}

func (h *Handler) Unlike(w http.ResponseWriter, r *http.Request) {
	postID := mux.Vars(r)["postId"]
	if err := h.social.Unlike(r.Context(), currentUser(r), postID); err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/posts/"+url.PathEscape(postID), http.StatusSeeOther)
}
