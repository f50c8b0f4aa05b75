package handlers

import "net/http"

// Index shows the current user's summary and every post.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	me, err := h.users.FindByID(r.Context(), currentUser(r).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	posts, err := h.posts.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, "index.html", TemplateData{
		Title:   "Home",
		Flash:   popFlash(w, r),
		Profile: me,
		Posts:   posts,
	})
}
