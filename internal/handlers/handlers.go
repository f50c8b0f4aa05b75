package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"socialnet/internal/auth"
	"socialnet/internal/logging"
	"socialnet/internal/models"
	"socialnet/internal/social"
	"socialnet/internal/templates"
)

// UserReader is the read side of the user store used by the pages.
type UserReader interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
}

// PostReader is the read side of the post store used by the pages.
type PostReader interface {
	FindByID(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context) ([]*models.Post, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Post, error)
}

// Handler serves every page of the site.
type Handler struct {
	auth     *auth.Authenticator
	sessions *auth.SessionManager
	users    UserReader
	posts    PostReader
	social   *social.Service
	tmpl     *template.Template
}

func New(authn *auth.Authenticator, sessions *auth.SessionManager, users UserReader, posts PostReader, svc *social.Service) (*Handler, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"formatDateTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("Jan 02, 2006 at 15:04")
		},
	}).ParseFS(templates.FS, "*.html")
	if err != nil {
		return nil, errors.Wrap(err, "parsing templates")
	}
	return &Handler{
		auth:     authn,
		sessions: sessions,
		users:    users,
		posts:    posts,
		social:   svc,
		tmpl:     tmpl,
	}, nil
}

// TemplateData holds data passed to HTML templates.
type TemplateData struct {
	Title     string
	User      *models.Identity // the logged-in user, nil on public pages
	Flash     string
	Profile   *models.User
	Users     []*models.User
	Posts     []*models.Post
	Post      *models.Post
	Following bool // User follows Profile
	Liked     bool // User likes Post
}

// render executes the named template into a buffer so a failing template
// never sends a partial page.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, data TemplateData) {
	if data.User == nil {
		data.User = auth.IdentityFromContext(r.Context())
	}
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		logging.FromContext(r.Context()).WithError(err).WithField("template", name).Error("rendering template")
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": msg})
}

// fail maps err onto a JSON error response. Not-found messages name the
// resource from the route variables.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	vars := mux.Vars(r)
	switch {
	case errors.Is(err, models.ErrUserNotFound) && vars["username"] != "":
		writeMessage(w, http.StatusNotFound, fmt.Sprintf("user %s not found", vars["username"]))
	case errors.Is(err, models.ErrPostNotFound):
		writeMessage(w, http.StatusNotFound, fmt.Sprintf("post %s not found", vars["postId"]))
	case errors.Is(err, models.ErrNotFound):
		writeMessage(w, http.StatusNotFound, errors.Cause(err).Error())
	case errors.Is(err, models.ErrValidation):
		writeMessage(w, http.StatusBadRequest, errors.Cause(err).Error())
	default:
		logging.FromContext(r.Context()).WithError(err).Error("request failed")
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

// currentUser returns the identity placed in the context by the session
// middleware. Routes using it are behind RequireAuthenticated.
func currentUser(r *http.Request) *models.Identity {
	return auth.IdentityFromContext(r.Context())
}

// NotFound answers unmatched routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusNotFound, "page not found")
}

func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
}
