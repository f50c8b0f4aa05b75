package handlers

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"socialnet/internal/auth"
	"socialnet/internal/logging"
	"socialnet/internal/metrics"
	"socialnet/internal/models"
)

const loginFailed = "Invalid username or password."

// LoginForm renders the login page.
func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "login.html", TemplateData{Title: "Log in", Flash: popFlash(w, r)})
}

// Login checks the credentials and starts a session. Failures go back to
// the form with one message whatever the cause.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	log := logging.FromContext(r.Context()).WithField("username", username)

	id, err := h.auth.Authenticate(r.Context(), username, password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUserNotFound):
			metrics.RecordAuthAttempt(metrics.OutcomeUserNotFound)
			log.Info("login failed: unknown user")
		case errors.Is(err, models.ErrInvalidCredentials):
			metrics.RecordAuthAttempt(metrics.OutcomeInvalidCredentials)
			log.Info("login failed: wrong password")
		default:
			metrics.RecordAuthAttempt(metrics.OutcomeError)
			log.WithError(err).Error("login failed")
			setFlash(w, "Login failed due to a server error.")
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		setFlash(w, loginFailed)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	token, _, err := h.sessions.Login(r.Context(), id.ID)
	if err != nil {
		metrics.RecordAuthAttempt(metrics.OutcomeError)
		log.WithError(err).Error("creating session")
		setFlash(w, "Login failed due to a server error.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	metrics.RecordAuthAttempt(metrics.OutcomeSuccess)
	h.sessions.SetCookie(w, token)
	log.Info("user logged in")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// RegisterForm renders the registration page.
func (h *Handler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "register.html", TemplateData{Title: "Register", Flash: popFlash(w, r)})
}

// Register creates the account and sends the user to the login page.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	log := logging.FromContext(r.Context()).WithField("username", username)

	if _, err := h.auth.Register(r.Context(), email, username, password); err != nil {
		var msg string
		switch {
		case errors.Is(err, models.ErrEmailExists):
			msg = "Email already registered."
		case errors.Is(err, models.ErrUsernameExists):
			msg = "Username already taken."
		case errors.Is(err, models.ErrValidation):
			msg = strings.TrimPrefix(err.Error(), models.ErrValidation.Error()+": ")
		default:
			log.WithError(err).Error("registration failed")
			msg = "Registration failed due to a server error."
		}
		setFlash(w, msg)
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	}

	log.Info("user registered")
	setFlash(w, "Account created, please log in.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Logout destroys the session and clears the cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := auth.TokenFromRequest(r); token != "" {
		err := h.sessions.Destroy(r.Context(), token)
		if err != nil && !errors.Is(err, models.ErrSessionInvalid) {
			logging.FromContext(r.Context()).WithError(err).Error("deleting session")
		}
	}
	h.sessions.ClearCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
