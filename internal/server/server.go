package server

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"socialnet/config"
	"socialnet/internal/auth"
	"socialnet/internal/database"
	"socialnet/internal/handlers"
	"socialnet/internal/metrics"
	"socialnet/internal/middleware"
	"socialnet/internal/social"
)

const (
	shutdownTimeout      = 5 * time.Second
	limiterSweepInterval = time.Minute
)

// App is the wired application around one database.
type App struct {
	Handler  http.Handler
	sessions *database.SessionStore
	limiter  *middleware.RateLimiter
}

// NewApp builds stores, services and the HTTP handler.
func NewApp(cfg *config.Config, db *sql.DB, log *logrus.Logger) (*App, error) {
	users := database.NewUserStore(db)
	posts := database.NewPostStore(db)
	sessionStore := database.NewSessionStore(db)

	authn, err := auth.NewAuthenticator(users, auth.NewHasher(cfg.Security.BcryptCost))
	if err != nil {
		return nil, errors.Wrap(err, "creating authenticator")
	}
	sessions := auth.NewSessionManager(sessionStore, users, []byte(cfg.Session.Secret), cfg.Session.IdleTimeout, cfg.Server.CookieSecure)

	h, err := handlers.New(authn, sessions, users, posts, social.NewService(users, posts))
	if err != nil {
		return nil, err
	}
	limiter := middleware.NewRateLimiter(cfg.Security.LoginRateLimit, cfg.Security.LoginBurst)

	router := NewRouter(h, users, limiter)
	return &App{
		Handler: applyMiddleware(router,
			middleware.Logger(log),
			middleware.SecureHeaders,
			middleware.MethodOverride,
			middleware.Authenticate(sessions),
		),
		sessions: sessionStore,
		limiter:  limiter,
	}, nil
}

func applyMiddleware(h http.Handler, m ...func(http.Handler) http.Handler) http.Handler {
	for i := len(m) - 1; i >= 0; i-- {
		h = m[i](h)
	}
	return h
}

// NewRouter registers every route with its guard.
func NewRouter(h *handlers.Handler, users middleware.UserLookup, limiter *middleware.RateLimiter) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics)
	r.NotFoundHandler = http.HandlerFunc(h.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(h.MethodNotAllowed)

	authed := func(f http.HandlerFunc) http.Handler { return middleware.RequireAuthenticated(f) }
	anon := func(f http.HandlerFunc) http.Handler { return middleware.RequireAnonymous(f) }
	admin := middleware.RequireAdmin(users)

	r.Handle("/", authed(h.Index)).Methods(http.MethodGet)

	r.Handle("/login", anon(h.LoginForm)).Methods(http.MethodGet)
	r.Handle("/login", limiter.Handler(anon(h.Login))).Methods(http.MethodPost)
	r.Handle("/register", anon(h.RegisterForm)).Methods(http.MethodGet)
	r.Handle("/register", limiter.Handler(anon(h.Register))).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.Logout).Methods(http.MethodDelete)

	r.Handle("/users", admin(http.HandlerFunc(h.Users))).Methods(http.MethodGet)
	r.Handle("/users/{username}", authed(h.Profile)).Methods(http.MethodGet)
	r.Handle("/users/{username}/followers", authed(h.Followers)).Methods(http.MethodGet)
	r.Handle("/users/{username}/following", authed(h.Following)).Methods(http.MethodGet)
	r.Handle("/users/{username}/follow", authed(h.Follow)).Methods(http.MethodPost)
	r.Handle("/users/{username}/follow", authed(h.Unfollow)).Methods(http.MethodDelete)

	r.Handle("/posts", authed(h.Posts)).Methods(http.MethodGet)
	r.Handle("/posts/new", authed(h.CreatePost)).Methods(http.MethodPost)
	r.Handle("/posts/{postId}", authed(h.Post)).Methods(http.MethodGet)
	r.Handle("/posts/{postId}/like", authed(h.Like)).Methods(http.MethodPost)
	r.Handle("/posts/{postId}/like", authed(h.Unlike)).Methods(http.MethodDelete)

	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	return r
}

// Run serves the application until ctx is cancelled, then shuts down
// gracefully.
func Run(ctx context.Context, cfg *config.Config, db *sql.DB, log *logrus.Logger) error {
	app, err := NewApp(cfg, db, log)
	if err != nil {
		return err
	}

	go app.sessions.RunCleanup(ctx, cfg.Session.CleanupInterval, log.WithField("task", "session-cleanup"))
	go app.limiter.RunCleanup(ctx, limiterSweepInterval)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      app.Handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", "http://localhost"+srv.Addr).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "listening")
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}
