// Package web provides the Homees HTTP server: HTML pages, the JSON API,
// the chat assistant route and the realtime websocket.
package web

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/homees-app/homees/internal/assistant"
	"github.com/homees-app/homees/internal/auth"
	"github.com/homees-app/homees/internal/dashboard"
	"github.com/homees-app/homees/internal/demande"
	"github.com/homees-app/homees/internal/intervention"
	"github.com/homees-app/homees/internal/logging"
	"github.com/homees-app/homees/internal/mail"
	"github.com/homees-app/homees/internal/notification"
	"github.com/homees-app/homees/internal/property"
	"github.com/homees-app/homees/internal/realtime"
	"github.com/homees-app/homees/internal/user"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

const (
	chatRateLimit    = 30
	loginRateLimit   = 10
	rateLimitWindow  = time.Minute
	sessionCleanup   = time.Hour
	shutdownDeadline = 5 * time.Second
)

// Mailer sends plain-text emails. *mail.Sender implements it.
type Mailer interface {
	Send(to []string, subject, body string) error
}

// Options configures a Server. Zero values fall back to dev-friendly defaults.
type Options struct {
	DevMode       bool
	BaseURL       string
	SecureCookies bool
	AdminEmail    string
	// TrustProxy takes client IPs from X-Forwarded-For. Only set it behind a
	// reverse proxy.
	TrustProxy bool
	// AllowedOrigins are extra origins allowed to open /realtime.
	AllowedOrigins []string

	// Authenticator signs users in. Nil uses the password-less dev
	// authenticator, which is only allowed when DevMode is set.
	Authenticator auth.Authenticator
	// Completer backs the chat assistant. Nil makes every reply fall back.
	Completer assistant.Completer
	Geocoder  property.Geocoder
	// Mailer delivers notification emails. Nil logs them.
	Mailer Mailer
	Hub    *realtime.Hub
}

// Server is the Homees HTTP server.
type Server struct {
	users         *user.Repository
	props         *property.Repository
	propService   *property.Service
	interventions *intervention.Repository
	demandes      *demande.Repository
	notifications *notification.Repository
	sessions      *auth.SessionStore
	apiKeys       *auth.APIKeyStore
	authn         auth.Authenticator
	middleware    *auth.Middleware
	chat          *assistant.Service
	dashboards    *dashboard.Loader
	hub           *realtime.Hub
	mailer        Mailer
	loginLimiter  *auth.RateLimiter
	baseURL       string

	templates *template.Template
	mux       *http.ServeMux
	handler   http.Handler
}

// ErrNoAuthenticator is returned by NewServer when no Authenticator is given
// outside dev mode.
var ErrNoAuthenticator = errors.New("no authenticator configured outside dev mode")

// NewServer creates a web server backed by the given database.
func NewServer(db *sql.DB, opts Options) (*Server, error) {
	if opts.Authenticator == nil && !opts.DevMode {
		return nil, ErrNoAuthenticator
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"formatEuro":    tmplFormatEuro,
		"formatSurface": tmplFormatSurface,
		"formatDate":    tmplFormatDate,
		"formatStr":     tmplFormatStr,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	users := user.NewRepository(db)
	props := property.NewRepository(db)
	interventions := intervention.NewRepository(db)
	demandes := demande.NewRepository(db)
	notifications := notification.NewRepository(db)
	sessions := auth.NewSessionStore(db, opts.SecureCookies)
	apiKeys := auth.NewAPIKeyStore(db)

	s := &Server{
		users:         users,
		props:         props,
		propService:   property.NewService(props, opts.Geocoder),
		interventions: interventions,
		demandes:      demandes,
		notifications: notifications,
		sessions:      sessions,
		apiKeys:       apiKeys,
		authn:         opts.Authenticator,
		middleware:    auth.NewMiddleware(sessions, apiKeys, users),
		chat:          assistant.NewService(opts.Completer),
		dashboards: &dashboard.Loader{
			Properties:    props,
			Demandes:      demandes,
			Notifications: notifications,
			Interventions: interventions,
			Users:         users,
		},
		hub:          opts.Hub,
		mailer:       opts.Mailer,
		loginLimiter: auth.NewRateLimiter(loginRateLimit, rateLimitWindow),
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		templates:    tmpl,
		mux:          http.NewServeMux(),
	}
	if s.authn == nil {
		s.authn = auth.NewDevAuthenticator(users, opts.AdminEmail)
	}
	if s.hub == nil {
		s.hub = realtime.NewHub()
	}
	if s.mailer == nil {
		s.mailer = mail.NewSender(mail.SMTPConfig{}, true)
	}

	staticContent, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("creating static sub-fs: %w", err)
	}

	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticContent))))
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/", s.handleHome)

	// Auth pages
	s.mux.HandleFunc("/login", s.handleLogin)
	s.mux.HandleFunc("/signup", s.handleSignup)
	s.mux.HandleFunc("/auth/logout", s.handleLogout)
	s.mux.HandleFunc("/auth/cli", s.handleCLIAuth)

	// Dashboards
	s.mux.HandleFunc("/dashboard", s.handleDashboardRedirect)
	s.mux.HandleFunc("/dashboard/", s.handleRoleDashboard)
	s.mux.HandleFunc("/admin", s.handleAdmin)
	s.mux.HandleFunc("/demandes/", s.handleDemandePage)

	// JSON API
	s.mux.HandleFunc("/api/me", s.handleAPIMe)
	s.mux.HandleFunc("/api/dashboard", s.handleAPIDashboard)
	s.mux.HandleFunc("/api/properties", s.handleAPIProperties)
	s.mux.HandleFunc("/api/properties/", s.handleAPIProperties)
	s.mux.HandleFunc("/api/interventions/", s.handleAPIIntervention)
	s.mux.HandleFunc("/api/gestionnaires", s.handleAPIGestionnaires)
	s.mux.HandleFunc("/api/demandes", s.handleAPIDemandes)
	s.mux.HandleFunc("/api/demandes/", s.handleAPIDemandes)
	s.mux.HandleFunc("/api/notifications", s.handleAPINotifications)
	s.mux.HandleFunc("/api/notifications/", s.handleAPINotifications)
	s.mux.HandleFunc("/api/keys", s.handleAPIKeysRoute)
	s.mux.HandleFunc("/api/keys/", s.handleAPIKeysRoute)
	s.mux.Handle("/api/users", auth.RequireRole(http.HandlerFunc(s.handleUsersRoute), user.RoleAdmin))
	s.mux.Handle("/api/users/", auth.RequireRole(http.HandlerFunc(s.handleUsersRoute), user.RoleAdmin))
	s.mux.Handle("/api/chat", auth.RateLimit(
		auth.NewRateLimiter(chatRateLimit, rateLimitWindow),
		http.HandlerFunc(s.handleChat),
	))

	s.mux.Handle("/realtime", realtime.Handler(s.hub, s.middleware.UserID, opts.AllowedOrigins...))

	s.handler = logging.RequestLogger(s.middleware.RequireAuth(s.mux))
	if opts.TrustProxy {
		s.handler = auth.TrustProxy(s.handler)
	}

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Hub returns the realtime hub events are published on.
func (s *Server) Hub() *realtime.Hub {
	return s.hub
}

// ListenAndServe serves on port until ctx is cancelled, then shuts down gracefully.
// Expired sessions are purged hourly while the server runs.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting web server", "url", fmt.Sprintf("http://localhost:%d", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listening: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(sessionCleanup)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := s.sessions.Cleanup(); err != nil {
					slog.Warn("cleaning up sessions", "error", err)
				}
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownDeadline)
		defer cancel()
		slog.Info("shutting down web server")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// publish sends a realtime event to the given users.
func (s *Server) publish(table, typ string, record any, userIDs ...string) {
	s.hub.Publish(realtime.Event{Table: table, Type: typ, Record: record, UserIDs: userIDs})
}

// notify stores a notification for userID and pushes it over realtime.
// Failures are logged; the triggering request still succeeds.
func (s *Server) notify(userID, typ, message, lien string) {
	n, err := s.notifications.Create(userID, typ, message, lien)
	if err != nil {
		slog.Error("creating notification", "user_id", userID, "type", typ, "error", err)
		return
	}
	s.publish("notifications", realtime.Insert, n, userID)
}

// sendMail delivers an email, logging failures.
func (s *Server) sendMail(to, subject, body string) {
	if to == "" {
		return
	}
	if err := s.mailer.Send([]string{to}, subject, body); err != nil {
		slog.Error("sending email", "to", to, "subject", subject, "error", err)
	}
}

// render executes a full page template. Output is buffered so a failing
// template never leaves a half-written page.
func (s *Server) render(w http.ResponseWriter, name string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("rendering template", "template", name, "error", err)
		http.Error(w, "Erreur interne", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("writing page", "template", name, "error", err)
	}
}

// Template helper functions

func tmplFormatEuro(f *float64) string {
	if f == nil {
		return "—"
	}
	return fmt.Sprintf("%s €", formatThousands(int64(*f)))
}

func tmplFormatSurface(f *float64) string {
	if f == nil {
		return "—"
	}
	if *f == float64(int64(*f)) {
		return fmt.Sprintf("%d m²", int64(*f))
	}
	return fmt.Sprintf("%.1f m²", *f)
}

func tmplFormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

func tmplFormatStr(s *string) string {
	if s == nil {
		return "—"
	}
	return *s
}

// formatThousands groups digits with a narrow no-break space, French style.
func formatThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, " ")
	if neg {
		out = "-" + out
	}
	return out
}
