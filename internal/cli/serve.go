package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/homees-app/homees/internal/assistant"
	"github.com/homees-app/homees/internal/auth"
	"github.com/homees-app/homees/internal/config"
	"github.com/homees-app/homees/internal/geo"
	"github.com/homees-app/homees/internal/logging"
	"github.com/homees-app/homees/internal/mail"
	"github.com/homees-app/homees/internal/realtime"
	"github.com/homees-app/homees/internal/supabase"
	"github.com/homees-app/homees/internal/user"
	"github.com/homees-app/homees/internal/web"
)

func newServeCmd() *cobra.Command {
	var (
		port    int
		envFile string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Long: `Start the HTTP server: web pages, JSON API, chat assistant and realtime feed.

Configuration comes from the environment, merged with a .env file when present.
Supabase Auth is used for sign-in when NEXT_PUBLIC_SUPABASE_URL and
NEXT_PUBLIC_SUPABASE_ANON_KEY are set. Without them the server only starts with
HOMEES_DEV_MODE=true, where any existing account signs in with a non-empty
password.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on (overrides HOMEES_PORT)")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file to load")

	return cmd
}

func runServe(ctx context.Context, cfg config.Config) error {
	logging.Setup(cfg.DevMode)

	database, err := openDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer closeDB(database)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	completer, err := assistant.NewCompleter(ctx, cfg)
	if err != nil {
		return fmt.Errorf("configuring chat assistant: %w", err)
	}
	if completer == nil {
		slog.Warn("no LLM provider configured, chat replies will use the fallback message")
	}

	authn, err := newAuthenticator(cfg, user.NewRepository(database))
	if err != nil {
		return err
	}

	srv, err := web.NewServer(database, web.Options{
		DevMode:        cfg.DevMode,
		BaseURL:        cfg.BaseURL,
		SecureCookies:  !cfg.DevMode,
		AdminEmail:     cfg.AdminEmail,
		TrustProxy:     cfg.TrustProxy,
		AllowedOrigins: cfg.AllowedOrigins,
		Authenticator:  authn,
		Completer:      completer,
		Geocoder:       geo.NewClient(),
		Mailer: mail.NewSender(mail.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.SMTPFrom,
		}, cfg.DevMode),
		Hub: realtime.NewHub(),
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	fmt.Printf("Homees listening on %s\n", cfg.BaseURL)
	return srv.ListenAndServe(ctx, cfg.Port)
}

// newAuthenticator picks Supabase Auth when it is configured. The password-less
// dev authenticator is only returned in dev mode.
func newAuthenticator(cfg config.Config, users *user.Repository) (auth.Authenticator, error) {
	switch {
	case cfg.SupabaseConfigured():
		slog.Info("using supabase auth", "url", cfg.SupabaseURL)
		return auth.NewSupabaseAuthenticator(supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey), users, cfg.AdminEmail), nil
	case cfg.DevMode:
		slog.Warn("supabase not configured, using development sign-in")
		return auth.NewDevAuthenticator(users, cfg.AdminEmail), nil
	default:
		return nil, fmt.Errorf("sign-in requires NEXT_PUBLIC_SUPABASE_URL and NEXT_PUBLIC_SUPABASE_ANON_KEY (or HOMEES_DEV_MODE=true)")
	}
}
