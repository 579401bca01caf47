// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LLM providers understood by the chat assistant.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds server configuration.
type Config struct {
	Port       int
	DBPath     string // empty = db.DefaultPath()
	DevMode    bool
	BaseURL    string // e.g. http://localhost:8080
	AdminEmail string
	TrustProxy bool // take client IPs from X-Forwarded-For
	// AllowedOrigins lists front-end origins allowed to open /realtime.
	AllowedOrigins []string

	SupabaseURL     string
	SupabaseAnonKey string
	DatabaseURL     string // Supabase Postgres DSN, used by schema push

	LLMProvider  string
	LLMModel     string
	GeminiAPIKey string
	OpenAIAPIKey string
	OpenAIURL    string

	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string
}

// Load merges the given .env files (default ".env") into the environment and
// builds a Config from it. Missing files are ignored; variables already set in
// the environment win over file values.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv creates a Config from environment variables.
func FromEnv() (Config, error) {
	port, err := strconv.Atoi(envOrDefault("HOMEES_PORT", "8080"))
	if err != nil || port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("invalid HOMEES_PORT %q", os.Getenv("HOMEES_PORT"))
	}

	cfg := Config{
		Port:       port,
		DBPath:     os.Getenv("HOMEES_DB"),
		DevMode:    os.Getenv("HOMEES_DEV_MODE") == "true",
		BaseURL:    envOrDefault("HOMEES_BASE_URL", fmt.Sprintf("http://localhost:%d", port)),
		AdminEmail: strings.ToLower(os.Getenv("HOMEES_ADMIN_EMAIL")),
		TrustProxy: os.Getenv("HOMEES_TRUST_PROXY") == "true",

		AllowedOrigins: splitList(os.Getenv("HOMEES_ALLOWED_ORIGINS")),

		SupabaseURL:     strings.TrimRight(os.Getenv("NEXT_PUBLIC_SUPABASE_URL"), "/"),
		SupabaseAnonKey: os.Getenv("NEXT_PUBLIC_SUPABASE_ANON_KEY"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),

		LLMProvider:  strings.ToLower(os.Getenv("HOMEES_LLM_PROVIDER")),
		LLMModel:     os.Getenv("HOMEES_LLM_MODEL"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		OpenAIURL:    envOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),

		SMTPHost: os.Getenv("HOMEES_SMTP_HOST"),
		SMTPPort: envOrDefault("HOMEES_SMTP_PORT", "587"),
		SMTPUser: os.Getenv("HOMEES_SMTP_USER"),
		SMTPPass: os.Getenv("HOMEES_SMTP_PASS"),
		SMTPFrom: os.Getenv("HOMEES_SMTP_FROM"),
	}

	switch cfg.LLMProvider {
	case "", ProviderGemini, ProviderOpenAI:
	default:
		return Config{}, fmt.Errorf("unknown HOMEES_LLM_PROVIDER %q (want gemini or openai)", cfg.LLMProvider)
	}

	return cfg, nil
}

// SupabaseConfigured returns true if the managed backend URL and anon key are set.
func (c Config) SupabaseConfigured() bool {
	return c.SupabaseURL != "" && c.SupabaseAnonKey != ""
}

// SMTPConfigured returns true if SMTP settings are present.
func (c Config) SMTPConfigured() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitList splits a comma-separated value, dropping blank entries.
func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
