package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"HOMEES_PORT", "HOMEES_BASE_URL", "HOMEES_LLM_PROVIDER", "HOMEES_DEV_MODE", "HOMEES_TRUST_PROXY"} {
		t.Setenv(k, "")
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Port)
	}
	if cfg.BaseURL != "http://localhost:8080" {
		t.Errorf("base url = %q", cfg.BaseURL)
	}
	if cfg.DevMode {
		t.Error("expected dev mode off by default")
	}
	if cfg.TrustProxy {
		t.Error("expected X-Forwarded-For to be ignored by default")
	}
	if cfg.SMTPPort != "587" {
		t.Errorf("smtp port = %q, want 587", cfg.SMTPPort)
	}
}

func TestFromEnvSupabase(t *testing.T) {
	t.Setenv("NEXT_PUBLIC_SUPABASE_URL", "https://abc.supabase.co/")
	t.Setenv("NEXT_PUBLIC_SUPABASE_ANON_KEY", "anon")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	if cfg.SupabaseURL != "https://abc.supabase.co" {
		t.Errorf("supabase url = %q, want trailing slash trimmed", cfg.SupabaseURL)
	}
	if !cfg.SupabaseConfigured() {
		t.Error("expected supabase configured")
	}
}

func TestFromEnvAllowedOrigins(t *testing.T) {
	t.Setenv("HOMEES_ALLOWED_ORIGINS", " https://app.homees.fr, ,http://localhost:3000 ")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	want := []string{"https://app.homees.fr", "http://localhost:3000"}
	if len(cfg.AllowedOrigins) != len(want) {
		t.Fatalf("allowed origins = %q, want %q", cfg.AllowedOrigins, want)
	}
	for i := range want {
		if cfg.AllowedOrigins[i] != want[i] {
			t.Errorf("allowed origins[%d] = %q, want %q", i, cfg.AllowedOrigins[i], want[i])
		}
	}
}

func TestFromEnvInvalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"bad port", "HOMEES_PORT", "eighty"},
		{"port out of range", "HOMEES_PORT", "70000"},
		{"unknown provider", "HOMEES_LLM_PROVIDER", "mistral"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := FromEnv(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "HOMEES_LLM_PROVIDER=gemini\nGEMINI_API_KEY=from-file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	// Registered so t.Setenv restores the original values after godotenv sets them.
	t.Setenv("HOMEES_LLM_PROVIDER", "")
	t.Setenv("GEMINI_API_KEY", "")
	if err := os.Unsetenv("HOMEES_LLM_PROVIDER"); err != nil {
		t.Fatal(err)
	}
	if err := os.Unsetenv("GEMINI_API_KEY"); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LLMProvider != ProviderGemini {
		t.Errorf("provider = %q, want gemini", cfg.LLMProvider)
	}
	if cfg.GeminiAPIKey != "from-file" {
		t.Errorf("gemini key = %q, want from-file", cfg.GeminiAPIKey)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("expected missing file to be ignored, got %v", err)
	}
}
