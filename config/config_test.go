package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8000" {
		t.Fatalf("port = %q, want 8000", cfg.Port)
	}
	if cfg.AccessTTL != 30*time.Minute {
		t.Fatalf("access ttl = %v, want 30m", cfg.AccessTTL)
	}
	if cfg.GeminiModel != "gemini-pro" {
		t.Fatalf("gemini model = %q", cfg.GeminiModel)
	}
	if cfg.JWTAccessSecret != "" {
		t.Fatalf("jwt secret must have no default, got %q", cfg.JWTAccessSecret)
	}
	if !cfg.MailSendEnabled {
		t.Fatal("mail sending should default to enabled")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_ACCESS_TTL", "2h")
	t.Setenv("DB_MAX_CONNS", "25")
	t.Setenv("HTTP_LOG_ENABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" || cfg.AccessTTL != 2*time.Hour || cfg.DBMaxConns != 25 || !cfg.HTTPLogEnabled {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("JWT_ACCESS_TTL", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestFrontend(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want string
	}{
		{"explicit", Config{FrontendURL: "https://app.example.com/", CORSAllowedOrigins: "https://other.example.com"}, "https://app.example.com"},
		{"first cors origin", Config{CORSAllowedOrigins: " https://a.example.com , https://b.example.com"}, "https://a.example.com"},
		{"fallback", Config{}, "http://localhost:5173"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.cfg.Frontend(); got != tc.want {
				t.Fatalf("Frontend() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestESAddrs(t *testing.T) {
	cfg := Config{ElasticsearchAddrs: "http://es1:9200,, http://es2:9200 "}
	want := []string{"http://es1:9200", "http://es2:9200"}
	if got := cfg.ESAddrs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("ESAddrs() = %v, want %v", got, want)
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg := Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "d", DBSSLMode: "disable"}
	if got := cfg.PostgresDSN(); got != "postgres://u:p@h:5432/d?sslmode=disable" {
		t.Fatalf("dsn = %q", got)
	}
}
