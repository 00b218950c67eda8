package config

import (
	"strings"
	"testing"
	"time"
)

func setSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("ACCESS_TOKEN_SECRET", "access-secret")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setSecrets(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8000" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8000")
	}
	if cfg.JWTIssuer != "streamline-auth" {
		t.Errorf("JWTIssuer = %q", cfg.JWTIssuer)
	}
	if cfg.AccessTTL() != 15*time.Minute {
		t.Errorf("AccessTTL = %v, want 15m", cfg.AccessTTL())
	}
	if cfg.RefreshTTL() != 240*time.Hour {
		t.Errorf("RefreshTTL = %v, want 240h", cfg.RefreshTTL())
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.IsProduction() {
		t.Error("default environment should not be production")
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
	if cfg.ServiceName != "streamline-auth" {
		t.Errorf("ServiceName = %q", cfg.ServiceName)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	setSecrets(t)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("JWT_ISSUER", "custom-issuer")
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("ACCESS_TOKEN_TTL", "1m")
	t.Setenv("REFRESH_TOKEN_TTL", "2h")
	t.Setenv("APP_ENV", "Production")
	t.Setenv("ACCESS_TOKEN_SECRET", strings.Repeat("a", 32))
	t.Setenv("REFRESH_TOKEN_SECRET", strings.Repeat("r", 32))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" || cfg.JWTIssuer != "custom-issuer" || cfg.BcryptCost != 10 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.AccessTTL() != time.Minute || cfg.RefreshTTL() != 2*time.Hour {
		t.Errorf("TTLs = %v / %v", cfg.AccessTTL(), cfg.RefreshTTL())
	}
	if !cfg.IsProduction() {
		t.Error("APP_ENV=Production should be production")
	}
}

func TestLoad_SecretsRequired(t *testing.T) {
	cases := []struct {
		name    string
		access  string
		refresh string
		env     string
		wantErr string
	}{
		{"missing access", "", "r", "", "must be set"},
		{"missing refresh", "a", "", "", "must be set"},
		{"identical", "same", "same", "", "must differ"},
		{"short in production", "a", "r", "production", "at least 32 bytes"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Setenv("ACCESS_TOKEN_SECRET", c.access)
			t.Setenv("REFRESH_TOKEN_SECRET", c.refresh)
			t.Setenv("APP_ENV", c.env)

			cfg, err := Load()
			if err == nil {
				t.Fatal("Load should return error")
			}
			if cfg != nil {
				t.Error("Load should return nil config on error")
			}
			if !strings.Contains(err.Error(), c.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), c.wantErr)
			}
		})
	}
}

func TestLoad_BcryptCostRange(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		want  int
		err   bool
	}{
		{"valid min", "4", 4, false},
		{"valid max", "31", 31, false},
		{"valid middle", "12", 12, false},
		{"too low", "3", 0, true},
		{"too high", "32", 0, true},
		{"zero", "0", 12, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			setSecrets(t)
			t.Setenv("BCRYPT_COST", tc.value)

			cfg, err := Load()
			if tc.err {
				if err == nil {
					t.Fatal("Load should return error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.BcryptCost != tc.want {
				t.Errorf("BcryptCost = %d, want %d", cfg.BcryptCost, tc.want)
			}
		})
	}
}

func TestTTL_FallbackOnInvalid(t *testing.T) {
	for _, value := range []string{"invalid", "0", "-5m", ""} {
		t.Run(value, func(t *testing.T) {
			c := &Config{AccessTokenTTL: value, RefreshTokenTTL: value}
			if c.AccessTTL() != 15*time.Minute {
				t.Errorf("AccessTTL(%q) = %v, want default", value, c.AccessTTL())
			}
			if c.RefreshTTL() != 240*time.Hour {
				t.Errorf("RefreshTTL(%q) = %v, want default", value, c.RefreshTTL())
			}
		})
	}
}

func TestValidate_NormalisesAttempts(t *testing.T) {
	c := &Config{HTTPAddr: ":1", AccessTokenSecret: "a", RefreshTokenSecret: "b"}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if c.DBConnectAttempts != 1 || c.BcryptCost != 12 {
		t.Errorf("cfg = %+v", c)
	}
}
