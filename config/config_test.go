package config

import (
	"os"
	"testing"
	"time"
)

func TestPasswordPolicyValidate(t *testing.T) {
	policy := PasswordPolicy{
		MinLength:        8,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireNumber:    true,
		RequireSpecial:   true,
	}

	if err := policy.Validate("short"); err == nil {
		t.Fatalf("expected error for short password")
	}
	if err := policy.Validate("lowercase1!"); err == nil {
		t.Fatalf("expected error for missing uppercase")
	}
	if err := policy.Validate("UPPERCASE1!"); err == nil {
		t.Fatalf("expected error for missing lowercase")
	}
	if err := policy.Validate("NoNumber!"); err == nil {
		t.Fatalf("expected error for missing number")
	}
	if err := policy.Validate("NoSpecial1"); err == nil {
		t.Fatalf("expected error for missing special")
	}
	if err := policy.Validate("GoodPass1!"); err != nil {
		t.Fatalf("expected valid password, got %v", err)
	}
}

func TestGetDurationEnv(t *testing.T) {
	t.Setenv("TEST_DURATION", "30")
	if got := getDurationEnv("TEST_DURATION", 5*time.Minute); got != 30*time.Minute {
		t.Fatalf("expected 30m for bare integer, got %v", got)
	}
	t.Setenv("TEST_DURATION", "12h")
	if got := getDurationEnv("TEST_DURATION", 5*time.Minute); got != 12*time.Hour {
		t.Fatalf("expected 12h for duration string, got %v", got)
	}
	t.Setenv("TEST_DURATION", "invalid")
	if got := getDurationEnv("TEST_DURATION", 5*time.Minute); got != 5*time.Minute {
		t.Fatalf("expected default duration, got %v", got)
	}
}

func TestLoadRequiresSecrets(t *testing.T) {
	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd failed: %v", err)
	}
	tmp := t.TempDir()
	if err := os.Chdir(tmp); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(origDir)
	})

	t.Setenv("ACCESS_TOKEN_SECRET", "")
	t.Setenv("REFRESH_TOKEN_SECRET", "")
	t.Setenv("MONGO_URI", "")
	if cfg, err := Load(); err == nil || cfg != nil {
		t.Fatalf("expected error when ACCESS_TOKEN_SECRET is missing")
	}

	t.Setenv("ACCESS_TOKEN_SECRET", "access-secret")
	if cfg, err := Load(); err == nil || cfg != nil {
		t.Fatalf("expected error when REFRESH_TOKEN_SECRET is missing")
	}

	t.Setenv("REFRESH_TOKEN_SECRET", "refresh-secret")
	if cfg, err := Load(); err == nil || cfg != nil {
		t.Fatalf("expected error when MONGO_URI is missing")
	}
}

func TestLoadSuccess(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_SECRET", "access-secret")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh-secret")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("MONGO_DB", "projects_test")
	t.Setenv("HTTP_PORT", "8081")
	t.Setenv("APP_ENV", "production")
	t.Setenv("ACCESS_TOKEN_EXPIRY", "20m")
	t.Setenv("REFRESH_TOKEN_EXPIRY", "240h")
	t.Setenv("TEMP_TOKEN_TTL", "20m")
	t.Setenv("CORS_ORIGIN", "https://app.example.com")
	t.Setenv("PASSWORD_MIN_LENGTH", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.AccessTokenSecret != "access-secret" {
		t.Errorf("unexpected access secret %q", cfg.AccessTokenSecret)
	}
	if cfg.RefreshTokenSecret != "refresh-secret" {
		t.Errorf("unexpected refresh secret %q", cfg.RefreshTokenSecret)
	}
	if cfg.MongoDB != "projects_test" {
		t.Errorf("unexpected mongo db %q", cfg.MongoDB)
	}
	if cfg.HTTPPort != "8081" {
		t.Errorf("unexpected http port %q", cfg.HTTPPort)
	}
	if !cfg.IsProduction() {
		t.Errorf("expected production environment")
	}
	if cfg.AccessTokenTTL != 20*time.Minute {
		t.Errorf("unexpected access TTL %v", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 240*time.Hour {
		t.Errorf("unexpected refresh TTL %v", cfg.RefreshTokenTTL)
	}
	if cfg.TempTokenTTL != 20*time.Minute {
		t.Errorf("unexpected temp token TTL %v", cfg.TempTokenTTL)
	}
	if cfg.CORSOrigin != "https://app.example.com" {
		t.Errorf("unexpected CORS origin %q", cfg.CORSOrigin)
	}
	if cfg.PasswordPolicy.MinLength != 10 {
		t.Errorf("unexpected password min length %d", cfg.PasswordPolicy.MinLength)
	}
}
