package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/wanikanji/internal/models"
	pkgconfig "github.com/starford/wanikanji/pkg/config"
)

func TestDefaultConfig_Valid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled || cfg.AuthEnabled() {
		t.Errorf("mode = %q, enabled = %v", cfg.Mode, cfg.AuthEnabled())
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestConfig_SectionNamedInError(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.AnkiConnect.Endpoint = "not a url"
	err := cfg.Validate()
	if err == nil || !strings.HasPrefix(err.Error(), "anki_connect:") {
		t.Fatalf("err = %v, want anki_connect section error", err)
	}

	cfg = NewDefaultConfig()
	cfg.Vocabulary.DeckName = ""
	err = cfg.Validate()
	if err == nil || !strings.HasPrefix(err.Error(), "vocabulary:") {
		t.Fatalf("err = %v, want vocabulary section error", err)
	}
}

func TestRetryConfig_Bounds(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 0, InitialDelay: time.Second}
	if err := cfg.Validate(); err == nil {
		t.Error("zero attempts should fail")
	}
	cfg = RetryConfig{MaxAttempts: 3, InitialDelay: time.Second, MaxDelay: time.Millisecond}
	if err := cfg.Validate(); err == nil {
		t.Error("max delay below initial delay should fail")
	}
	cfg = RetryConfig{MaxAttempts: 3, InitialDelay: time.Second, MaxDelay: 4 * time.Second}
	p := cfg.Policy()
	if p.MaxAttempts != 3 || p.Delay(3) != 4*time.Second {
		t.Errorf("policy = %+v", p)
	}
}

func TestWaniKaniConfig_CooldownFloor(t *testing.T) {
	cfg := NewDefaultConfig().WaniKani
	cfg.RateLimitCooldown = 10 * time.Millisecond
	if err := cfg.Validate(); err == nil {
		t.Error("sub-second cool-down should fail")
	}
}

func TestConfig_Notes(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Notes(models.VariantKanji).DeckName != "WaniKani Kanji" {
		t.Errorf("kanji notes = %+v", cfg.Notes(models.VariantKanji))
	}
	if cfg.Notes(models.VariantVocabulary).ModelName != "WaniKani Vocabulary" {
		t.Errorf("vocabulary notes = %+v", cfg.Notes(models.VariantVocabulary))
	}
}

func TestConfig_LoadYAML(t *testing.T) {
	t.Setenv("TEST_WK_TOKEN", "secret")
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
app:
  log_level: debug
  log_format: json
wanikani:
  api_token: ${TEST_WK_TOKEN}
  rate_limit_cooldown: 90s
anki_connect:
  retry:
    max_attempts: 3
kanji:
  deck_name: Kanji::Core
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WaniKani.APIToken != "secret" {
		t.Errorf("token = %q", cfg.WaniKani.APIToken)
	}
	if cfg.WaniKani.RateLimitCooldown != 90*time.Second {
		t.Errorf("cooldown = %v", cfg.WaniKani.RateLimitCooldown)
	}
	if cfg.App.LogLevel.String() != "DEBUG" || cfg.App.LogFormat != LogFormatJSON {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.AnkiConnect.Retry.MaxAttempts != 3 || cfg.AnkiConnect.Retry.InitialDelay == 0 {
		t.Errorf("retry = %+v", cfg.AnkiConnect.Retry)
	}
	if cfg.Kanji.DeckName != "Kanji::Core" || cfg.Kanji.ModelName != "WaniKani Kanji" {
		t.Errorf("kanji = %+v", cfg.Kanji)
	}
}
