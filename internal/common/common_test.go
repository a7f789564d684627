package common

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("SKYDESK_CONFIG", "")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LLM.Model != "gpt-4.1-nano" {
		t.Errorf("Expected default model gpt-4.1-nano, got %s", cfg.LLM.Model)
	}
	if cfg.LLM.Temperature != 0 {
		t.Errorf("Expected temperature 0, got %v", cfg.LLM.Temperature)
	}
	if cfg.LLM.Timeout != 0 {
		t.Errorf("Expected no timeout by default, got %v", cfg.LLM.Timeout)
	}
	if cfg.Storage.PromptsDir != "ops/assistants" {
		t.Errorf("Expected prompts dir ops/assistants, got %s", cfg.Storage.PromptsDir)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadConfigYAMLAndEnvOverride(t *testing.T) {
	content := `
llm:
  model: "gpt-4o-mini"
  temperature: 0.3
  timeout: 20s
storage:
  data_dir: "/srv/leads"
extract:
  backend: "pdftotext"
log:
  level: "debug"
  format: "json"
`
	path := filepath.Join(t.TempDir(), "skydesk.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("OPENAI_MODEL", "gpt-4.1-mini")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LLM.Model != "gpt-4.1-mini" {
		t.Errorf("Expected env to override model, got %s", cfg.LLM.Model)
	}
	if cfg.LLM.APIKey != "sk-test" {
		t.Errorf("Expected api key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Timeout != 20*time.Second {
		t.Errorf("Expected timeout 20s, got %v", cfg.LLM.Timeout)
	}
	if cfg.Storage.DataDir != "/srv/leads" {
		t.Errorf("Expected data dir /srv/leads, got %s", cfg.Storage.DataDir)
	}
	if cfg.Storage.TmpDir != "tmp" {
		t.Errorf("Expected default tmp dir to survive, got %s", cfg.Storage.TmpDir)
	}
	if cfg.Extract.Backend != "pdftotext" {
		t.Errorf("Expected backend pdftotext, got %s", cfg.Extract.Backend)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Expected error for missing config file")
	}
	if ErrorCode(err) != "CONFIG_ERROR" {
		t.Errorf("Expected CONFIG_ERROR, got %q", ErrorCode(err))
	}
}

func TestSentinelWrapping(t *testing.T) {
	cause := errors.New("exec: not found")
	err := ExtractionUnavailableError("pdftotext missing", cause)
	if !errors.Is(err, ErrExtractionUnavailable) {
		t.Error("Expected ErrExtractionUnavailable in chain")
	}
	if !errors.Is(err, cause) {
		t.Error("Expected cause in chain")
	}

	if !errors.Is(ProviderError("status 500", nil), ErrProvider) {
		t.Error("Expected ErrProvider in chain")
	}
	if errors.Is(NotConfiguredError("no key"), ErrProvider) {
		t.Error("NotConfigured must not look like a provider failure")
	}
}

func TestValidatorRules(t *testing.T) {
	v := NewValidator().
		Field("lead_id", "123456", Required, LeadID).
		Field("email", "not-an-email", Email).
		Field("currency", "gbp", CurrencyCode).
		Field("name", "  ", Required)

	if len(v.Errors()) != 4 {
		t.Fatalf("Expected 4 errors, got %d: %s", len(v.Errors()), v.ErrorMessage())
	}

	ok := NewValidator().
		Field("lead_id", "1234567", Required, LeadID).
		Field("email", "", Email).
		Field("currency", "GBP", CurrencyCode).
		Field("draft_id", "0f8fad5bd9cb469fa16570867728950e", UUID)
	if ok.HasErrors() {
		t.Errorf("Expected no errors, got %s", ok.ErrorMessage())
	}

	err := ValidateAndReturnError(v)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation, got %v", err)
	}
}

func TestEnsureRequestID(t *testing.T) {
	ctx, id := EnsureRequestID(context.Background())
	if id == "" || RequestIDFromContext(ctx) != id {
		t.Fatalf("Expected generated request id in context")
	}
	ctx2, id2 := EnsureRequestID(ctx)
	if id2 != id || ctx2 != ctx {
		t.Errorf("Expected existing request id to be kept")
	}
}
