package configutil

import (
	"strings"
	"testing"
)

func TestDecodeSettingsNormalizesKeys(t *testing.T) {
	var out struct {
		APIKey  string `mapstructure:"api_key"`
		BaseURL string `mapstructure:"base_url"`
		Retries int    `mapstructure:"retries"`
	}
	err := DecodeSettings(map[string]any{
		"apiKey":   "k",
		"BASE-URL": "https://example.com",
		"retries":  "3",
	}, &out)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.APIKey != "k" || out.BaseURL != "https://example.com" || out.Retries != 3 {
		t.Fatalf("unexpected decode result: %+v", out)
	}
}

func TestValidateSettingsMissingRequired(t *testing.T) {
	schema := Schema{Required: []string{"api_key"}, Optional: []string{"base_url"}}

	if err := ValidateSettings(map[string]any{"base_url": "x"}, schema); err == nil {
		t.Fatalf("expected missing api_key error")
	} else if !strings.Contains(err.Error(), "api_key") {
		t.Fatalf("error must name the missing key, got %q", err)
	}
	// A required key present but blank is still missing.
	if err := ValidateSettings(map[string]any{"api_key": "  "}, schema); err == nil {
		t.Fatalf("expected blank api_key error")
	}
	if err := ValidateSettings(map[string]any{"api_key": "k", "base_url": "x"}, schema); err != nil {
		t.Fatalf("valid settings rejected: %v", err)
	}
}

func TestValidateSettingsRejectsUnknownKeys(t *testing.T) {
	schema := Schema{Required: []string{"api_key"}}

	err := ValidateSettings(map[string]any{"api_key": "k", "api_secrt": "oops"}, schema)
	if err == nil || !strings.Contains(err.Error(), "api_secrt") {
		t.Fatalf("expected unknown key error naming the typo, got %v", err)
	}
	// Separator and case variants of a known key are accepted.
	if err := ValidateSettings(map[string]any{"Api-Key": "k"}, schema); err != nil {
		t.Fatalf("normalized key rejected: %v", err)
	}
}

func TestRequireString(t *testing.T) {
	if err := RequireString("", "embed.api_key"); err == nil {
		t.Fatalf("expected error for empty value")
	}
	if err := RequireString("ok", "embed.api_key"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
