package bot

import (
	"errors"
	"testing"

	"github.com/CTAG07/Ebooks/pkg/style"
)

func TestConfigValidate(t *testing.T) {
	testCases := []struct {
		name        string
		modify      func(*Config)
		expectError bool
	}{
		{name: "Defaults", modify: func(*Config) {}},
		{name: "Fixed style", modify: func(c *Config) { c.Style = "Casual" }},
		{name: "Empty style", modify: func(c *Config) { c.Style = "" }},
		{name: "Unknown style", modify: func(c *Config) { c.Style = "gothic" }, expectError: true},
		{name: "Negative odds", modify: func(c *Config) { c.Odds = -1 }, expectError: true},
		{name: "No attempts", modify: func(c *Config) { c.PostAttempts = 0 }, expectError: true},
		{name: "No words", modify: func(c *Config) { c.MaxWords = 0 }, expectError: true},
		{name: "Inverted window", modify: func(c *Config) { c.TargetMinChars, c.TargetMaxChars = 300, 200 }, expectError: true},
		{name: "Low order falls back", modify: func(c *Config) { c.Order = 0 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			err := cfg.Validate()
			if tc.expectError && err == nil {
				t.Error("expected an error")
			}
			if !tc.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfigUnknownStyleIsTyped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Style = "gothic"
	if err := cfg.Validate(); !errors.Is(err, style.ErrUnknownStyle) {
		t.Errorf("expected style.ErrUnknownStyle, got %v", err)
	}
}
