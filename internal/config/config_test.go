package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/KaramelBytes/redraft-cli/internal/config"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	c, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.DefaultProfile != "NovelModel" {
		t.Fatalf("unexpected default profile %q", c.DefaultProfile)
	}
	if !reflect.DeepEqual(c.Profiles, config.DefaultProfiles()) {
		t.Fatalf("unexpected profiles %+v", c.Profiles)
	}
	if c.HTTPTimeoutSec != 60 || c.RetryMaxAttempts != 3 {
		t.Fatalf("unexpected http defaults: %+v", c)
	}
	if c.Logging.Level != "info" || c.Logging.Format != "text" {
		t.Fatalf("unexpected logging defaults: %+v", c.Logging)
	}
	if len(c.Directions) != 0 {
		t.Fatalf("expected no directions, got %v", c.Directions)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	c, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := c.SetProfile(config.Profile{
		Name:        "FullModel",
		Endpoint:    "http://localhost:9999/v1/chat/completions",
		Model:       "qwen-max",
		APIKey:      "sk-test",
		Temperature: 0.5,
		TopP:        0.9,
		MaxTokens:   1024,
	}); err != nil {
		t.Fatalf("SetProfile: %v", err)
	}
	c.DefaultProfile = "FullModel"
	if err := c.AddDirection("Make the dialogue sharper"); err != nil {
		t.Fatal(err)
	}
	if err := c.AddDirection("Cut adverbs"); err != nil {
		t.Fatal(err)
	}
	if err := config.Save(c, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := config.Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.DefaultProfile != "FullModel" {
		t.Fatalf("default profile not persisted: %q", got.DefaultProfile)
	}
	p, err := got.Profile("")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.Name != "FullModel" || p.Model != "qwen-max" || p.APIKey != "sk-test" || p.MaxTokens != 1024 {
		t.Fatalf("profile not persisted: %+v", p)
	}
	if !reflect.DeepEqual(got.Directions, []string{"Make the dialogue sharper", "Cut adverbs"}) {
		t.Fatalf("directions not persisted in order: %v", got.Directions)
	}
	if !reflect.DeepEqual(got.ProfileNames(), []string{"NovelModel", "FullModel"}) {
		t.Fatalf("unexpected profile names %v", got.ProfileNames())
	}
}

func TestLoadMalformedFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("profiles: [this is: not: yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := config.Load(path)
	var perr *config.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if perr.Path != path {
		t.Fatalf("unexpected path %q", perr.Path)
	}
	if c == nil || c.DefaultProfile != "NovelModel" || len(c.Profiles) == 0 {
		t.Fatalf("expected default config alongside ParseError, got %+v", c)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("REDRAFT_HTTP_TIMEOUT_SEC", "5")
	t.Setenv("REDRAFT_LOGGING_LEVEL", "debug")
	c, err := config.Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.HTTPTimeoutSec != 5 {
		t.Fatalf("expected env override 5, got %d", c.HTTPTimeoutSec)
	}
	if c.Logging.Level != "debug" {
		t.Fatalf("expected env override debug, got %q", c.Logging.Level)
	}
}
