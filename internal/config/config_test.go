package config

import (
	"testing"
	"time"

	"github.com/judopay/judopay-go/pkg/judopay"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("JUDO_API_TOKEN", "tok")
	t.Setenv("JUDO_API_SECRET", "sec")
	t.Setenv("JUDO_ID", "100200300")
	t.Setenv("SYNC_INTERVAL", "60")
	t.Setenv("JUDO_ENDPOINT_URL", "https://example.test/ ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SyncInterval != time.Minute {
		t.Fatalf("SyncInterval = %v", cfg.SyncInterval)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Fatalf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}

	jcfg := cfg.Judopay()
	if jcfg.EndpointURL != "https://example.test" {
		t.Fatalf("EndpointURL = %q", jcfg.EndpointURL)
	}
	if jcfg.APIToken != "tok" || jcfg.APISecret != "sec" || jcfg.JudoID != "100200300" {
		t.Fatalf("credentials not loaded: %+v", jcfg)
	}
	if jcfg.APIVersion != judopay.DefaultAPIVersion {
		t.Fatalf("APIVersion = %q", jcfg.APIVersion)
	}
	if err := jcfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadRejectsNonPositiveInterval(t *testing.T) {
	t.Setenv("SYNC_INTERVAL", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero sync_interval")
	}
}

func TestJudopayEndpointSelection(t *testing.T) {
	cfg := &Config{}
	if got := cfg.Judopay().EndpointURL; got != judopay.SandboxURL {
		t.Fatalf("sandbox endpoint = %q", got)
	}
	cfg.UseProduction = true
	if got := cfg.Judopay().EndpointURL; got != judopay.LiveURL {
		t.Fatalf("live endpoint = %q", got)
	}
	cfg.EndpointURL = "https://override.test"
	if got := cfg.Judopay().EndpointURL; got != "https://override.test" {
		t.Fatalf("override endpoint = %q", got)
	}
}
