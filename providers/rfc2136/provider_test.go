package rfc2136

import (
	"testing"

	"gitlab.bluewillows.net/root/wgdisco/pkg/dnsupdate"
)

func TestNew(t *testing.T) {
	config := &dnsupdate.Config{
		Server: "ns1.example.com",
		Zone:   "example.com.",
	}

	p, err := New("home-zone", config)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if p.Name() != "home-zone" {
		t.Errorf("Name() = %q", p.Name())
	}
	if p.Type() != "rfc2136" {
		t.Errorf("Type() = %q", p.Type())
	}
	if p.Zone() != "example.com." {
		t.Errorf("Zone() = %q", p.Zone())
	}
}

func TestNewInvalidConfig(t *testing.T) {
	if _, err := New("broken", &dnsupdate.Config{}); err == nil {
		t.Error("expected error for empty config")
	}
	if _, err := New("broken", nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestFactory(t *testing.T) {
	factory := Factory()

	p, err := factory("home-zone", map[string]string{
		"server": "ns1.example.com",
		"zone":   "example.com",
	})
	if err != nil {
		t.Fatalf("factory error: %v", err)
	}
	if p.Type() != "rfc2136" {
		t.Errorf("Type() = %q", p.Type())
	}
}

func TestFactoryMissingRequired(t *testing.T) {
	factory := Factory()

	if _, err := factory("broken", map[string]string{"zone": "example.com"}); err == nil {
		t.Error("expected error for missing server")
	}
}
