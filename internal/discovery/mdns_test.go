// ABOUTME: Tests for mDNS discovery
// ABOUTME: Tests manager setup and browse entry conversion
package discovery

import (
	"net"
	"testing"

	"github.com/hashicorp/mdns"

	"github.com/Resonate-Protocol/resonate-mixer/internal/version"
)

func TestNewManager(t *testing.T) {
	config := Config{
		ServiceName: "Test Mixer",
		Port:        8928,
	}

	mgr := NewManager(config)
	if mgr == nil {
		t.Fatal("expected manager to be created")
	}
	mgr.Stop()
}

func TestPreviewFromEntry(t *testing.T) {
	entry := &mdns.ServiceEntry{
		Name:       "Studio._resonate-mix._tcp.local.",
		AddrV4:     net.ParseIP("192.168.1.20"),
		Port:       8928,
		InfoFields: []string{"path=/live", "format=s16le", "version=0.2.1", "manufacturer=Acme"},
	}

	info := previewFromEntry(entry)
	if info == nil {
		t.Fatal("expected preview info")
	}
	if info.Path != "/live" {
		t.Errorf("expected path /live, got %s", info.Path)
	}
	if info.URL() != "ws://192.168.1.20:8928/live" {
		t.Errorf("unexpected url %s", info.URL())
	}
	if info.Version != "0.2.1" || info.Manufacturer != "Acme" {
		t.Errorf("unexpected identity %q %q", info.Version, info.Manufacturer)
	}
}

func TestPreviewFromEntryDefaults(t *testing.T) {
	info := previewFromEntry(&mdns.ServiceEntry{AddrV4: net.ParseIP("10.0.0.1"), Port: 80})
	if info == nil || info.Path != PreviewPath {
		t.Fatalf("expected default path, got %+v", info)
	}

	if previewFromEntry(&mdns.ServiceEntry{Port: 80}) != nil {
		t.Error("expected nil for entry without IPv4 address")
	}
}

func TestTXTRecords(t *testing.T) {
	txt := txtRecords()
	if len(txt) == 0 || txt[0] != "path="+PreviewPath {
		t.Errorf("unexpected txt records %v", txt)
	}

	// what one mixer announces, another reads back
	info := previewFromEntry(&mdns.ServiceEntry{AddrV4: net.ParseIP("10.0.0.2"), Port: 8928, InfoFields: txt})
	if info.Version != version.Version {
		t.Errorf("expected version %s, got %s", version.Version, info.Version)
	}
	if info.Manufacturer != version.Manufacturer {
		t.Errorf("expected manufacturer %s, got %s", version.Manufacturer, info.Manufacturer)
	}
}
