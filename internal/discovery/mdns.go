// ABOUTME: mDNS advertisement and browsing for mix preview servers
// ABOUTME: Announces _resonate-mix._tcp so listeners can find a running mixer
package discovery

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"github.com/hashicorp/mdns"

	"github.com/Resonate-Protocol/resonate-mixer/internal/version"
)

const (
	// ServiceType is the mDNS service a preview server announces
	ServiceType = "_resonate-mix._tcp"

	// PreviewPath is advertised in the TXT record
	PreviewPath = "/preview"

	browseTimeout = 3 * time.Second
)

// Config holds discovery configuration
type Config struct {
	ServiceName string
	Port        int
}

// Manager handles mDNS operations
type Manager struct {
	config   Config
	ctx      context.Context
	cancel   context.CancelFunc
	previews chan *PreviewInfo
}

// PreviewInfo describes a discovered preview server
type PreviewInfo struct {
	Name         string
	Host         string
	Port         int
	Path         string
	Version      string
	Manufacturer string
}

// URL returns the websocket address of the preview
func (p *PreviewInfo) URL() string {
	return fmt.Sprintf("ws://%s%s", net.JoinHostPort(p.Host, fmt.Sprint(p.Port)), p.Path)
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config:   config,
		ctx:      ctx,
		cancel:   cancel,
		previews: make(chan *PreviewInfo, 10),
	}
}

// Advertise announces the preview server until Stop
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		txtRecords(),
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	log.Printf("Advertising mDNS service: %s on port %d (type: %s)", m.config.ServiceName, m.config.Port, ServiceType)

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Browse searches for preview servers until Stop
func (m *Manager) Browse() error {
	go m.browseLoop()
	return nil
}

func (m *Manager) browseLoop() {
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		entries := make(chan *mdns.ServiceEntry, 10)

		go func() {
			for entry := range entries {
				info := previewFromEntry(entry)
				if info == nil {
					continue
				}

				log.Printf("Discovered preview: %s at %s", info.Name, info.URL())

				select {
				case m.previews <- info:
				case <-m.ctx.Done():
					return
				}
			}
		}()

		params := &mdns.QueryParam{
			Service: ServiceType,
			Domain:  "local",
			Timeout: browseTimeout,
			Entries: entries,
		}

		if err := mdns.Query(params); err != nil {
			log.Printf("mDNS query failed: %v", err)
		}
		close(entries)
	}
}

// Previews returns the channel of discovered preview servers
func (m *Manager) Previews() <-chan *PreviewInfo {
	return m.previews
}

// Stop stops advertising and browsing
func (m *Manager) Stop() {
	m.cancel()
}

func txtRecords() []string {
	return []string{
		"path=" + PreviewPath,
		"format=s16le",
		"version=" + version.Version,
		"manufacturer=" + version.Manufacturer,
	}
}

// previewFromEntry converts a browse result, nil when it has no IPv4 address
func previewFromEntry(entry *mdns.ServiceEntry) *PreviewInfo {
	if entry == nil || entry.AddrV4 == nil {
		return nil
	}

	info := &PreviewInfo{
		Name: entry.Name,
		Host: entry.AddrV4.String(),
		Port: entry.Port,
		Path: PreviewPath,
	}
	for _, field := range entry.InfoFields {
		key, value, _ := strings.Cut(field, "=")
		switch key {
		case "path":
			if value != "" {
				info.Path = value
			}
		case "version":
			info.Version = value
		case "manufacturer":
			info.Manufacturer = value
		}
	}
	return info
}

// getLocalIPs returns local IP addresses
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
