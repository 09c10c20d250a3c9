// ABOUTME: mDNS service discovery for SBC link receivers
// ABOUTME: Receivers advertise their listening address; transmitters browse for them
package discovery

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service receivers advertise
const ServiceType = "_sbclink._tcp"

// browseTimeout is the length of one mDNS query round
const browseTimeout = 3 * time.Second

// Config holds discovery configuration
type Config struct {
	ServiceName string
	Port        int
	Scheme      string // transport scheme the receiver accepts: tcp or ws
	Path        string // ws upgrade path
}

// Manager handles mDNS operations
type Manager struct {
	config    Config
	ctx       context.Context
	cancel    context.CancelFunc
	receivers chan *ReceiverInfo
}

// ReceiverInfo describes a discovered receiver
type ReceiverInfo struct {
	Name   string
	Host   string
	Port   int
	Scheme string
	Path   string
}

// Addr returns the transport URL for the receiver
func (r *ReceiverInfo) Addr() string {
	hostPort := net.JoinHostPort(r.Host, fmt.Sprint(r.Port))
	if r.Scheme == "ws" {
		return "ws://" + hostPort + r.Path
	}
	return "tcp://" + hostPort
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	if config.Scheme == "" {
		config.Scheme = "tcp"
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config:    config,
		ctx:       ctx,
		cancel:    cancel,
		receivers: make(chan *ReceiverInfo, 10),
	}
}

// txtRecords describes how to reach the advertised transport
func (m *Manager) txtRecords() []string {
	txt := []string{"scheme=" + m.config.Scheme}
	if m.config.Scheme == "ws" {
		txt = append(txt, "path="+m.config.Path)
	}
	return txt
}

// Advertise announces this receiver until Stop
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
		m.txtRecords(),
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

// Browse searches for receivers in the background until Stop
func (m *Manager) Browse() {
	go m.browseLoop()
}

// browseLoop repeats mDNS queries
func (m *Manager) browseLoop() {
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		entries := make(chan *mdns.ServiceEntry, 10)
		done := make(chan struct{})

		go func() {
			defer close(done)
			for entry := range entries {
				info := parseEntry(entry)
				if info == nil {
					continue
				}

				log.Printf("Discovered receiver: %s at %s", info.Name, info.Addr())

				select {
				case m.receivers <- info:
				case <-m.ctx.Done():
				}
			}
		}()

		params := mdns.DefaultParams(ServiceType)
		params.Entries = entries
		params.Timeout = browseTimeout
		params.DisableIPv6 = true

		if err := mdns.Query(params); err != nil {
			log.Printf("mDNS query failed: %v", err)
		}
		close(entries)
		<-done

		select {
		case <-m.ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

// parseEntry converts a service entry, returning nil for unusable ones
func parseEntry(entry *mdns.ServiceEntry) *ReceiverInfo {
	if entry.AddrV4 == nil || entry.Port == 0 {
		return nil
	}

	info := &ReceiverInfo{
		Name:   strings.TrimSuffix(entry.Name, "."+ServiceType+".local."),
		Host:   entry.AddrV4.String(),
		Port:   entry.Port,
		Scheme: "tcp",
	}
	for _, field := range entry.InfoFields {
		key, value, _ := strings.Cut(field, "=")
		switch key {
		case "scheme":
			info.Scheme = value
		case "path":
			info.Path = value
		}
	}
	return info
}

// Receivers returns the channel of discovered receivers
func (m *Manager) Receivers() <-chan *ReceiverInfo {
	return m.receivers
}

// Stop stops advertising and browsing
func (m *Manager) Stop() {
	m.cancel()
}

// getLocalIPs returns local IP addresses
func getLocalIPs() ([]net.IP, error) {
	ips := []net.IP{}

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
