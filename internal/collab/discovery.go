//go:build !js

package collab

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service a relay advertises.
const ServiceType = "_inkboard._tcp"

// Relay is a relay found on the local network.
type Relay struct {
	Name string
	Addr string // host:port
	Info []string
}

// Advertise announces a relay listening on port. Shut the returned server
// down to withdraw the announcement.
func Advertise(instance string, port int, info ...string) (*mdns.Server, error) {
	if instance == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("get hostname: %w", err)
		}
		instance = host
	}

	service, err := mdns.NewMDNSService(instance, ServiceType, "", "", port, nil, info)
	if err != nil {
		return nil, fmt.Errorf("create mdns service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("start mdns server: %w", err)
	}
	slog.Info("advertising relay", "instance", instance, "service", ServiceType, "port", port)
	return server, nil
}

// Discover browses the local network for relays until timeout or ctx ends.
func Discover(ctx context.Context, timeout time.Duration) ([]Relay, error) {
	entries := make(chan *mdns.ServiceEntry, 16)
	found := make(chan []Relay, 1)

	go func() {
		var relays []Relay
		seen := make(map[string]bool)
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 || !strings.Contains(e.Name, ServiceType) {
				continue
			}
			addr := fmt.Sprintf("%s:%d", e.AddrV4, e.Port)
			if seen[addr] {
				continue
			}
			seen[addr] = true
			relays = append(relays, Relay{Name: e.Name, Addr: addr, Info: e.InfoFields})
		}
		found <- relays
	}()

	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}
	err := mdns.Query(&mdns.QueryParam{
		Service:     ServiceType,
		Domain:      "local",
		Timeout:     timeout,
		Entries:     entries,
		DisableIPv6: true,
	})
	close(entries)
	relays := <-found
	if err != nil {
		return relays, fmt.Errorf("mdns query: %w", err)
	}
	return relays, nil
}
