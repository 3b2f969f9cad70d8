// Package discovery advertises the airpaint service on the local network.
package discovery

import (
	"fmt"
	"net"
	"os"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/mdns"
)

// ServiceType is the DNS-SD service type of the HTTP API.
const ServiceType = "_airpaint._tcp"

// Advertiser answers mDNS queries for the service until Shutdown.
type Advertiser struct {
	server  *mdns.Server
	service *mdns.MDNSService
}

// Advertise announces the service on port under the local hostname. info
// becomes the TXT record.
func Advertise(port int, info ...string) (*Advertiser, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}

	service, err := newService(host, "", port, nil, info)
	if err != nil {
		return nil, err
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}

	log.Info("advertising service", "type", ServiceType, "instance", host, "port", port)
	return &Advertiser{server: server, service: service}, nil
}

// newService builds the zone. An empty hostName and nil ips use the
// machine's own name and addresses.
func newService(instance, hostName string, port int, ips []net.IP, info []string) (*mdns.MDNSService, error) {
	if len(info) == 0 {
		info = []string{"airpaint"}
	}
	service, err := mdns.NewMDNSService(instance, ServiceType, "", hostName, port, ips, info)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}
	return service, nil
}

// Port returns the advertised port.
func (a *Advertiser) Port() int {
	return a.service.Port
}

// Shutdown stops answering queries.
func (a *Advertiser) Shutdown() error {
	return a.server.Shutdown()
}
