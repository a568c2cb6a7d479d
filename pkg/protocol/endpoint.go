package protocol

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// A reachable coordinator gateway address.
type Endpoint struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Renders the endpoint as tcp://host:port, the format stored
// in the rendezvous file.
func (e Endpoint) String() string {
	return fmt.Sprintf("tcp://%s", net.JoinHostPort(e.Host, strconv.Itoa(e.Port)))
}

// Host:port address suitable for net.Dial and http clients.
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// Parses an endpoint of the form tcp://host:port.
func ParseEndpoint(s string) (Endpoint, error) {
	s = strings.TrimSpace(s)

	uri, err := url.Parse(s)
	if err != nil {
		return Endpoint{}, err
	}

	if uri.Scheme != "tcp" {
		return Endpoint{}, fmt.Errorf("Unsupported protocol: %q", uri.Scheme)
	}

	host := uri.Hostname()
	if host == "" {
		return Endpoint{}, fmt.Errorf("Missing host in endpoint %q", s)
	}

	port, err := strconv.Atoi(uri.Port())
	if err != nil {
		return Endpoint{}, fmt.Errorf("Invalid port in endpoint %q", s)
	}

	return Endpoint{Host: host, Port: port}, nil
}
