package wire

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

// ErrEmptyAddress is returned for a blank robot endpoint.
var ErrEmptyAddress = errors.New("robot address is empty")

// Endpoint is a robot address resolved to a grpc target.
type Endpoint struct {
	// Target is passed to grpc.NewClient.
	Target string
	// Creds are the transport credentials for Target.
	Creds credentials.TransportCredentials
}

// ParseEndpoint converts an operator address into a grpc target.
//
// Accepted forms: http://host:port, https://host:port (TLS), host:port,
// and any address already carrying a grpc resolver scheme (dns:, unix:,
// passthrough:). http and https default to ports 80 and 443.
func ParseEndpoint(address string) (Endpoint, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Endpoint{}, ErrEmptyAddress
	}

	for _, scheme := range []string{"dns:", "unix:", "unix-abstract:", "passthrough:"} {
		if strings.HasPrefix(address, scheme) {
			return Endpoint{Target: address, Creds: insecure.NewCredentials()}, nil
		}
	}

	if !strings.Contains(address, "://") {
		if _, _, err := net.SplitHostPort(address); err != nil {
			return Endpoint{}, fmt.Errorf("invalid robot address %q: %w", address, err)
		}
		return Endpoint{Target: address, Creds: insecure.NewCredentials()}, nil
	}

	u, err := url.Parse(address)
	if err != nil {
		return Endpoint{}, fmt.Errorf("invalid robot address %q: %w", address, err)
	}
	if u.Hostname() == "" {
		return Endpoint{}, fmt.Errorf("invalid robot address %q: missing host", address)
	}

	port := u.Port()
	var creds credentials.TransportCredentials
	switch u.Scheme {
	case "http", "grpc":
		if port == "" {
			port = "80"
		}
		creds = insecure.NewCredentials()
	case "https", "grpcs":
		if port == "" {
			port = "443"
		}
		creds = credentials.NewTLS(&tls.Config{ServerName: u.Hostname(), MinVersion: tls.VersionTLS12})
	default:
		return Endpoint{}, fmt.Errorf("invalid robot address %q: unsupported scheme %q", address, u.Scheme)
	}

	return Endpoint{
		Target: "dns:///" + net.JoinHostPort(u.Hostname(), port),
		Creds:  creds,
	}, nil
}
