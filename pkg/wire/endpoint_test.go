package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		address  string
		target   string
		security string
	}{
		{"http://pi42.local:5001", "dns:///pi42.local:5001", "insecure"},
		{"https://robot.example.com", "dns:///robot.example.com:443", "tls"},
		{"http://10.0.0.5", "dns:///10.0.0.5:80", "insecure"},
		{"localhost:5001", "localhost:5001", "insecure"},
		{"unix:///tmp/robot.sock", "unix:///tmp/robot.sock", "insecure"},
		{"passthrough:///bufnet", "passthrough:///bufnet", "insecure"},
		{"  http://[::1]:5001 ", "dns:///[::1]:5001", "insecure"},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			ep, err := ParseEndpoint(tt.address)
			require.NoError(t, err)
			assert.Equal(t, tt.target, ep.Target)
			assert.Equal(t, tt.security, ep.Creds.Info().SecurityProtocol)
		})
	}
}

func TestParseEndpointErrors(t *testing.T) {
	for _, address := range []string{"", "   ", "ftp://robot:21", "http://:5001", "no-port"} {
		_, err := ParseEndpoint(address)
		assert.Error(t, err, "address %q", address)
	}
	_, err := ParseEndpoint("")
	assert.ErrorIs(t, err, ErrEmptyAddress)
}
