package statsd

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listen(t *testing.T) net.PacketConn {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = pc.Close() })
	return pc
}

func readLine(t *testing.T, pc net.PacketConn) string {
	t.Helper()
	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 1024)
	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)
	return string(buf[:n])
}

func TestMetricName(t *testing.T) {
	tests := map[string]string{
		" gateway.request ":    "gateway.request",
		"..upload..bytes..":    "upload.bytes",
		"api/v1/users":         "api_v1_users",
		"auth:rejected|status": "auth_rejected_status",
		".":                    "",
	}
	for input, want := range tests {
		assert.Equal(t, want, metricName(input), input)
	}
}

func TestClient_Line(t *testing.T) {
	c, err := NewClient(Config{
		Prefix:     ".recon_console.",
		GlobalTags: map[string]string{" ENV ": "prod", "service": "recon console"},
	})
	require.NoError(t, err)

	got := c.line("gateway.error", "1", "c", map[string]string{
		"api":         "recon",
		"error_class": "upstream|5xx",
		"env":         "stage",
		"":            "ignored",
	})
	assert.Equal(t, "recon_console.gateway.error:1|c|#api:recon,env:stage,error_class:upstream_5xx,service:recon_console", got)

	assert.Equal(t, "recon_console.upload.bytes:2048|g|#env:prod,service:recon_console", c.line("upload.bytes", "2048", "g", nil))
	assert.Empty(t, c.line(" ", "1", "c", nil))
}

func TestClient_LineWithoutPrefixOrTags(t *testing.T) {
	c, err := NewClient(Config{})
	require.NoError(t, err)
	assert.Equal(t, "auth.backend_rejection:1|c|#status:401", c.line("auth.backend_rejection", "1", "c", map[string]string{"status": "401"}))
	assert.Equal(t, "upload.submitted:1|c", c.line("upload.submitted", "1", "c", nil))
}

func TestClient_SendsOverUDP(t *testing.T) {
	pc := listen(t)
	c, err := NewClient(Config{Enabled: true, Address: pc.LocalAddr().String(), Prefix: "recon"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	require.True(t, c.Enabled())

	c.Count("upload.submitted", 3, map[string]string{"result": "success"})
	assert.Equal(t, "recon.upload.submitted:3|c|#result:success", readLine(t, pc))

	c.Timing("gateway.request", 1500*time.Microsecond, nil)
	assert.Equal(t, "recon.gateway.request:1.5|ms", readLine(t, pc))

	c.Gauge("upload.bytes", 0.25, nil)
	assert.Equal(t, "recon.upload.bytes:0.25|g", readLine(t, pc))
}

func TestClient_DisabledAndClosed(t *testing.T) {
	c, err := NewClient(Config{Enabled: true, Address: "  "})
	require.NoError(t, err)
	assert.False(t, c.Enabled())
	c.Count("dropped", 1, nil)

	pc := listen(t)
	c, err = NewClient(Config{Enabled: true, Address: pc.LocalAddr().String()})
	require.NoError(t, err)
	require.NoError(t, c.Close())
	assert.False(t, c.Enabled())
	require.NoError(t, c.Close())
	c.Count("after.close", 1, nil)
}

func TestClient_NilIsSafe(t *testing.T) {
	var c *Client
	assert.False(t, c.Enabled())
	c.Count("x", 1, nil)
	c.Gauge("x", 1, nil)
	c.Timing("x", time.Second, nil)
	assert.NoError(t, c.Close())
}

func TestNewClient_DialError(t *testing.T) {
	_, err := NewClient(Config{Enabled: true, Address: "not a host:port:9"})
	assert.ErrorContains(t, err, "statsd dial")
}
