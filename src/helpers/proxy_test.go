package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProxyManagerRotation(t *testing.T) {
	pm := NewProxyManager([]string{"10.0.0.1:8080", "", "ftp://nope", "socks5://10.0.0.2:1080"}, "")

	assert.True(t, pm.HasProxies())
	assert.Equal(t, defaultUserAgent, pm.GetUserAgent())

	p, err := pm.GetCurrentProxy()
	assert.NoError(t, err)
	assert.Equal(t, "http://10.0.0.1:8080", p)

	pm.RotateProxy()
	p, _ = pm.GetCurrentProxy()
	assert.Equal(t, "socks5://10.0.0.2:1080", p)

	pm.RotateProxy()
	p, _ = pm.GetCurrentProxy()
	assert.Equal(t, "http://10.0.0.1:8080", p)
}

func TestProxyManagerEmpty(t *testing.T) {
	pm := NewProxyManager(nil, "agent/1")
	assert.False(t, pm.HasProxies())
	assert.Equal(t, "agent/1", pm.GetUserAgent())

	p, err := pm.GetCurrentProxy()
	assert.NoError(t, err)
	assert.Empty(t, p)
	pm.RotateProxy()
}
