package run

import (
	"testing"
	"time"

	"github.com/relex/lineforwarder/forwarder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigString(t *testing.T) {
	config, err := ParseConfigString(`
inputs:
  - paths:
      - /var/log/app/service.log
      - /var/log/app/worker.log
    exclude:
      - "*.gz"
forwarder:
  address: collector.example.com:24224
  maxQueueSize: 2000
  backoffBase: 100ms
  backoffCap: 10s
`)
	require.NoError(t, err)

	require.Len(t, config.Inputs, 1)
	assert.Equal(t, []string{"/var/log/app/service.log", "/var/log/app/worker.log"}, config.Inputs[0].Paths)
	assert.Equal(t, "collector.example.com:24224", config.Forwarder.Address)
	assert.Equal(t, 2000, config.Forwarder.MaxQueueSize)
	assert.Equal(t, 100*time.Millisecond, config.Forwarder.BackoffBase)

	// defaults are filled for unspecified fields
	assert.Equal(t, forwarder.DropOldest, config.Forwarder.OverflowPolicy)
}

func TestParseConfigStringErrors(t *testing.T) {
	_, err := ParseConfigString(`
forwarder:
  address: no-port-here
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forwarder.address")

	_, err = ParseConfigString(`
inputs:
  - exclude: ["*"]
forwarder:
  address: localhost:514
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inputs[0].paths")
}
