package forwarder

import (
	"fmt"
	"net"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/relex/lineforwarder/defs"
)

// OverflowPolicy selects which record to drop when the delivery queue is full
type OverflowPolicy string

// Supported overflow policies.
//
// The choice changes delivery-order guarantees under saturation: drop-oldest keeps
// the most recent maxQueueSize records, drop-newest keeps the earliest ones.
const (
	// DropOldest evicts the oldest queued record to make room for the new one (default)
	DropOldest OverflowPolicy = "oldest"
	// DropNewest rejects the incoming record and keeps the queue untouched
	DropNewest OverflowPolicy = "newest"
)

// Config defines the upstream and queueing settings of a Sink
type Config struct {
	Address         string            `yaml:"address"`         // upstream host:port
	MaxQueueSize    int               `yaml:"maxQueueSize"`    // max records held while upstream is slow or down
	OverflowPolicy  OverflowPolicy    `yaml:"overflowPolicy"`  // oldest | newest
	BackoffBase     time.Duration     `yaml:"backoffBase"`     // wait before the 2nd reconnection attempt
	BackoffCap      time.Duration     `yaml:"backoffCap"`      // ceiling for reconnection waits
	BackoffJitter   float64           `yaml:"backoffJitter"`   // 0..1, random extra fraction of each wait; 0 disables
	WriteBufferSize datasize.ByteSize `yaml:"writeBufferSize"` // socket write buffer; 0 keeps the OS default
}

// ApplyDefaults fills unspecified fields from defs defaults
func (cfg *Config) ApplyDefaults() {
	if cfg.MaxQueueSize == 0 {
		cfg.MaxQueueSize = defs.ForwarderQueueCapacity
	}
	if cfg.OverflowPolicy == "" {
		cfg.OverflowPolicy = DropOldest
	}
	if cfg.BackoffBase == 0 {
		cfg.BackoffBase = defs.ForwarderRetryBackoffBase
	}
	if cfg.BackoffCap == 0 {
		cfg.BackoffCap = defs.ForwarderRetryBackoffCap
	}
}

// Validate checks the configuration after defaults have been applied
func (cfg *Config) Validate() error {
	if cfg.Address == "" {
		return fmt.Errorf(".address is unspecified")
	}
	if _, _, err := net.SplitHostPort(cfg.Address); err != nil {
		return fmt.Errorf(".address: %w", err)
	}
	if cfg.MaxQueueSize < 1 {
		return fmt.Errorf(".maxQueueSize: must be positive, not %d", cfg.MaxQueueSize)
	}
	switch cfg.OverflowPolicy {
	case DropOldest, DropNewest:
	default:
		return fmt.Errorf(".overflowPolicy: unsupported '%s'", cfg.OverflowPolicy)
	}
	if cfg.BackoffBase <= 0 {
		return fmt.Errorf(".backoffBase: must be positive, not %s", cfg.BackoffBase)
	}
	if cfg.BackoffCap < cfg.BackoffBase {
		return fmt.Errorf(".backoffCap: must not be below .backoffBase %s", cfg.BackoffBase)
	}
	if cfg.BackoffJitter < 0 || cfg.BackoffJitter > 1 {
		return fmt.Errorf(".backoffJitter: must be within [0, 1], not %f", cfg.BackoffJitter)
	}
	return nil
}
