package heap

import (
	"fmt"
	"log/slog"

	"github.com/joshuapare/heapkit/internal/logger"
	"github.com/joshuapare/heapkit/region"
)

const (
	// DefaultStartAddress is where the first region is requested.
	DefaultStartAddress uintptr = 0x04040000

	// DefaultMinRegionBytes is the floor for every region request (two 4KB pages).
	DefaultMinRegionBytes = 2 * 4096
)

// Config controls region sizing, placement and logging.
// Zero fields take their defaults in New.
type Config struct {
	// PageSize is the rounding granularity for region requests.
	// Default: the operating system page size.
	PageSize int

	// MinRegionBytes is the smallest region ever requested, so small
	// allocations still amortize a full mapping. Default: 8192.
	MinRegionBytes int

	// StartAddress is the preferred address of the first region.
	// Default: DefaultStartAddress.
	StartAddress uintptr

	// Provider maps memory. Default: region.NewOS().
	Provider region.Provider

	// Logger receives debug events about mapping and growth.
	// Default: logger.FromEnv() (silent unless HEAPKIT_LOG_ALLOC is set).
	Logger *slog.Logger
}

// DefaultConfig returns the configuration used when New receives a zero Config.
func DefaultConfig() Config {
	return Config{
		PageSize:       region.PageSize(),
		MinRegionBytes: DefaultMinRegionBytes,
		StartAddress:   DefaultStartAddress,
		Provider:       region.NewOS(),
		Logger:         logger.FromEnv(),
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.PageSize == 0 {
		c.PageSize = def.PageSize
	}
	if c.MinRegionBytes == 0 {
		c.MinRegionBytes = def.MinRegionBytes
	}
	if c.StartAddress == 0 {
		c.StartAddress = def.StartAddress
	}
	if c.Provider == nil {
		c.Provider = def.Provider
	}
	if c.Logger == nil {
		c.Logger = def.Logger
	}
	return c
}

// Geometry returns the region sizing rules of c.
func (c Config) Geometry() region.Geometry {
	return region.Geometry{PageSize: c.PageSize, MinRegionBytes: c.MinRegionBytes}
}

// Validate reports whether c, after defaults, can drive a heap.
func (c Config) Validate() error {
	if err := c.Geometry().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrBadConfig, err)
	}
	if c.MinRegionBytes < HeaderSize+MinPayload {
		return fmt.Errorf("%w: minimum region %d is smaller than one block (%d)",
			ErrBadConfig, c.MinRegionBytes, HeaderSize+MinPayload)
	}
	return nil
}
