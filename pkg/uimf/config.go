package uimf

import "time"

// Config holds the tunables for a Reader/Writer pair against one file. All
// fields have sensible defaults, so passing Config is optional.
type Config struct {
	// SpectrumCacheSoftCap bounds the number of cached per-frame-range
	// spectrum entries (spec.md §4.E spectrum cache, default 10).
	SpectrumCacheSoftCap int

	// SpectrumCacheHardCapBytes bounds the estimated memory used by the
	// spectrum cache (spec.md §4.E, default 750MB).
	SpectrumCacheHardCapBytes int64

	// MaxOpenConnections caps the sqlite3 connection pool. sqlite does not
	// multiplex writers, so this is normally left at 1.
	MaxOpenConnections int

	// ConnectionMaxLifetime bounds how long a pooled connection is reused.
	ConnectionMaxLifetime time.Duration

	// BinCentricPartitionSize is the number of adjacent bins grouped into
	// one partition (one partition_base value in the sidecar's single
	// entries table) during the bin-centric build (spec.md §4.F, default 200). A tuning parameter, not a file-format constant.
	BinCentricPartitionSize int
}

// DefaultConfig returns the default tunables, matching spec.md's stated
// defaults for the spectrum cache and the bin-centric builder.
func DefaultConfig() *Config {
	return &Config{
		SpectrumCacheSoftCap:      10,
		SpectrumCacheHardCapBytes: 750 * 1024 * 1024,
		MaxOpenConnections:        1,
		ConnectionMaxLifetime:     time.Hour,
		BinCentricPartitionSize:   200,
	}
}

// cfg is the package-level configuration instance, overridable via SetConfig
// before any Reader/Writer is opened.
var cfg = DefaultConfig()

// SetConfig overrides the package-level defaults. Must be called before
// OpenRead/OpenWrite for it to take effect on new handles.
func SetConfig(c *Config) {
	if c != nil {
		cfg = c
	}
}

// GetConfig returns the current package-level configuration.
func GetConfig() *Config {
	return cfg
}
