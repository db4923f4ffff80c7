package cleanup

import (
	"time"

	"github.com/VendorLens/vendorlens-go/pkg/config"
)

// Config holds cleanup worker configuration, sourced from the central config package.
type Config struct {
	CleanupInterval  time.Duration
	VerboseReporting bool
	StalenessWindow  time.Duration
	MountStateTTL    time.Duration
	MaxSessions      int
}

// NewConfig creates a new cleanup configuration by reading values
// from the already-initialized variables in the centralized /pkg/config package.
func NewConfig() *Config {
	return &Config{
		CleanupInterval:  config.CleanupInterval,
		VerboseReporting: config.CleanupVerbose,
		StalenessWindow:  config.SnapshotStalenessWindow,
		MountStateTTL:    config.MountStateTTL,
		MaxSessions:      config.MaxSessions,
	}
}
