// Package config provides configuration management for syncbench.
package config

import "time"

// Default configuration values for syncbench.
const (
	// DefaultRsyncBinary is the rsync executable to invoke.
	DefaultRsyncBinary = "rsync"

	// DefaultRsyncPort is the rsync daemon port.
	DefaultRsyncPort = 873

	// DefaultThrottleBinary is the bandwidth shaper wrapping rsync.
	DefaultThrottleBinary = "trickle"

	// DefaultBackupType is passed as --backup_type (0 full, 1 incremental).
	DefaultBackupType = 0

	// DefaultBackupVersionNum is passed as --backup_version_num.
	DefaultBackupVersionNum = 5

	// DefaultVersionStep separates derived per-round backup versions.
	DefaultVersionStep = 10 * time.Minute

	// DefaultDataRoot is where generated test data is written.
	DefaultDataRoot = "./backup_test_data"

	// DefaultResultsDir is where transfer CSVs are written.
	DefaultResultsDir = "./results"

	// DefaultFileCount is the number of files generated per ladder step.
	DefaultFileCount = 20

	// DefaultLadderStart is the smallest ladder step in units.
	DefaultLadderStart = 1

	// DefaultLadderFactor multiplies the unit count between steps.
	DefaultLadderFactor = 2

	// DefaultLadderSteps is the number of ladder steps.
	DefaultLadderSteps = 15

	// DefaultLadderStyle names ladder directories "<n>k".
	DefaultLadderStyle = "k"

	// DefaultRounds is the number of delta/recovery rounds.
	DefaultRounds = 3

	// DefaultGrowPercent is the incremental growth applied between rounds.
	DefaultGrowPercent = 10.0

	// DefaultTrafficInterval is the traffic sampler's polling quantum.
	DefaultTrafficInterval = time.Second

	// DefaultTrafficYMax is the upper y limit of traffic plots in MB/s.
	DefaultTrafficYMax = 2.0

	// DefaultMonitorInterval is the stdin poll timeout between resource samples.
	DefaultMonitorInterval = 100 * time.Millisecond

	// DefaultRetentionDays is how long history entries are kept.
	DefaultRetentionDays = 30
)

// DefaultRsyncFlags are the transfer flags placed before source and destination.
var DefaultRsyncFlags = []string{"-av"}
