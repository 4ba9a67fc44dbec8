// Package rsync builds and runs rsync invocations against the backup
// system under test. The backup extension flags are passed through verbatim;
// their meaning belongs to the remote side.
package rsync

import (
	"strconv"
	"time"
)

// VersionLayout is the timestamp format accepted by --backup_version and
// --recovery_version.
const VersionLayout = "2006-01-02-15:04:05"

// RecoveryExclude keeps backup metadata directories out of restores.
const RecoveryExclude = "*.backup/"

// Options describes one rsync transfer.
type Options struct {
	Binary       string
	Source       string
	Destination  string
	PasswordFile string
	Port         int

	// Flags precede the source and destination. Defaults to -av.
	Flags    []string
	Stats    bool
	Excludes []string

	// Backup system extensions. Nil or empty values are omitted.
	BackupType       *int
	BackupVersionNum *int
	BackupVersion    string
	RecoveryVersion  string

	// Extra arguments appended after everything else.
	Extra []string
}

// Throttle wraps rsync in a bandwidth shaper.
type Throttle struct {
	Enabled bool
	Binary  string
	// Upload and Download are limits in KB/s. Zero omits the limit.
	Upload   int
	Download int
}

// Command is a fully described invocation.
type Command struct {
	Options  Options
	Throttle Throttle
}

// Int returns a pointer to v, for the optional integer options.
func Int(v int) *int {
	return &v
}

// Args returns the argv for the command. The first element is the program
// to execute.
func (c Command) Args() []string {
	var args []string

	if c.Throttle.Enabled {
		bin := c.Throttle.Binary
		if bin == "" {
			bin = "trickle"
		}
		args = append(args, bin, "-s")
		if c.Throttle.Upload > 0 {
			args = append(args, "-u", strconv.Itoa(c.Throttle.Upload))
		}
		if c.Throttle.Download > 0 {
			args = append(args, "-d", strconv.Itoa(c.Throttle.Download))
		}
	}

	o := c.Options
	bin := o.Binary
	if bin == "" {
		bin = "rsync"
	}
	args = append(args, bin)

	if o.Stats {
		args = append(args, "--stats")
	}

	flags := o.Flags
	if len(flags) == 0 {
		flags = []string{"-av"}
	}
	args = append(args, flags...)

	for _, ex := range o.Excludes {
		args = append(args, "--exclude="+ex)
	}

	args = append(args, o.Source, o.Destination)

	if o.PasswordFile != "" {
		args = append(args, "--password-file="+o.PasswordFile)
	}
	if o.Port > 0 {
		args = append(args, "--port="+strconv.Itoa(o.Port))
	}
	if o.BackupType != nil {
		args = append(args, "--backup_type="+strconv.Itoa(*o.BackupType))
	}
	if o.BackupVersionNum != nil {
		args = append(args, "--backup_version_num="+strconv.Itoa(*o.BackupVersionNum))
	}
	if o.BackupVersion != "" {
		args = append(args, "--backup_version="+o.BackupVersion)
	}
	if o.RecoveryVersion != "" {
		args = append(args, "--recovery_version="+o.RecoveryVersion)
	}

	return append(args, o.Extra...)
}

// VersionString formats t as a backup version.
func VersionString(t time.Time) string {
	return t.Format(VersionLayout)
}

// ParseVersion parses a backup version string in local time.
func ParseVersion(s string) (time.Time, error) {
	return time.ParseInLocation(VersionLayout, s, time.Local)
}

// Versions derives n successive versions starting at base, step apart.
func Versions(base time.Time, step time.Duration, n int) []string {
	out := make([]string, 0, max(n, 0))
	for i := 0; i < n; i++ {
		out = append(out, VersionString(base.Add(time.Duration(i)*step)))
	}
	return out
}
