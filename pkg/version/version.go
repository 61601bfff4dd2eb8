// Package version holds the build metadata printed by `ebs version`. The
// variables are overridden at link time with -ldflags "-X".
package version

const (
	Name        = "ebs"
	Description = "Run and inspect ebscript programs"
)

var (
	Version   = "0.1.0-dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// String renders the one-line version banner.
func String() string {
	return Name + " " + Version + " (" + GitCommit + ", built " + BuildDate + ")"
}
