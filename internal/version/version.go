// Package version provides the build version, set via ldflags on release
// builds.
package version

// Version is the current ultragrid version.
var Version = "unknown"
