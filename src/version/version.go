// Package version stamps the tool's release version into sketch
// run-info sidecars, so a sketch can be traced back to the build that
// produced it.
package version

import "fmt"

const (
	major = 0
	minor = 1
	patch = 0
)

// GetVersion returns the full version string.
func GetVersion() string {
	return fmt.Sprintf("%d.%d.%d", major, minor, patch)
}

// GetBaseVersion returns the major.minor version string.
func GetBaseVersion() string {
	return fmt.Sprintf("%d.%d", major, minor)
}
