// Package version provides build and version information for Compass.
package version

// Version is the current compass version.
// Overridden at build time via -ldflags "-X github.com/tagconcierge/compass/pkg/version.Version=...".
var Version = "1.0.0-dev"
