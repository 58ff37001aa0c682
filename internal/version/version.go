// Package version carries build identification, set at link time via
// -ldflags "-X github.com/smartspeed/speedguard/internal/version.Version=...".
package version

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String renders the build identification for logs and status reports.
func String() string {
	return Version + " (" + GitSHA + ", built " + BuildTime + ")"
}
