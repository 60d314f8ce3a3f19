// Package version holds build information for ecomapi.
package version

// Overridden at build time:
// go build -ldflags "-X ecomapi/internal/version.Version=1.0.0 -X ecomapi/internal/version.Commit=abc123"
var (
	// Version is the semantic version of ecomapi
	Version = "1.2.0"

	// Commit is the git commit hash (set at build time)
	Commit = "unknown"

	// BuildDate is the build timestamp (set at build time)
	BuildDate = "unknown"
)

// Info returns a short version string, with the abbreviated commit when known.
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns complete version information
func Full() string {
	return "ecomapi version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate
}
