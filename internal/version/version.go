package version

// Set at build time via -ldflags, e.g.
// go build -ldflags "-X github.com/keywarden/keywarden/internal/version.Version=v0.2.0"
var (
	// Version is the semantic version of the application
	Version = "dev"

	// Commit is the git commit hash
	Commit = "none"
)
