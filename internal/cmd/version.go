package cmd

// version is the release version, set at build time using -ldflags.
var version = "dev"

// Version returns the version string reported by the CLI and the HTTP API.
func Version() string {
	return version
}
