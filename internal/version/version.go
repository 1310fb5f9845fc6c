// ABOUTME: Version information for the mixer
// ABOUTME: Product identity reported by the CLI and mDNS preview announcements
package version

const (
	// Version is the release of this build
	Version = "0.3.0"

	// Product is the human-readable product name
	Product = "Resonate Mixer"

	// Manufacturer identifies the maker
	Manufacturer = "Resonate"
)

// Short returns a one-line version string
func Short() string {
	return Product + " " + Version
}
