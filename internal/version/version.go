// ABOUTME: Version and product identification
// ABOUTME: Reported in bridge handshakes, mDNS records and CLI output
package version

// Version is overridden at build time with -ldflags "-X .../internal/version.Version=..."
var Version = "0.3.0"

const (
	// Product is the product name reported to control clients
	Product = "audioengine-go"

	// Manufacturer is reported alongside Product
	Manufacturer = "Resonate"
)

// String returns "product version"
func String() string {
	return Product + " " + Version
}
