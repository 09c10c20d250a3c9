// ABOUTME: Build and product identification
// ABOUTME: Logged at startup by every command
package version

const (
	// Version is the release of the link tools
	Version = "0.1.0"

	// Product names the tools in logs and mDNS records
	Product = "sbclink"

	// Manufacturer identifies the maintainers
	Manufacturer = "Sendspin"
)

// String returns the product and version, e.g. "sbclink 0.1.0"
func String() string {
	return Product + " " + Version
}
