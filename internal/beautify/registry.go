// Package beautify pretty-prints the file kinds the extraction pipeline
// writes to disk: JSON configs, JavaScript bundles, and HTML shells.
package beautify

// Transform has the same signature as internal/container's Transform, but
// the two are distinct named types, so callers wrap each registry entry
// before handing it to container.ExtractOptions.
type Transform func([]byte) ([]byte, error)

// DefaultRegistry returns the extension-to-transform map wired into the
// extraction pipeline by default: .json, .js, and .html.
func DefaultRegistry() map[string]Transform {
	return map[string]Transform{
		".json": JSON,
		".js":   JS,
		".html": HTML,
	}
}
