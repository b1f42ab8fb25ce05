// Package wxss reverses the compiled style representation emitted by the
// wxapkg build toolchain: interleaved literal/responsive-unit tuples passed
// to a runtime setCssToHead call, reassembled into textual style sheets.
package wxss

// Style is one restored stylesheet, keyed by its logical path (always
// ending in .wxss).
type Style struct {
	Path    string
	Content string
	// IsGlobal marks content attributed to app.wxss via an inline <style>
	// block in page-frame.html.
	IsGlobal bool
}
