package wxss

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/kenneth/wxapkg-restorer/internal/tokenize"
)

const defaultDeviceWidth = 375

var (
	setCSSPattern = regexp.MustCompile(
		`(?s)setCssToHead\s*\(\s*\[\s*["']([^"']+)["']\s*\]\s*,\s*(\[(?:[^\[\]]|\[[^\]]*\])*\])\s*(?:,\s*(\d+))?\s*\)`,
	)
	appCodePattern = regexp.MustCompile(
		`(?s)__wxAppCode__\s*\[\s*["']([^"']+\.wxss)["']\s*\]\s*=\s*setCssToHead\s*\(\s*(\[(?:[^\[\]]|\[[^\]]*\])*\])\s*(?:,\s*(\d+))?\s*\)`,
	)
	styleTagPattern = regexp.MustCompile(`(?is)<style[^>]*>(.*?)</style>`)
)

// Restorer reconstructs .wxss files from an unpacked wxapkg tree.
type Restorer struct {
	baseDir string
	styles  map[string]*Style
	order   []string
}

// New creates a Restorer rooted at the given unpacked tree.
func New(baseDir string) *Restorer {
	return &Restorer{baseDir: baseDir, styles: make(map[string]*Style)}
}

// Restore scans page-frame.html, app-wxss.js, and every *.wxss file under
// baseDir, returning the restored {logical path: css text} map.
func (r *Restorer) Restore() (map[string]string, error) {
	if content, err := readIfExists(filepath.Join(r.baseDir, "page-frame.html")); err == nil && content != "" {
		r.extractFromPageFrame(content)
	}
	if content, err := readIfExists(filepath.Join(r.baseDir, "app-wxss.js")); err == nil && content != "" {
		r.extractSetCSSCalls(content)
	}
	if err := r.scanWxssFiles(); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(r.styles))
	for path, s := range r.styles {
		out[path] = s.Content
	}
	return out, nil
}

func (r *Restorer) extractFromPageFrame(content string) {
	for _, m := range styleTagPattern.FindAllStringSubmatch(content, -1) {
		css := strings.TrimSpace(m[1])
		if css != "" {
			r.addStyle("app.wxss", css, true)
		}
	}
	r.extractSetCSSCalls(content)
}

func (r *Restorer) extractSetCSSCalls(content string) {
	for _, m := range setCSSPattern.FindAllStringSubmatch(content, -1) {
		path, arrayStr, widthStr := m[1], m[2], m[3]
		css := r.decodeStyleArray(arrayStr, parseDeviceWidth(widthStr))
		if css != "" {
			r.addStyle(path, css, false)
		}
	}
	for _, m := range appCodePattern.FindAllStringSubmatch(content, -1) {
		path, arrayStr, widthStr := m[1], m[2], m[3]
		css := r.decodeStyleArray(arrayStr, parseDeviceWidth(widthStr))
		if css != "" {
			r.addStyle(path, css, false)
		}
	}
}

func parseDeviceWidth(s string) int {
	if s == "" {
		return defaultDeviceWidth
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return defaultDeviceWidth
}

// decodeStyleArray decodes a setCssToHead element array into CSS text.
// deviceWidth is captured from the call site but not used: rpx values are
// always emitted with the literal rpx unit, matching the reference restorer.
func (r *Restorer) decodeStyleArray(arrayStr string, deviceWidth int) string {
	_ = deviceWidth
	var b strings.Builder
	for _, tok := range tokenize.Elements(arrayStr) {
		if frag, ok := decodeElement(tok); ok {
			b.WriteString(frag)
		}
	}
	return b.String()
}

// decodeElement decodes one top-level token of a style array: a responsive
// unit tuple [t, v], or a quoted string literal. Any other token shape is
// ignored.
func decodeElement(tok string) (string, bool) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return "", false
	}

	if tok[0] == '"' || tok[0] == '\'' {
		return tokenize.UnquoteString(tok), true
	}

	if tok[0] == '[' && tok[len(tok)-1] == ']' {
		parts := tokenize.Elements(tok)
		if len(parts) != 2 {
			return "", false
		}
		typ := tokenize.UnquoteString(strings.TrimSpace(parts[0]))
		val := tokenize.UnquoteString(strings.TrimSpace(parts[1]))
		switch typ {
		case "0":
			return val + "rpx", true
		case "1":
			return val, true
		default:
			return "", false
		}
	}

	return "", false
}

func (r *Restorer) scanWxssFiles() error {
	return filepath.WalkDir(r.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // best-effort scan, consistent with the reference restorer
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".wxss") {
			return nil
		}
		content, rerr := readIfExists(path)
		if rerr != nil {
			return nil
		}
		rel, rerr := filepath.Rel(r.baseDir, path)
		if rerr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if strings.Contains(content, "setCssToHead") {
			r.extractSetCSSCalls(content)
		} else {
			r.addStyle(rel, content, false)
		}
		return nil
	})
}

// addStyle merges content into the record at path, concatenating later
// content after earlier with a newline separator when path repeats.
func (r *Restorer) addStyle(path string, content string, isGlobal bool) {
	path = filepath.ToSlash(path)
	if !strings.HasSuffix(path, ".wxss") {
		path += ".wxss"
	}
	content = formatCSS(content)

	if existing, ok := r.styles[path]; ok {
		existing.Content += "\n" + content
		return
	}
	r.styles[path] = &Style{Path: path, Content: content, IsGlobal: isGlobal}
	r.order = append(r.order, path)
}

var (
	openBracePattern = regexp.MustCompile(`\s*\{\s*`)
	closeBracePattern = regexp.MustCompile(`\s*\}\s*`)
	semicolonPattern  = regexp.MustCompile(`;\s*`)
	blankLinePattern  = regexp.MustCompile(`\n\s*\n`)
)

// formatCSS applies the minimal pretty pass from the spec: '{' becomes
// " {\n  ", '}' becomes "\n}\n", ';' becomes ";\n  ", and consecutive blank
// lines collapse.
func formatCSS(css string) string {
	css = strings.TrimSpace(css)
	css = openBracePattern.ReplaceAllString(css, " {\n  ")
	css = closeBracePattern.ReplaceAllString(css, "\n}\n")
	css = semicolonPattern.ReplaceAllString(css, ";\n  ")
	css = blankLinePattern.ReplaceAllString(css, "\n")
	return strings.TrimSpace(css)
}

// Save writes every restored stylesheet under outputDir, returning the
// number of files written.
func (r *Restorer) Save(outputDir string) (int, error) {
	count := 0
	for _, path := range r.order {
		s := r.styles[path]
		dest := filepath.Join(outputDir, filepath.FromSlash(s.Path))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return count, err
		}
		if err := os.WriteFile(dest, []byte(s.Content), 0o644); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func readIfExists(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
