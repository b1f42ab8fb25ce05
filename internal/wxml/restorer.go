package wxml

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kenneth/wxapkg-restorer/internal/tokenize"
)

var (
	gwxPattern = regexp.MustCompile(`\$gwx\s*\(\s*["']([^"']+\.wxml)["']\s*\)`)

	appCodeWxmlPattern = regexp.MustCompile(
		`__wxAppCode__\s*\[\s*["']([^"']+\.wxml)["']\s*\]\s*=\s*\$gwx\s*\(`,
	)

	zPushPattern = regexp.MustCompile(`(?s)z\.push\s*\(\s*(\[.*?\])\s*\)\s*;?`)

	literalTagPattern = regexp.MustCompile(
		`(?is)['"](<[a-z][a-z0-9-]*[^>]*>.*?</[a-z0-9-]+>)['"]`,
	)
)

var knownTags = map[string]bool{
	"view": true, "text": true, "image": true, "button": true, "input": true,
	"scroll-view": true, "swiper": true, "swiper-item": true, "icon": true,
	"navigator": true, "form": true, "checkbox": true, "radio": true,
	"picker": true, "slider": true, "switch": true, "textarea": true,
	"video": true, "audio": true, "map": true, "canvas": true, "block": true,
	"template": true, "import": true, "include": true, "wxs": true,
}

// Restorer reconstructs .wxml files from an unpacked wxapkg tree.
type Restorer struct {
	baseDir   string
	templates map[string]string
	order     []string
}

// New creates a Restorer rooted at the given unpacked tree.
func New(baseDir string) *Restorer {
	return &Restorer{baseDir: baseDir, templates: make(map[string]string)}
}

// Restore scans existing *.wxml files, app-service.js, page-frame.html, and
// every other *.js file, returning the restored {logical path: wxml} map.
func (r *Restorer) Restore() (map[string]string, error) {
	if err := r.scanWxmlFiles(); err != nil {
		return nil, err
	}

	if content, err := readIfExists(filepath.Join(r.baseDir, "app-service.js")); err == nil && content != "" {
		r.extractFromSource(content)
	}
	if content, err := readIfExists(filepath.Join(r.baseDir, "page-frame.html")); err == nil && content != "" {
		r.extractFromSource(content)
	}
	if err := r.scanPageScripts(); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(r.templates))
	for path, content := range r.templates {
		out[path] = content
	}
	return out, nil
}

func (r *Restorer) scanWxmlFiles() error {
	return filepath.WalkDir(r.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // best-effort scan
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".wxml") {
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

		if isCompiled(content) {
			if restored := r.restoreFromCompiled(content); restored != "" {
				r.setTemplate(rel, restored)
			}
		} else {
			r.setTemplate(rel, content)
		}
		return nil
	})
}

func (r *Restorer) scanPageScripts() error {
	return filepath.WalkDir(r.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // best-effort scan
		}
		name := filepath.Base(path)
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".js") {
			return nil
		}
		if name == "app-service.js" || name == "app-wxss.js" {
			return nil
		}
		content, rerr := readIfExists(path)
		if rerr != nil {
			return nil
		}
		if !strings.Contains(content, "z.push") && !strings.Contains(content, "$gwx") {
			return nil
		}
		rel, rerr := filepath.Rel(r.baseDir, path)
		if rerr != nil {
			return nil
		}
		wxmlPath := strings.TrimSuffix(filepath.ToSlash(rel), ".js") + ".wxml"
		if restored := r.restoreFromCompiled(content); restored != "" {
			r.setTemplate(wxmlPath, restored)
		}
		return nil
	})
}

// isCompiled mirrors the reference detection rule: content that does not
// open with '<', or mentions the z-array buffer or $gwx, is compiled.
func isCompiled(content string) bool {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "<") {
		return true
	}
	if strings.Contains(content, "var z=") || strings.Contains(content, "z.push") {
		return true
	}
	return strings.Contains(content, "$gwx")
}

type marker struct {
	path string
	pos  int
}

// extractFromSource attributes z.push entries found between one logical-path
// marker and the next to that marker's path, matching the reference
// restorer's proximity-based association.
func (r *Restorer) extractFromSource(content string) {
	var markers []marker
	seen := make(map[int]bool)

	for _, m := range appCodeWxmlPattern.FindAllStringSubmatchIndex(content, -1) {
		if !seen[m[0]] {
			markers = append(markers, marker{path: content[m[2]:m[3]], pos: m[1]})
			seen[m[0]] = true
		}
	}
	for _, m := range gwxPattern.FindAllStringSubmatchIndex(content, -1) {
		if !seen[m[0]] {
			markers = append(markers, marker{path: content[m[2]:m[3]], pos: m[1]})
			seen[m[0]] = true
		}
	}
	sort.Slice(markers, func(i, j int) bool { return markers[i].pos < markers[j].pos })

	for i, mk := range markers {
		end := len(content)
		if i+1 < len(markers) {
			end = markers[i+1].pos
		}
		segment := content[mk.pos:end]
		if restored := r.restoreFromCompiled(segment); restored != "" {
			r.setTemplate(mk.path, restored)
		}
	}
}

func (r *Restorer) restoreFromCompiled(content string) string {
	var nodes []*Node
	for _, m := range zPushPattern.FindAllStringSubmatch(content, -1) {
		if node := decodeZPushArray(m[1]); node != nil {
			nodes = append(nodes, node)
		}
	}
	if len(nodes) == 0 {
		return restoreFromLiteralTags(content)
	}

	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(n.Render(0))
	}
	return strings.TrimSpace(b.String())
}

// decodeZPushArray decodes one z.push([...]) argument into a node: the first
// element is the tag, a bracketed second element is the flat
// [key,value,key,value,...] attribute list, and the rest are children.
func decodeZPushArray(arrayStr string) *Node {
	parts := tokenize.Elements(arrayStr)
	if len(parts) == 0 {
		return nil
	}

	tag := tokenize.UnquoteString(strings.TrimSpace(parts[0]))
	if tag == "" || isNumeric(tag) {
		return nil
	}
	node := &Node{Tag: tag}

	rest := parts[1:]
	if len(rest) > 0 {
		first := strings.TrimSpace(rest[0])
		if strings.HasPrefix(first, "[") && strings.HasSuffix(first, "]") {
			node.Attrs = decodeAttrs(first)
			rest = rest[1:]
		}
	}

	for _, tok := range rest {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if strings.HasPrefix(tok, "[") && strings.HasSuffix(tok, "]") {
			if child := decodeZPushArray(tok); child != nil {
				node.Children = append(node.Children, child)
				continue
			}
			node.Children = append(node.Children, strings.Trim(tok, "[]"))
			continue
		}
		if tok[0] == '"' || tok[0] == '\'' {
			node.Children = append(node.Children, tokenize.UnquoteString(tok))
		}
	}

	return node
}

// decodeAttrs decodes a flat [key,value,key,value,...] token list into
// Attrs. A raw, unquoted true token (the boolean-attribute marker emitted by
// the compiler for e.g. disabled/checked) is distinguished from the quoted
// string "true" before UnquoteString strips quoting, since both collapse to
// the identical Go string afterward.
func decodeAttrs(arrayStr string) []Attr {
	elems := tokenize.Elements(arrayStr)
	var attrs []Attr
	for i := 0; i+1 < len(elems); i += 2 {
		key := tokenize.UnquoteString(strings.TrimSpace(elems[i]))
		rawValue := strings.TrimSpace(elems[i+1])
		if key == "" {
			continue
		}
		if rawValue == "true" {
			attrs = append(attrs, Attr{Key: key, Value: "true", Boolean: true})
			continue
		}
		attrs = append(attrs, Attr{Key: key, Value: tokenize.UnquoteString(rawValue)})
	}
	return attrs
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// restoreFromLiteralTags is the fallback path: quoted '<tag ...>...</tag>'
// substrings whose tag is a known wxml element.
func restoreFromLiteralTags(content string) string {
	var tags []string
	for _, m := range literalTagPattern.FindAllStringSubmatch(content, -1) {
		if isKnownTagLiteral(m[1]) {
			tags = append(tags, m[1])
		}
	}
	return strings.Join(tags, "\n")
}

func isKnownTagLiteral(tag string) bool {
	name := strings.TrimPrefix(strings.ToLower(tag), "<")
	if i := strings.IndexAny(name, " \t\r\n/>"); i >= 0 {
		name = name[:i]
	}
	return knownTags[name]
}

func (r *Restorer) setTemplate(path string, content string) {
	if _, exists := r.templates[path]; exists {
		return
	}
	r.templates[path] = content
	r.order = append(r.order, path)
}

// Save writes every restored template under outputDir, returning the number
// of files written.
func (r *Restorer) Save(outputDir string) (int, error) {
	count := 0
	for _, path := range r.order {
		dest := filepath.Join(outputDir, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return count, err
		}
		if err := os.WriteFile(dest, []byte(r.templates[path]), 0o644); err != nil {
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
