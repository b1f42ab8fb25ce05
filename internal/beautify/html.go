package beautify

import (
	"bytes"
	"strings"

	"github.com/yosssi/gohtml"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTML pretty-prints an HTML document with gohtml, after re-pretty-printing
// the contents of every embedded <script> element in place so compiled page
// scripts inside page-frame.html are not left as a single minified line.
func HTML(data []byte) ([]byte, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Script && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
			if pretty, jerr := JS([]byte(n.FirstChild.Data)); jerr == nil {
				n.FirstChild.Data = string(pretty)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, err
	}
	return []byte(strings.TrimRight(gohtml.Format(buf.String()), "\n")), nil
}
