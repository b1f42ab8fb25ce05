package beautify

import (
	"fmt"

	"github.com/evanw/esbuild/pkg/api"
)

// JS re-prints minified or compiled JavaScript with esbuild's transform
// pipeline in pretty-print mode: whitespace minification disabled, so the
// output gains line breaks and indentation without altering semantics.
func JS(data []byte) ([]byte, error) {
	result := api.Transform(string(data), api.TransformOptions{
		Loader:            api.LoaderJS,
		MinifyWhitespace:  false,
		MinifyIdentifiers: false,
		MinifySyntax:      false,
	})
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("beautify: esbuild transform: %s", result.Errors[0].Text)
	}
	return result.Code, nil
}
