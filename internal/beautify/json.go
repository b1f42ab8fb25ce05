package beautify

import (
	"bytes"
	"encoding/json"
)

// JSON re-indents compact JSON to 2 spaces, preserving non-ASCII characters
// literally. There is no third-party JSON pretty-printer among the pack's
// dependencies, so this is the one transform built on the standard library;
// encoding/json's Encoder already does exactly what a formatter would.
func JSON(data []byte) ([]byte, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
