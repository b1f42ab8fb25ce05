package container

import (
	"encoding/binary"
	"testing"
)

// buildContainer assembles a well-formed plaintext buffer for the given
// entries, where body holds the concatenated entry bytes in order.
func buildContainer(t *testing.T, names []string, bodies [][]byte) []byte {
	t.Helper()

	var body []byte
	entries := make([]Entry, len(names))
	for i, name := range names {
		entries[i] = Entry{Name: name, Offset: 0, Size: uint32(len(bodies[i]))}
		body = append(body, bodies[i]...)
	}

	buf := []byte{FirstMark}
	buf = append(buf, u32(0)...)          // info1
	buf = append(buf, u32(0)...)          // index_len (unused by Parse)
	buf = append(buf, u32(uint32(len(body)))...) // body_len (unused by Parse)
	buf = append(buf, LastMark)
	buf = append(buf, u32(uint32(len(entries)))...)

	headerLen := len(buf)
	// Compute each entry's absolute offset once we know where the body starts.
	// First lay out entry index to discover its length, then patch offsets.
	type laidOut struct {
		nameBytes []byte
		size      uint32
	}
	laid := make([]laidOut, len(entries))
	indexLen := 0
	for i, e := range entries {
		nb := []byte(e.Name)
		laid[i] = laidOut{nameBytes: nb, size: e.Size}
		indexLen += 4 + len(nb) + 4 + 4
	}

	bodyBase := headerLen + indexLen
	runningOffset := bodyBase
	for i := range entries {
		buf = append(buf, u32(uint32(len(laid[i].nameBytes)))...)
		buf = append(buf, laid[i].nameBytes...)
		buf = append(buf, u32(uint32(runningOffset))...)
		buf = append(buf, u32(laid[i].size)...)
		runningOffset += int(laid[i].size)
	}

	buf = append(buf, body...)
	return buf
}

func u32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func TestParseRoundTrip(t *testing.T) {
	buf := buildContainer(t, []string{"/app.json", "/a/b.js"}, [][]byte{
		[]byte(`{"a":true}`),
		[]byte("x=1"),
	})

	entries, hdr, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if hdr.FirstMark != FirstMark || hdr.LastMark != LastMark {
		t.Fatalf("unexpected marks: first=%#x last=%#x", hdr.FirstMark, hdr.LastMark)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Name != "/app.json" || entries[1].Name != "/a/b.js" {
		t.Fatalf("unexpected entry names: %+v", entries)
	}
	for _, e := range entries {
		if uint64(e.Offset)+uint64(e.Size) > uint64(len(buf)) {
			t.Errorf("entry %s violates offset containment", e.Name)
		}
	}
}

func TestParseFlippedLastMark(t *testing.T) {
	buf := buildContainer(t, []string{"/x"}, [][]byte{[]byte("y")})

	// last_mark sits right after the three u32 length fields, following first_mark.
	lastMarkIdx := 1 + 4 + 4 + 4
	buf[lastMarkIdx] = 0xEC

	if _, _, err := Parse(buf); err == nil {
		t.Fatal("Parse() expected error for flipped last_mark, got nil")
	}
}

func TestParseFlippedFirstMark(t *testing.T) {
	buf := buildContainer(t, []string{"/x"}, [][]byte{[]byte("y")})
	buf[0] = 0xBF

	if _, _, err := Parse(buf); err == nil {
		t.Fatal("Parse() expected error for flipped first_mark, got nil")
	}
}

func TestParseOversizedNameLength(t *testing.T) {
	buf := buildContainer(t, []string{"/x"}, [][]byte{[]byte("y")})

	// Patch the first entry's name_len field (right after the fixed header) to
	// exceed MaxNameLength.
	nameLenIdx := minHeaderSize
	binary.BigEndian.PutUint32(buf[nameLenIdx:], MaxNameLength+1)

	if _, _, err := Parse(buf); err == nil {
		t.Fatal("Parse() expected error for oversized name length, got nil")
	}
}

func TestParseTruncated(t *testing.T) {
	buf := buildContainer(t, []string{"/app.json"}, [][]byte{[]byte(`{"a":true}`)})
	truncated := buf[:len(buf)-3]

	if _, _, err := Parse(truncated); err == nil {
		t.Fatal("Parse() expected error for truncated buffer, got nil")
	}
}

func TestParseOffsetOverflow(t *testing.T) {
	buf := buildContainer(t, []string{"/x"}, [][]byte{[]byte("y")})

	// Find the offset field of the single entry and push it past the buffer.
	nameLenIdx := minHeaderSize
	nameLen := binary.BigEndian.Uint32(buf[nameLenIdx:])
	offsetIdx := nameLenIdx + 4 + int(nameLen)
	binary.BigEndian.PutUint32(buf[offsetIdx:], uint32(len(buf))+100)

	if _, _, err := Parse(buf); err == nil {
		t.Fatal("Parse() expected error for out-of-range offset, got nil")
	}
}
