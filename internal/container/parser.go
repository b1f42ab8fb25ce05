package container

import (
	"encoding/binary"
	"fmt"
)

// minHeaderSize is the fixed-size prefix before the entry table:
// 1 (first_mark) + 4 (info1) + 4 (index_len) + 4 (body_len) + 1 (last_mark) + 4 (entry_count).
const minHeaderSize = 1 + 4 + 4 + 4 + 1 + 4

// Parse reads the container layout from the start of plaintext and returns
// its entry table. Entry offsets are absolute within plaintext. Parse fails
// with ErrBadArchive on mark mismatch, an oversized name length, or
// truncation before every declared field is read.
func Parse(plaintext []byte) ([]Entry, Header, error) {
	var hdr Header

	if len(plaintext) < minHeaderSize {
		return nil, hdr, fmt.Errorf("%w: truncated header (%d bytes)", ErrBadArchive, len(plaintext))
	}

	off := 0
	hdr.FirstMark = plaintext[off]
	off++

	hdr.Info1 = binary.BigEndian.Uint32(plaintext[off : off+4])
	off += 4

	hdr.IndexLen = binary.BigEndian.Uint32(plaintext[off : off+4])
	off += 4

	hdr.BodyLen = binary.BigEndian.Uint32(plaintext[off : off+4])
	off += 4

	hdr.LastMark = plaintext[off]
	off++

	if hdr.FirstMark != FirstMark || hdr.LastMark != LastMark {
		return nil, hdr, fmt.Errorf("%w: mark mismatch (first=%#x last=%#x)", ErrBadArchive, hdr.FirstMark, hdr.LastMark)
	}

	if len(plaintext) < off+4 {
		return nil, hdr, fmt.Errorf("%w: truncated entry count", ErrBadArchive)
	}
	entryCount := binary.BigEndian.Uint32(plaintext[off : off+4])
	off += 4

	entries := make([]Entry, 0, entryCount)
	for i := uint32(0); i < entryCount; i++ {
		if len(plaintext) < off+4 {
			return nil, hdr, fmt.Errorf("%w: truncated entry %d name length", ErrBadArchive, i)
		}
		nameLen := binary.BigEndian.Uint32(plaintext[off : off+4])
		off += 4

		if nameLen > MaxNameLength {
			return nil, hdr, fmt.Errorf("%w: entry %d name length %d exceeds max", ErrBadArchive, i, nameLen)
		}
		if len(plaintext) < off+int(nameLen) {
			return nil, hdr, fmt.Errorf("%w: truncated entry %d name", ErrBadArchive, i)
		}
		name := string(plaintext[off : off+int(nameLen)])
		off += int(nameLen)

		if len(plaintext) < off+8 {
			return nil, hdr, fmt.Errorf("%w: truncated entry %d offset/size", ErrBadArchive, i)
		}
		entryOffset := binary.BigEndian.Uint32(plaintext[off : off+4])
		off += 4
		entrySize := binary.BigEndian.Uint32(plaintext[off : off+4])
		off += 4

		if uint64(entryOffset)+uint64(entrySize) > uint64(len(plaintext)) {
			return nil, hdr, fmt.Errorf("%w: entry %d (%s) offset+size exceeds plaintext length", ErrBadArchive, i, name)
		}

		entries = append(entries, Entry{Name: name, Offset: entryOffset, Size: entrySize})
	}

	return entries, hdr, nil
}
