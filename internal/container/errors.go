package container

import "errors"

// ErrBadArchive is returned whenever the plaintext buffer does not conform
// to the container layout: mark mismatch, oversized name length, truncation,
// or an entry whose offset/size falls outside the buffer.
var ErrBadArchive = errors.New("container: bad archive")
