package crypto

import "errors"

// ErrBadIdentifier is returned when an identifier cannot yield key material
// (too short to take a penultimate character, or empty).
var ErrBadIdentifier = errors.New("wxcrypto: bad identifier")

// ErrBadArchive is returned, before any decryption is attempted, when the
// archive buffer is too small to contain the fixed-size encrypted header.
var ErrBadArchive = errors.New("wxcrypto: bad archive")
