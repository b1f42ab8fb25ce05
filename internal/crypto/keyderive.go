// Package crypto implements the wxapkg two-stage decryption: PBKDF2 key
// derivation followed by AES-CBC header decryption and an XOR-keyed tail.
package crypto

import (
	"crypto/sha1"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Salt is the fixed PBKDF2 salt used by every wxapkg archive.
	Salt = "saltiest"
	// IV is the fixed AES-CBC initialization vector, exactly 16 bytes.
	IV = "the iv: 16 bytes"
	// Iterations is the PBKDF2 iteration count.
	Iterations = 1000
	// KeyLength is the derived key length in bytes (AES-256).
	KeyLength = 32
)

// DeriveKey derives the 32-byte symmetric key for identifier using
// PBKDF2-HMAC-SHA1 with the fixed salt and iteration count above.
//
// No caching: callers that derive the same key repeatedly pay the PBKDF2
// cost each time, which is the teacher's documented tradeoff for KMS calls
// and holds here too — derivation is cheap relative to archive I/O.
func DeriveKey(identifier string) []byte {
	return pbkdf2.Key([]byte(identifier), []byte(Salt), Iterations, KeyLength, sha1.New)
}

// XORMask returns the single-byte XOR mask derived from the identifier's
// penultimate character. Returns an error if identifier has fewer than 2
// characters, since there is no penultimate character to take.
func XORMask(identifier string) (byte, error) {
	if len(identifier) < 2 {
		return 0, ErrBadIdentifier
	}
	return identifier[len(identifier)-2], nil
}
