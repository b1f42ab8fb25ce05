package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// HeaderSize is the number of encrypted header bytes read from offset 6.
const HeaderSize = 1024

// headerOffset is where the encrypted header begins in the raw archive.
const headerOffset = 6

// Decrypt turns a raw .wxapkg buffer into its plaintext form.
//
// It decrypts the 1024-byte header starting at offset 6 with AES-256-CBC
// under the PBKDF2-derived key and the fixed IV (no padding is stripped;
// the block is not PKCS-padded at the protocol level), then XORs the
// remaining tail with the identifier's penultimate-byte mask. Per the
// original format, only the first 1023 of the 1024 decrypted header bytes
// are kept — the last byte is discarded. This is preserved verbatim for
// bit-exact compatibility; whether it is intentional is undocumented.
func Decrypt(raw []byte, identifier string) ([]byte, error) {
	if len(raw) < headerOffset+HeaderSize {
		return nil, fmt.Errorf("%w: archive too small (%d bytes)", ErrBadArchive, len(raw))
	}

	mask, err := XORMask(identifier)
	if err != nil {
		return nil, err
	}

	key := DeriveKey(identifier)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("wxcrypto: new cipher: %w", err)
	}

	encHeader := raw[headerOffset : headerOffset+HeaderSize]
	decHeader := make([]byte, HeaderSize)
	cbc := cipher.NewCBCDecrypter(block, []byte(IV))
	cbc.CryptBlocks(decHeader, encHeader)

	tail := raw[headerOffset+HeaderSize:]
	xored := make([]byte, len(tail))
	for i, b := range tail {
		xored[i] = b ^ mask
	}

	plaintext := make([]byte, 0, (HeaderSize-1)+len(xored))
	plaintext = append(plaintext, decHeader[:HeaderSize-1]...)
	plaintext = append(plaintext, xored...)
	return plaintext, nil
}
