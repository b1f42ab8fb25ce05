package orchestrator

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	wxcrypto "github.com/kenneth/wxapkg-restorer/internal/crypto"
)

const testHeaderOffset = 6

type testEntry struct {
	name string
	body []byte
}

// buildContainerBytes lays out a well-formed container buffer for the given
// entries, mirroring internal/container's binary layout.
func buildContainerBytes(entries []testEntry) []byte {
	var body []byte
	for _, e := range entries {
		body = append(body, e.body...)
	}

	buf := []byte{0xBE}
	buf = append(buf, u32(0)...)
	buf = append(buf, u32(0)...)
	buf = append(buf, u32(uint32(len(body)))...)
	buf = append(buf, 0xED)
	buf = append(buf, u32(uint32(len(entries)))...)

	headerLen := len(buf)
	indexLen := 0
	for _, e := range entries {
		indexLen += 4 + len(e.name) + 4 + 4
	}

	bodyBase := headerLen + indexLen
	running := bodyBase
	for _, e := range entries {
		buf = append(buf, u32(uint32(len(e.name)))...)
		buf = append(buf, []byte(e.name)...)
		buf = append(buf, u32(uint32(running))...)
		buf = append(buf, u32(uint32(len(e.body)))...)
		running += len(e.body)
	}
	buf = append(buf, body...)
	return buf
}

func u32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

// buildArchiveFile encrypts a container buffer into a valid .wxapkg byte
// stream under identifier, splitting it across the AES-CBC header and the
// XOR-keyed tail the way the real format does.
func buildArchiveFile(t *testing.T, identifier string, container []byte) []byte {
	t.Helper()

	// Pad the container so it exceeds the 1023 usable header bytes; the
	// extra zero tail is inert padding that Parse never reads past the
	// declared entries.
	for len(container) < wxcrypto.HeaderSize+64 {
		container = append(container, 0)
	}

	headerPlain := container[:wxcrypto.HeaderSize-1]
	tail := container[wxcrypto.HeaderSize-1:]

	padded := make([]byte, wxcrypto.HeaderSize)
	copy(padded, headerPlain)

	key := wxcrypto.DeriveKey(identifier)
	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatalf("aes.NewCipher: %v", err)
	}
	encHeader := make([]byte, wxcrypto.HeaderSize)
	cipher.NewCBCEncrypter(block, []byte(wxcrypto.IV)).CryptBlocks(encHeader, padded)

	mask, err := wxcrypto.XORMask(identifier)
	if err != nil {
		t.Fatalf("XORMask: %v", err)
	}
	encTail := make([]byte, len(tail))
	for i, b := range tail {
		encTail[i] = b ^ mask
	}

	raw := make([]byte, 0, testHeaderOffset+wxcrypto.HeaderSize+len(tail))
	raw = append(raw, make([]byte, testHeaderOffset)...)
	raw = append(raw, encHeader...)
	raw = append(raw, encTail...)
	return raw
}

func TestResolveIdentifier(t *testing.T) {
	id, err := ResolveIdentifier("/data/wx0123456789abcdef/app.wxapkg")
	if err != nil {
		t.Fatalf("ResolveIdentifier() error = %v", err)
	}
	if id != "wx0123456789abcdef" {
		t.Errorf("ResolveIdentifier() = %q", id)
	}
}

func TestResolveIdentifierMissing(t *testing.T) {
	if _, err := ResolveIdentifier("/data/nothing/app.wxapkg"); !errors.Is(err, ErrBadIdentifier) {
		t.Errorf("ResolveIdentifier() error = %v, want ErrBadIdentifier", err)
	}
}

func TestUnpackOneE1(t *testing.T) {
	identifier := "wx0123456789abcdef"
	container := buildContainerBytes([]testEntry{
		{name: "/app.json", body: []byte(`{"a":true}`)},
		{name: "/a/b.js", body: []byte("x=1")},
	})
	raw := buildArchiveFile(t, identifier, container)

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "app.wxapkg")
	if err := os.WriteFile(archivePath, raw, 0o644); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(dir, "out")

	result, err := UnpackOne(archivePath, identifier, outDir, Options{})
	if err != nil {
		t.Fatalf("UnpackOne() error = %v", err)
	}
	if result.FilesWritten != 2 {
		t.Errorf("FilesWritten = %d, want 2", result.FilesWritten)
	}
	if result.ExtensionCounts[".json"] != 1 || result.ExtensionCounts[".js"] != 1 {
		t.Errorf("ExtensionCounts = %+v", result.ExtensionCounts)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "app.json"))
	if err != nil {
		t.Fatalf("read app.json: %v", err)
	}
	if string(data) != `{"a":true}` {
		t.Errorf("app.json content = %q", data)
	}
}

func TestRunSingleArchiveBadArchive(t *testing.T) {
	identifier := "wx0123456789abcdef"
	raw := buildArchiveFile(t, identifier, buildContainerBytes([]testEntry{{name: "/x", body: []byte("y")}}))
	// Corrupt the first ciphertext byte of the header: under CBC this garbles
	// the whole first plaintext block, which holds both marks, so decryption
	// succeeds but parsing fails.
	raw[testHeaderOffset] ^= 0xFF

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "wx0123456789abcdef.wxapkg")
	if err := os.WriteFile(archivePath, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Run(archivePath, filepath.Join(dir, "out"), Options{Identifier: identifier})
	if err == nil {
		t.Fatal("Run() expected an error for a corrupted archive")
	}
}

func TestRunDirectoryModeContinuesPastBadArchive(t *testing.T) {
	identifier := "wx0123456789abcdef"
	good := buildArchiveFile(t, identifier, buildContainerBytes([]testEntry{{name: "/app.json", body: []byte(`{}`)}}))
	bad := buildArchiveFile(t, identifier, buildContainerBytes([]testEntry{{name: "/x", body: []byte("y")}}))
	bad[testHeaderOffset] ^= 0xFF

	root := t.TempDir()
	for _, sub := range []string{"wx0123456789abcdef", "wxfedcba9876543210"} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "wx0123456789abcdef", "app.wxapkg"), good, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "wxfedcba9876543210", "app.wxapkg"), bad, 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := Run(root, filepath.Join(t.TempDir(), "out"), Options{Identifier: identifier})
	if err != nil {
		t.Fatalf("Run() error = %v, want nil (BadArchive should not abort the run)", err)
	}
	if len(result.Archives) != 2 {
		t.Fatalf("len(Archives) = %d, want 2", len(result.Archives))
	}
	if result.FilesWritten != 1 {
		t.Errorf("FilesWritten = %d, want 1", result.FilesWritten)
	}
}

func TestFindArchivesMatchesCaseInsensitiveExtensionOnly(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"app.wxapkg", "other.WXAPKG", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(dir, "sub.wxapkg"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := findArchives(dir)
	if err != nil {
		t.Fatalf("findArchives() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("findArchives() = %v, want 2 matches", got)
	}
}

func TestUnpackOneBadIdentifierAbortsRun(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "app.wxapkg")
	if err := os.WriteFile(archivePath, make([]byte, 2000), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := UnpackOne(archivePath, "a", filepath.Join(dir, "out"), Options{})
	if !errors.Is(err, wxcrypto.ErrBadIdentifier) {
		t.Errorf("UnpackOne() error = %v, want ErrBadIdentifier", err)
	}
}
