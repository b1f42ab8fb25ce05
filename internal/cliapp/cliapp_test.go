package cliapp

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"github.com/kenneth/wxapkg-restorer/internal/config"
	"github.com/kenneth/wxapkg-restorer/internal/container"
	"github.com/kenneth/wxapkg-restorer/internal/crypto"
)

func TestExitCodeFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", crypto.ErrBadIdentifier), 1},
		{fmt.Errorf("wrap: %w", crypto.ErrBadArchive), 2},
		{fmt.Errorf("wrap: %w", container.ErrBadArchive), 2},
		{fmt.Errorf("some other failure"), 3},
	}
	for _, tc := range cases {
		if got := exitCodeFor(tc.err); got != tc.want {
			t.Errorf("exitCodeFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestRestoreKinds(t *testing.T) {
	if got := restoreKinds("wxss"); len(got) != 1 || got[0] != "wxss" {
		t.Errorf("restoreKinds(wxss) = %v", got)
	}
	if got := restoreKinds("all"); len(got) != 3 {
		t.Errorf("restoreKinds(all) = %v, want 3 kinds", got)
	}
	if got := restoreKinds(""); len(got) != 3 {
		t.Errorf("restoreKinds(\"\") = %v, want 3 kinds (default all)", got)
	}
	if got := restoreKinds("bogus"); got != nil {
		t.Errorf("restoreKinds(bogus) = %v, want nil", got)
	}
}

func TestTransformRegistryDisabled(t *testing.T) {
	if got := transformRegistry(true); got != nil {
		t.Errorf("transformRegistry(true) = %v, want nil", got)
	}
}

func TestTransformRegistryEnabled(t *testing.T) {
	reg := transformRegistry(false)
	for _, ext := range []string{".json", ".js", ".html"} {
		if _, ok := reg[ext]; !ok {
			t.Errorf("transformRegistry(false) missing %q", ext)
		}
	}
	out, err := reg[".json"]([]byte(`{"a":1}`))
	if err != nil {
		t.Fatalf("registered .json transform error = %v", err)
	}
	if string(out) != "{\n  \"a\": 1\n}" {
		t.Errorf("registered .json transform output = %q", out)
	}
}

func TestInitConfigReadsYAMLFile(t *testing.T) {
	defer viper.Reset()

	dir := t.TempDir()
	path := filepath.Join(dir, "wxapkg.yaml")
	content := "root: /mini-programs\noutput: /restored\nthread: 8\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfgFile = path
	defer func() { cfgFile = "" }()
	initConfig()

	got := &config.Conf{}
	if err := viper.Unmarshal(got); err != nil {
		t.Fatalf("viper.Unmarshal() error = %v", err)
	}
	if got.Root != "/mini-programs" || got.Output != "/restored" || got.Threads != 8 {
		t.Errorf("Conf = %+v, want root/output/thread from %s", got, path)
	}
}

func TestSortedKeys(t *testing.T) {
	got := sortedKeys(map[string]string{"b": "1", "a": "2", "c": "3"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("sortedKeys() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sortedKeys()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
