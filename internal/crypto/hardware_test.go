package crypto

import "testing"

func TestHasAESHardwareSupport(t *testing.T) {
	// We can't mock CPU features portably; just ensure it doesn't panic
	// and returns a plain bool.
	_ = HasAESHardwareSupport()
}

func TestHardwareInfo(t *testing.T) {
	info := HardwareInfo()

	for _, field := range []string{"aes_hardware_support", "architecture", "goos", "go_version"} {
		if _, ok := info[field]; !ok {
			t.Errorf("HardwareInfo() missing field: %s", field)
		}
	}
}
