package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestGetEnv(t *testing.T) {
	if got := GetEnv("STAGER_TEST_UNSET_VAR", "debug"); got != "debug" {
		t.Errorf("GetEnv() = %q, want default 'debug'", got)
	}

	t.Setenv("STAGER_TEST_VARIANT", "release")
	if got := GetEnv("STAGER_TEST_VARIANT", "debug"); got != "release" {
		t.Errorf("GetEnv() = %q, want 'release'", got)
	}
}

func TestGetIntEnv(t *testing.T) {
	if got := GetIntEnv("STAGER_TEST_UNSET_INT", 16); got != 16 {
		t.Errorf("GetIntEnv() = %d, want 16", got)
	}

	t.Setenv("STAGER_TEST_DEPTH", "4")
	if got := GetIntEnv("STAGER_TEST_DEPTH", 16); got != 4 {
		t.Errorf("GetIntEnv() = %d, want 4", got)
	}

	t.Setenv("STAGER_TEST_BAD_DEPTH", "deep")
	if got := GetIntEnv("STAGER_TEST_BAD_DEPTH", 16); got != 16 {
		t.Errorf("GetIntEnv() = %d, want default 16 for invalid int", got)
	}
}

func TestGetBoolEnv(t *testing.T) {
	tests := []struct {
		value    string
		def      bool
		expected bool
	}{
		{"", false, false},
		{"", true, true},
		{"true", false, true},
		{"1", false, true},
		{"false", true, false},
		{"maybe", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("STAGER_TEST_REQUIRED", tt.value)
			if got := GetBoolEnv("STAGER_TEST_REQUIRED", tt.def); got != tt.expected {
				t.Errorf("GetBoolEnv(%q, %v) = %v, want %v", tt.value, tt.def, got, tt.expected)
			}
		})
	}
}

func TestGetDurationEnv(t *testing.T) {
	def := 30 * time.Second

	if got := GetDurationEnv("STAGER_TEST_UNSET_DURATION", def); got != def {
		t.Errorf("GetDurationEnv() = %v, want %v", got, def)
	}

	t.Setenv("STAGER_TEST_INTERVAL", "250ms")
	if got := GetDurationEnv("STAGER_TEST_INTERVAL", def); got != 250*time.Millisecond {
		t.Errorf("GetDurationEnv() = %v, want 250ms", got)
	}

	t.Setenv("STAGER_TEST_BAD_INTERVAL", "soon")
	if got := GetDurationEnv("STAGER_TEST_BAD_INTERVAL", def); got != def {
		t.Errorf("GetDurationEnv() = %v, want default for invalid duration", got)
	}
}

func TestGetListEnv(t *testing.T) {
	if got := GetListEnv("STAGER_TEST_UNSET_LIST"); got != nil {
		t.Errorf("GetListEnv() = %v, want nil", got)
	}

	t.Setenv("STAGER_TEST_TASKS", " :app:assembleRelease, ,installDebug,")
	want := []string{":app:assembleRelease", "installDebug"}
	if diff := cmp.Diff(want, GetListEnv("STAGER_TEST_TASKS")); diff != "" {
		t.Errorf("GetListEnv() mismatch (-want +got):\n%s", diff)
	}
}

func TestGetSecretFile(t *testing.T) {
	if got := GetSecretFile(""); got != "" {
		t.Errorf("GetSecretFile(\"\") = %q, want empty", got)
	}
	if got := GetSecretFile("/nonexistent/path/to/secret"); got != "" {
		t.Errorf("GetSecretFile() = %q, want empty for missing file", got)
	}

	path := filepath.Join(t.TempDir(), "callback-key")
	if err := os.WriteFile(path, []byte("hmac-key\n"), 0o600); err != nil {
		t.Fatalf("Failed to write secret: %v", err)
	}
	if got := GetSecretFile(path); got != "hmac-key" {
		t.Errorf("GetSecretFile() = %q, want 'hmac-key'", got)
	}
}
