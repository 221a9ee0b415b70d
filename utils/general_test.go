package utils

import (
	"os"
	"path"
	"path/filepath"
	"runtime"
	"testing"
)

// TestFileExists tests the FileExists function
func TestFileExists(t *testing.T) {
	tempDir := t.TempDir()
	cfgPath := path.Join(tempDir, "fluidics.yaml")
	f, err := os.OpenFile(cfgPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0775)
	if err != nil {
		t.Fatalf("Could not open/create file: %v", err)
	}
	f.Close()
	missingPath := path.Join(tempDir, "capabilities.yaml")
	if !FileExists(cfgPath) {
		t.Fatal("File doesn't exist when it should")
	}
	if FileExists(missingPath) {
		t.Fatal("File exists when it shouldn't")
	}
}

// TestReadFileOrEmpty tests that missing files are read as empty strings
func TestReadFileOrEmpty(t *testing.T) {
	tempDir := t.TempDir()
	p := filepath.Join(tempDir, "schema.yaml")
	if s := ReadFileOrEmpty(p); s != "" {
		t.Errorf("Expected empty string for missing file, received: %q", s)
	}
	if err := os.WriteFile(p, []byte("Fluidics: {}"), 0644); err != nil {
		t.Fatalf("Could not write file: %v", err)
	}
	if s := ReadFileOrEmpty(p); s != "Fluidics: {}" {
		t.Errorf("Unexpected file content: %q", s)
	}
}

// TestAppDataDir tests that AppDataDir returns the expected directory on unix-like systems
func TestAppDataDir(t *testing.T) {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		t.Skip("unix layout only")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	if dir := AppDataDir("fluidd", false); dir != filepath.Join(home, ".fluidd") {
		t.Errorf("Unexpected app data dir: %s", dir)
	}
	if dir := AppDataDir(".Fluidd", false); dir != filepath.Join(home, ".fluidd") {
		t.Errorf("Unexpected app data dir for dotted name: %s", dir)
	}
	if dir := AppDataDir("", false); dir != "." {
		t.Errorf("Expected current directory for empty name, received: %s", dir)
	}
}
