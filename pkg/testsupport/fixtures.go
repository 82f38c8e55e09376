package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// CarsFixture is the shared inventory fixture used across package tests.
const CarsFixture = "cars.json"

// Path returns the absolute path of a file in this package's testdata
// directory, so tests in any package can load the shared fixtures.
func Path(filename string) string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return filepath.Join("testdata", filename)
	}
	return filepath.Join(filepath.Dir(file), "testdata", filename)
}

// LoadFixture loads test data from a fixture file.
// Relative paths are resolved against the test package directory.
func LoadFixture(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}

	return data
}

// LoadFixtureJSON loads JSON test data from a fixture file and unmarshals it.
func LoadFixtureJSON(t *testing.T, path string, dest any) {
	t.Helper()

	data := LoadFixture(t, path)
	if err := json.Unmarshal(data, dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}

// LoadShared unmarshals one of the shared fixtures into dest.
func LoadShared(t *testing.T, filename string, dest any) {
	t.Helper()
	LoadFixtureJSON(t, Path(filename), dest)
}

// WriteTemp writes content to a file named name inside a fresh test
// directory and returns its path. The directory is removed with the test.
func WriteTemp(t *testing.T, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("failed to write temp file %s: %v", path, err)
	}
	return path
}

// WriteTempJSON marshals v into a temp file, see WriteTemp.
func WriteTempJSON(t *testing.T, name string, v any) string {
	t.Helper()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal JSON for %s: %v", name, err)
	}
	return WriteTemp(t, name, data)
}
