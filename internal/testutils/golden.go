package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/galaxy-morphology/galfitkit/internal/fileutils"
	"github.com/stretchr/testify/require"
)

// UpdateGoldenEnv is the environment variable refreshing golden files when set.
const UpdateGoldenEnv = "TESTS_UPDATE_GOLDEN"

// GoldenPath returns the golden file of the current test: testdata/golden/<test name>.
func GoldenPath(t *testing.T) string {
	t.Helper()
	return filepath.Join("testdata", "golden", filepath.FromSlash(t.Name()))
}

// LoadWithUpdateFromGolden returns the golden content of the current test.
// When UpdateGoldenEnv is set, got is written to the golden file first.
func LoadWithUpdateFromGolden(t *testing.T, got string) string {
	t.Helper()

	path := GoldenPath(t)
	if os.Getenv(UpdateGoldenEnv) != "" {
		t.Logf("Updating golden file %s", path)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750), "Cannot create golden directory")
		require.NoError(t, fileutils.AtomicWrite(path, []byte(got)), "Cannot write golden file")
	}

	want, err := os.ReadFile(path)
	require.NoError(t, err, "Cannot load golden file %s", path)
	return string(want)
}
