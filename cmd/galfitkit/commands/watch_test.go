package commands_test

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/galaxy-morphology/galfitkit/cmd/galfitkit/commands"
	"github.com/galaxy-morphology/galfitkit/internal/testutils"
	"github.com/stretchr/testify/require"
)

func TestWatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var out bytes.Buffer
	a := commands.NewForTests(t, nil, "watch", dir, "--settle", "50ms", "--metrics-addr", "127.0.0.1:0")
	a.SetOut(&out)

	done := make(chan error, 1)
	go func() { done <- a.Run() }()
	a.WaitReady()

	testutils.WriteFITS(t, dir, "nomodel.fits", imgblock(false)...)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not an image"), 0600), "Setup: could not write notes")
	testutils.WriteFITS(t, dir, "imgblock.fits", imgblock(true)...)

	summaryPath := filepath.Join(dir, "imgblock_summary.md")
	require.Eventually(t, func() bool {
		_, err := os.Stat(summaryPath)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond, "Summary of the new output image should be written")

	a.Quit()
	select {
	case err := <-done:
		require.NoError(t, err, "Run should not return an error once stopped")
	case <-time.After(5 * time.Second):
		t.Fatal("watch should stop on Quit")
	}

	require.Contains(t, readFile(t, summaryPath), "| Chi² | 10006.73400 |", "Summary should hold the header fit result")
	require.Contains(t, out.String(), summaryPath+"\n", "Written summaries should be printed")
	require.NoFileExists(t, filepath.Join(dir, "nomodel_summary.md"), "Images without model record should be skipped")
	require.NoFileExists(t, filepath.Join(dir, "notes_summary.md"), "Files not matching the pattern should be ignored")
}

func TestWatchErrors(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "imgblock.fits")
	require.NoError(t, os.WriteFile(file, nil, 0600), "Setup: could not write file")

	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err, "Setup: could not listen")
	t.Cleanup(func() { busy.Close() })

	tests := map[string]struct {
		args []string

		wantUsageErr bool
	}{
		"Error on missing directory": {args: []string{filepath.Join(t.TempDir(), "missing")}, wantUsageErr: true},
		"Error on path to a file":    {args: []string{file}, wantUsageErr: true},
		"Error on invalid pattern":   {args: []string{t.TempDir(), "--pattern", "[fits"}, wantUsageErr: true},

		"Error on metrics address in use": {args: []string{t.TempDir(), "--metrics-addr", busy.Addr().String()}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			a := commands.NewForTests(t, nil, append([]string{"watch"}, tc.args...)...)
			a.SetOut(&bytes.Buffer{})

			require.Error(t, a.Run(), "Run should return an error")
			require.Equal(t, tc.wantUsageErr, a.UsageError(), "Run should return a usage error if expected")
		})
	}
}
