package commands_test

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/galaxy-morphology/galfitkit/cmd/galfitkit/commands"
	"github.com/galaxy-morphology/galfitkit/internal/fit"
	"github.com/galaxy-morphology/galfitkit/internal/testutils"
	"github.com/stretchr/testify/require"
)

func TestCatalogCommands(t *testing.T) {
	t.Parallel()

	db := testutils.StartPostgresContainer(t)
	dbArgs := []string{
		"--db-host", db.Host,
		"--db-port", db.Port,
		"--db-user", db.User,
		"--db-password", db.Password,
		"--db-name", db.Name,
		"--db-sslmode", "disable",
	}
	run := func(args ...string) string {
		t.Helper()

		var out bytes.Buffer
		a := commands.NewForTests(t, nil, append(args, dbArgs...)...)
		a.SetOut(&out)
		require.NoError(t, a.Run(), "%s should not return an error", args[0])
		return out.String()
	}

	dir := fitDir(t, true, true)
	image := filepath.Join(dir, "imgblock.fits")

	run("migrate", filepath.Join("..", "..", "..", "migrations"))
	run("summarize", image, "--catalog")
	run("summarize", image, "--catalog", "--source", "log")

	var got fit.Result
	require.NoError(t, json.Unmarshal([]byte(run("results", image, "--catalog", "--format", "json")), &got),
		"results should print a JSON result")
	require.NotNil(t, got.Statistics.Chi2, "Stored result should report Chi2")
	require.InDelta(t, 9000.5, *got.Statistics.Chi2, 1e-9, "results should print the last stored run")
	require.Len(t, got.Components, 1, "Stored result should keep its components")
	require.Equal(t, "sersic", got.Components[0].Type, "Stored component type should be kept")
}
