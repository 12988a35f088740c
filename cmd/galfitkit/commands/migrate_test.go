package commands_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/galaxy-morphology/galfitkit/cmd/galfitkit/commands"
	"github.com/galaxy-morphology/galfitkit/internal/testutils"
	"github.com/stretchr/testify/require"
)

func TestMigrate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fakeMigration := filepath.Join(dir, "fake.sql")
	require.NoError(t, os.WriteFile(fakeMigration, []byte(""), 0600), "Setup: couldn't write fake migration file")
	migrationsDir := filepath.Join("..", "..", "..", "migrations")

	tests := map[string]struct {
		args     []string
		withDB   bool
		runTwice bool

		wantErr      bool
		wantUsageErr bool
	}{
		"Apply migrations":           {args: []string{migrationsDir}, withDB: true},
		"Already applied migrations": {args: []string{migrationsDir}, withDB: true, runTwice: true},

		// Usage errors
		"Error without path":      {wantErr: true, wantUsageErr: true},
		"Error on missing path":   {args: []string{filepath.Join(dir, "missing")}, wantErr: true, wantUsageErr: true},
		"Error on path to a file": {args: []string{fakeMigration}, wantErr: true, wantUsageErr: true},

		// Runtime errors
		"Error on unreachable database": {
			args:    []string{migrationsDir, "--db-host", "127.0.0.1", "--db-port", "1", "--db-sslmode", "disable"},
			wantErr: true,
		},
		"Error on empty migrations directory": {args: []string{dir}, withDB: true, wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			args := append([]string{"migrate"}, tc.args...)
			if tc.withDB {
				db := testutils.StartPostgresContainer(t)
				args = append(args,
					"--db-host", db.Host,
					"--db-port", db.Port,
					"--db-user", db.User,
					"--db-password", db.Password,
					"--db-name", db.Name,
					"--db-sslmode", "disable")
			}

			runs := 1
			if tc.runTwice {
				runs = 2
			}
			var err error
			var a *commands.App
			for range runs {
				a = commands.NewForTests(t, nil, args...)
				err = a.Run()
			}

			require.Equal(t, tc.wantUsageErr, a.UsageError(), "Run should return a usage error if expected")
			if tc.wantErr {
				require.Error(t, err, "Run should return an error")
				return
			}
			require.NoError(t, err, "Run should not return an error")
		})
	}
}
