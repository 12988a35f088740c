// Package catalog stores parsed fit results in a PostgreSQL database.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/galaxy-morphology/galfitkit/internal/fit"
	"github.com/galaxy-morphology/galfitkit/internal/metadata"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ubuntu/decorate"
)

const table = "fit_runs"

// ErrNotFound is returned when no stored run matches a query.
var ErrNotFound = errors.New("no stored fit run")

// Config holds the configuration for connecting to the PostgreSQL database.
type Config struct {
	Host     string `mapstructure:"host" yaml:"host,omitempty"`
	Port     int    `mapstructure:"port" yaml:"port,omitempty"`
	User     string `mapstructure:"user" yaml:"user,omitempty"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
	DBName   string `mapstructure:"name" yaml:"name,omitempty"`
	SSLMode  string `mapstructure:"sslmode" yaml:"sslmode,omitempty"`
}

// DSN returns the keyword/value connection string of the database.
// Unset settings are left out so that libpq defaults and environment variables apply.
func (c Config) DSN() string {
	var kv []string
	add := func(k, v string) {
		if v == "" {
			return
		}
		v = strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v)
		kv = append(kv, fmt.Sprintf("%s='%s'", k, v))
	}

	add("host", c.Host)
	if c.Port != 0 {
		add("port", strconv.Itoa(c.Port))
	}
	add("user", c.User)
	add("password", c.Password)
	add("dbname", c.DBName)
	add("sslmode", c.SSLMode)
	return strings.Join(kv, " ")
}

type dbPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Manager manages the PostgreSQL database connection pool.
type Manager struct {
	dbpool dbPool
}

type options struct {
	newPool func(ctx context.Context, dsn string) (dbPool, error)
}

// Options represents an optional function to override Manager default values.
type Options func(*options)

// Entry is one fit run stored in the catalog.
type Entry struct {
	ID         uuid.UUID
	EntryTime  time.Time
	OutputFile string
	// Source is the artifact the result was parsed from: "header" or "log".
	Source   string
	Result   fit.Result
	Metadata metadata.Observation
}

// Connect establishes a connection to the PostgreSQL database using the provided configuration.
func Connect(ctx context.Context, cfg Config, args ...Options) (*Manager, error) {
	opts := options{
		newPool: func(ctx context.Context, dsn string) (dbPool, error) {
			return pgxpool.New(ctx, dsn)
		},
	}

	for _, opt := range args {
		opt(&opts)
	}

	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid database port %d", cfg.Port)
	}

	dbpool, err := opts.newPool(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	slog.Info("Connected to PostgreSQL database", "host", cfg.Host, "port", cfg.Port)
	return &Manager{dbpool: dbpool}, nil
}

// Insert stores e and returns its identifier. A new identifier is generated when e has none.
func (db Manager) Insert(ctx context.Context, e Entry) (id uuid.UUID, err error) {
	defer decorate.OnError(&err, "could not store fit run of %s", e.OutputFile)

	if db.dbpool == nil {
		return uuid.Nil, errors.New("database not initialized")
	}

	id = e.ID
	if id == uuid.Nil {
		if id, err = uuid.NewRandom(); err != nil {
			return uuid.Nil, err
		}
	}
	if e.EntryTime.IsZero() {
		e.EntryTime = time.Now()
	}
	comps := e.Result.Components
	if comps == nil {
		comps = []fit.Component{}
	}
	stats := e.Result.Statistics

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := fmt.Sprintf(
		`INSERT INTO %s (
			id,
			entry_time,
			output_file,
			source,
			init_file,
			chi2,
			ndof,
			chi2_nu,
			nfree,
			nfix,
			components,
			metadata,
			parse_error
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		pgx.Identifier{table}.Sanitize(),
	)
	_, err = db.dbpool.Exec(ctx, query,
		id,                  // id
		e.EntryTime,         // entry_time
		e.OutputFile,        // output_file
		e.Source,            // source
		e.Result.InitFile,   // init_file
		stats.Chi2,          // chi2
		stats.NDOF,          // ndof
		stats.Chi2Nu,        // chi2_nu
		stats.NFree,         // nfree
		stats.NFix,          // nfix
		comps,               // components
		e.Metadata,          // metadata
		e.Result.ParseError, // parse_error
	)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return uuid.Nil, fmt.Errorf("insert canceled: %v", err)
		}
		return uuid.Nil, fmt.Errorf("failed to insert data: %v", err)
	}

	slog.Debug("Stored fit run", "id", id, "output", e.OutputFile)
	return id, nil
}

// Latest returns the most recent run stored for outputFile.
func (db Manager) Latest(ctx context.Context, outputFile string) (e Entry, err error) {
	defer decorate.OnError(&err, "could not load fit run of %s", outputFile)

	if db.dbpool == nil {
		return Entry{}, errors.New("database not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := fmt.Sprintf(
		`SELECT id, entry_time, output_file, source, init_file,
			chi2, ndof, chi2_nu, nfree, nfix,
			components, metadata, parse_error
		FROM %s
		WHERE output_file = $1
		ORDER BY entry_time DESC
		LIMIT 1`,
		pgx.Identifier{table}.Sanitize(),
	)

	stats := &e.Result.Statistics
	err = db.dbpool.QueryRow(ctx, query, outputFile).Scan(
		&e.ID, &e.EntryTime, &e.OutputFile, &e.Source, &e.Result.InitFile,
		&stats.Chi2, &stats.NDOF, &stats.Chi2Nu, &stats.NFree, &stats.NFix,
		&e.Result.Components, &e.Metadata, &e.Result.ParseError,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}

	// Kinds are not stored, they follow from the component type.
	for i := range e.Result.Components {
		e.Result.Components[i].Kind = fit.ParseKind(e.Result.Components[i].Type)
	}
	if len(e.Result.Components) == 0 {
		e.Result.Components = nil
	}
	return e, nil
}

// Close closes the database connection.
//
// If the connection is already closed, it does nothing.
// If the connection does not close within 10 seconds, it returns an error.
func (db *Manager) Close() error {
	if db.dbpool == nil {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		db.dbpool.Close()
	}()

	select {
	case <-done:
		db.dbpool = nil
		return nil
	case <-time.After(10 * time.Second):
		return fmt.Errorf("timeout while closing database, connection may still be open")
	}
}
