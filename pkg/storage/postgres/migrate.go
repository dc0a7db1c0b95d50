package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"github.com/riverqueue/river/riverdriver/riverdatabasesql"
	"github.com/riverqueue/river/rivermigrate"
)

// MigrationReport lists the versions applied by Migrate.
type MigrationReport struct {
	// Schema holds the applied goose versions of the domain tables.
	Schema []int64
	// River holds the applied River queue schema versions.
	River []int
}

// Migrate brings the database to the latest version: first the goose
// migrations in fsys (SQL files at its root), then the River queue schema.
// Already applied versions are skipped, so it is safe to run repeatedly.
func (p *PgSQL) Migrate(ctx context.Context, fsys fs.FS) (*MigrationReport, error) {
	db, ok := p.DB.(*sql.DB)
	if !ok {
		return nil, ErrMigrateInTx
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("could not create goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not apply schema migrations: %w", err)
	}

	report := &MigrationReport{}
	for _, r := range results {
		report.Schema = append(report.Schema, r.Source.Version)
	}

	migrator, err := rivermigrate.New(riverdatabasesql.New(db), nil)
	if err != nil {
		return nil, fmt.Errorf("could not create river queue migrator: %w", err)
	}
	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil)
	if err != nil {
		return nil, fmt.Errorf("could not apply river queue migrations: %w", err)
	}
	for _, v := range res.Versions {
		report.River = append(report.River, v.Version)
	}

	return report, nil
}
