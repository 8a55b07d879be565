package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var embedMigrations embed.FS

// goose keeps its base FS, dialect and logger in package globals.
var gooseMu sync.Mutex

// runMigrations brings the schema up to date.
func runMigrations(ctx context.Context, db *sql.DB, d dialect) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(gooseLogger{logger: slog.Default().With("component", "migrations", "dialect", d.name)})
	if err := goose.SetDialect(d.gooseDialect); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	return goose.UpContext(ctx, db, d.migrations)
}

// gooseLogger routes goose output into slog.
type gooseLogger struct {
	logger *slog.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
	os.Exit(1)
}
