// Copyright (c) 2026 nodeadmin authors
// nodeadmin - node administrative lifecycle controller
// This source code is licensed under the MIT license found in the LICENSE file.

// Package audit persists a history of the administrative actions the admin
// controller records. Terminal transitions made by the drain gates and
// pipeline closures are not recorded. It is a local, this-repo-owned concern, deliberately kept
// separate from the node registry's operational-state storage: a
// restarted controller still defers to the registry for a node's current
// state, and never reconstructs it from the audit trail.
package audit // import "github.com/scmadmin/nodeadmin/internal/audit"

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"

	"github.com/scmadmin/nodeadmin/internal/admin"
	"github.com/scmadmin/nodeadmin/internal/logging"
	"github.com/scmadmin/nodeadmin/internal/model"
	"github.com/scmadmin/nodeadmin/internal/statemachine"
)

// sqlDriverName maps the dialect name used throughout this package (and in
// config) to the database/sql driver name registered by the corresponding
// driver package. pgx's stdlib adapter registers itself as "pgx", not
// "postgres", so that translation has to happen somewhere.
func sqlDriverName(dbType string) (string, error) {
	switch dbType {
	case "sqlite":
		return "sqlite", nil
	case "postgres":
		return "pgx", nil
	case "mysql":
		return "mysql", nil
	default:
		return "", fmt.Errorf("unsupported audit database type %q", dbType)
	}
}

//go:embed migrations
var embeddedMigrations embed.FS

// Entry is one row of the audit trail.
type Entry struct {
	ID         int64     `bun:"id,pk,autoincrement"`
	RecordedAt time.Time `bun:"recorded_at,notnull"`
	NodeID     string    `bun:"node_id,notnull"`
	Action     string    `bun:"action,notnull"`
	FromState  string    `bun:"from_state,notnull"`
	ToState    string    `bun:"to_state,notnull"`
	Outcome    string    `bun:"outcome,notnull"`
	Detail     string    `bun:"detail"`
}

var _ bun.BeforeAppendModelHook = (*entryModel)(nil)

// entryModel is the bun row mapping for Entry. It carries the table name
// and the insert hook; toEntry converts a row into the exported Entry.
type entryModel struct {
	bun.BaseModel `bun:"table:audit_log"`
	ID            int64     `bun:"id,pk,autoincrement"`
	RecordedAt    time.Time `bun:"recorded_at,notnull"`
	NodeID        string    `bun:"node_id,notnull"`
	Action        string    `bun:"action,notnull"`
	FromState     string    `bun:"from_state,notnull"`
	ToState       string    `bun:"to_state,notnull"`
	Outcome       string    `bun:"outcome,notnull"`
	Detail        string    `bun:"detail"`
}

func (m *entryModel) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok && m.RecordedAt.IsZero() {
		m.RecordedAt = time.Now()
	}
	return nil
}

func (m entryModel) toEntry() Entry {
	return Entry{
		ID:         m.ID,
		RecordedAt: m.RecordedAt,
		NodeID:     m.NodeID,
		Action:     m.Action,
		FromState:  m.FromState,
		ToState:    m.ToState,
		Outcome:    m.Outcome,
		Detail:     m.Detail,
	}
}

// Outcome labels recorded against an action.
const (
	OutcomeApplied  = "applied"
	OutcomeNoOp     = "noop"
	OutcomeRejected = "rejected"
	// OutcomeError marks a command that was legal for the node's state but
	// failed for an infrastructure reason (registry lookup or persistence
	// failure), distinct from an operator issuing an illegal command.
	OutcomeError = "error"
)

// Store persists and retrieves audit entries over a bun-backed SQL
// database, supporting SQLite, PostgreSQL, and MySQL via the same
// dialect-switched DSN-open pattern used elsewhere in this codebase's
// lineage.
type Store struct {
	db *bun.DB
}

// Open opens dsn with driver dbType ("sqlite", "postgres", or "mysql"),
// runs embedded migrations, and returns a ready Store.
func Open(dbType, dsn string) (*Store, error) {
	driverName, err := sqlDriverName(dbType)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}

	if err := runMigrations(sqlDB, dbType); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running audit migrations: %w", err)
	}

	var bdb *bun.DB
	switch dbType {
	case "sqlite":
		bdb = bun.NewDB(sqlDB, sqlitedialect.New())
	case "postgres":
		bdb = bun.NewDB(sqlDB, pgdialect.New())
	case "mysql":
		bdb = bun.NewDB(sqlDB, mysqldialect.New())
	default:
		sqlDB.Close()
		return nil, fmt.Errorf("unsupported audit database type %q", dbType)
	}
	return &Store{db: bdb}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// LogAction implements admin.AuditLogger. The outcome is derived from err:
// nil means applied, a node-not-found or invalid-state-shaped error means
// rejected (the operator asked for something illegal), any other error
// means error (the command was legal but failed for an infrastructure
// reason), and a from==to pair with no error means a no-op. A write
// failure is logged at WARN and otherwise swallowed; LogAction returns
// nothing so a broken audit sink never blocks an administrative command.
func (s *Store) LogAction(ctx context.Context, nodeID uuid.UUID, action string, fromState, toState model.OperationalState, actionErr error) {
	outcome := OutcomeApplied
	detail := ""
	switch {
	case errors.Is(actionErr, statemachine.ErrInvalidNodeState) || errors.Is(actionErr, admin.ErrNodeNotFound):
		outcome = OutcomeRejected
		detail = actionErr.Error()
	case actionErr != nil:
		outcome = OutcomeError
		detail = actionErr.Error()
	case fromState == toState:
		outcome = OutcomeNoOp
	}

	entry := &entryModel{
		NodeID:    nodeID.String(),
		Action:    action,
		FromState: fromState.String(),
		ToState:   toState.String(),
		Outcome:   outcome,
		Detail:    detail,
	}
	if _, err := s.db.NewInsert().Model(entry).Exec(ctx); err != nil {
		logging.Warnf("audit: failed to record action %s for node %s: %v", action, nodeID, err)
	}
}

// GetAuditHistory returns every recorded entry for id, most recent first.
func (s *Store) GetAuditHistory(ctx context.Context, id uuid.UUID) ([]Entry, error) {
	var rows []entryModel
	if err := s.db.NewSelect().Model(&rows).Where("node_id = ?", id.String()).Order("recorded_at DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("reading audit history for %s: %w", id, err)
	}
	out := make([]Entry, len(rows))
	for i, r := range rows {
		out[i] = r.toEntry()
	}
	return out, nil
}

func runMigrations(db *sql.DB, dbType string) error {
	migrationsPath := fmt.Sprintf("migrations/%s", dbType)

	entries, err := fs.ReadDir(embeddedMigrations, migrationsPath)
	if err != nil {
		return fmt.Errorf("reading embedded migrations %s: %w", migrationsPath, err)
	}

	var ups []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			ups = append(ups, e.Name())
		}
	}
	sort.Strings(ups)

	for _, fname := range ups {
		data, err := embeddedMigrations.ReadFile(path.Join(migrationsPath, fname))
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", fname, err)
		}
		if _, err := db.Exec(string(data)); err != nil {
			return fmt.Errorf("applying migration %s: %w", fname, err)
		}
	}
	return nil
}
