// Package sqlstore implements storage.Driver on database/sql. The sqlite and
// postgres packages open the connection and pick the dialect; the queries
// are shared.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/papercomputeco/botconsole/pkg/storage"
)

// Dialect captures what differs between the supported databases.
type Dialect struct {
	// Name is used in error messages.
	Name string

	// Placeholder returns the bind parameter for the n-th argument, 1-based.
	Placeholder func(n int) string
}

// QuestionMark is the "?" placeholder style used by SQLite.
func QuestionMark(int) string { return "?" }

// Dollar is the "$n" placeholder style used by PostgreSQL.
func Dollar(n int) string { return "$" + strconv.Itoa(n) }

var schema = []string{
	`CREATE TABLE IF NOT EXISTS turns (
		id              TEXT PRIMARY KEY,
		agent_token     TEXT NOT NULL,
		conversation_id BIGINT NOT NULL DEFAULT 0,
		question        TEXT NOT NULL,
		answer          TEXT NOT NULL,
		outcome         TEXT NOT NULL,
		error           TEXT NOT NULL DEFAULT '',
		started_at      BIGINT NOT NULL,
		finished_at     BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS turns_agent_finished ON turns (agent_token, finished_at)`,
}

const turnColumns = "id, agent_token, conversation_id, question, answer, outcome, error, started_at, finished_at"

// Driver implements storage.Driver over a *sql.DB.
type Driver struct {
	DB      *sql.DB
	dialect Dialect
}

// New wraps db and creates the schema if needed. The Driver owns db from
// then on and closes it in Close.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*Driver, error) {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to create %s schema: %w", dialect.Name, err)
		}
	}
	return &Driver{DB: db, dialect: dialect}, nil
}

func (d *Driver) placeholders(n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = d.dialect.Placeholder(i + 1)
	}
	return strings.Join(ps, ", ")
}

// SaveTurn inserts turn, ignoring an existing row with the same ID.
func (d *Driver) SaveTurn(ctx context.Context, turn *storage.Turn) error {
	if err := turn.Validate(); err != nil {
		return err
	}

	query := "INSERT INTO turns (" + turnColumns + ") VALUES (" + d.placeholders(9) + ") ON CONFLICT (id) DO NOTHING"
	_, err := d.DB.ExecContext(ctx, query,
		turn.ID,
		turn.AgentToken,
		turn.ConversationID,
		turn.Question,
		turn.Answer,
		turn.Outcome,
		turn.Error,
		turn.StartedAt.UnixMicro(),
		turn.FinishedAt.UnixMicro(),
	)
	if err != nil {
		return fmt.Errorf("saving turn %s: %w", turn.ID, err)
	}
	return nil
}

// GetTurn retrieves a turn by its ID.
func (d *Driver) GetTurn(ctx context.Context, id string) (*storage.Turn, error) {
	query := "SELECT " + turnColumns + " FROM turns WHERE id = " + d.dialect.Placeholder(1)
	turn, err := scanTurn(d.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("getting turn %s: %w", id, err)
	}
	return turn, nil
}

// ListTurns returns turns newest first.
func (d *Driver) ListTurns(ctx context.Context, agentToken string, limit int) ([]*storage.Turn, error) {
	var (
		query strings.Builder
		args  []any
	)
	query.WriteString("SELECT " + turnColumns + " FROM turns")
	if agentToken != "" {
		args = append(args, agentToken)
		query.WriteString(" WHERE agent_token = " + d.dialect.Placeholder(len(args)))
	}
	query.WriteString(" ORDER BY finished_at DESC, id DESC")
	if limit > 0 {
		args = append(args, limit)
		query.WriteString(" LIMIT " + d.dialect.Placeholder(len(args)))
	}

	rows, err := d.DB.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("listing turns: %w", err)
	}
	defer rows.Close()

	var turns []*storage.Turn
	for rows.Next() {
		turn, err := scanTurn(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing turns: %w", err)
	}
	return turns, nil
}

// Close closes the underlying database.
func (d *Driver) Close() error {
	return d.DB.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTurn(row scanner) (*storage.Turn, error) {
	var (
		turn                storage.Turn
		startedAt, finished int64
	)
	err := row.Scan(
		&turn.ID,
		&turn.AgentToken,
		&turn.ConversationID,
		&turn.Question,
		&turn.Answer,
		&turn.Outcome,
		&turn.Error,
		&startedAt,
		&finished,
	)
	if err != nil {
		return nil, err
	}
	turn.StartedAt = time.UnixMicro(startedAt)
	turn.FinishedAt = time.UnixMicro(finished)
	return &turn, nil
}
