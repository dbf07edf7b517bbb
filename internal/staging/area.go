// Package staging implements the per-session shadow layer of the store:
// connection-scoped diff tables, the added/dirty/removed id-set bookkeeping,
// validated add/update/remove staging, the cascade propagator, and the
// commit/rollback coordinator.
//
// A staging area owns one dedicated connection. Its diff tables are
// temporary tables on that connection, so two areas against the same store
// never see each other's uncommitted rows.
package staging

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"stagedb/internal/dialect"
	"stagedb/internal/schema"
	"stagedb/internal/viewsql"
)

// Item is one staged row, keyed by physical column name. Absent nullable
// columns read back as NULL.
type Item map[string]any

// Area is one session's staging layer.
type Area struct {
	conn   *sql.Conn
	db     *sql.DB
	d      dialect.Dialect
	log    *zap.Logger
	user   string
	strict bool

	prefix string
	state  *State
	clean  bool
}

// New opens a staging area on a dedicated connection and creates one diff
// table per staging table. The diff prefix combines user, UTC timestamp and
// a short random suffix so two areas opened by the same user in the same
// second still get distinct table names.
func New(ctx context.Context, db *sql.DB, d dialect.Dialect, user string, strict bool, log *zap.Logger) (*Area, error) {
	if log == nil {
		log = zap.NewNop()
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("staging: acquire connection: %w", err)
	}
	a := &Area{
		conn:   conn,
		db:     db,
		d:      d,
		log:    log,
		user:   user,
		strict: strict,
		prefix: diffPrefix(user),
		state:  NewState(),
		clean:  true,
	}
	for _, t := range schema.StagingTables() {
		if err := a.createDiffTable(ctx, t); err != nil {
			conn.Close()
			return nil, err
		}
	}
	log.Debug("staging area opened",
		zap.String("user", user),
		zap.String("prefix", a.prefix),
		zap.Bool("strict", strict),
	)
	return a, nil
}

func diffPrefix(user string) string {
	stamp := time.Now().UTC().Format("20060102150405")
	return "diff_" + user + stamp + uuid.NewString()[:8] + "_"
}

func (a *Area) createDiffTable(ctx context.Context, t schema.Table) error {
	def := t.Def()
	var body []string
	for _, c := range def.Columns {
		line := fmt.Sprintf("\t%s %s", a.d.Quote(c.Name), a.d.ColumnType(c.Type))
		if !c.Nullable {
			line += " NOT NULL"
		}
		body = append(body, line)
	}
	pk := make([]string, len(def.PK))
	for i, c := range def.PK {
		pk[i] = a.d.Quote(c)
	}
	body = append(body, fmt.Sprintf("\tPRIMARY KEY (%s)", strings.Join(pk, ", ")))
	ddl := a.d.TempTableDDL(a.prefix+def.Name, strings.Join(body, ",\n"))
	if _, err := a.conn.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("staging: create diff table for %s: %w", def.Name, err)
	}
	return nil
}

// DiffTable returns the session's diff-table name for t. Part of the view
// compiler's Overlay contract.
func (a *Area) DiffTable(t schema.Table) string {
	if t == schema.TableCommit {
		return ""
	}
	return a.prefix + t.Name()
}

// TouchedIDs returns dirty ∪ removed for t. Part of the Overlay contract.
func (a *Area) TouchedIDs(t schema.Table) []int64 {
	if t == schema.TableCommit {
		return nil
	}
	return a.state.Touched(t)
}

// RemovedIDs returns the removed ids for t. Part of the Overlay contract.
func (a *Area) RemovedIDs(t schema.Table) []int64 {
	if t == schema.TableCommit {
		return nil
	}
	return a.state.Removed(t)
}

// Compiler returns a view compiler reading through this area.
func (a *Area) Compiler() *viewsql.Compiler {
	return &viewsql.Compiler{D: a.d, Overlay: a}
}

// Conn exposes the session connection. Reads against the diff tables must go
// through it; they do not exist on any other connection.
func (a *Area) Conn() *sql.Conn { return a.conn }

// State exposes the id-set bookkeeping for read-only inspection.
func (a *Area) State() *State { return a.state }

// HasPendingChanges reports whether anything has been staged since the last
// commit or rollback.
func (a *Area) HasPendingChanges() bool { return a.state.HasPending() }

// Close releases the session connection. Temporary diff tables die with it.
func (a *Area) Close() error {
	a.log.Debug("staging area closed", zap.String("prefix", a.prefix))
	return a.conn.Close()
}

// markStaged flips the session out of the clean state on the first
// successful staging call.
func (a *Area) markStaged() { a.clean = false }

func (a *Area) exec(ctx context.Context, query string, args ...any) error {
	_, err := a.conn.ExecContext(ctx, a.d.Rebind(query), args...)
	return err
}

// queryIDs runs a one-column id query on the session connection.
func (a *Area) queryIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := a.conn.QueryContext(ctx, a.d.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Exists reports whether the logical view of t contains a row with val in
// col. Typed front ends use it for cross-table checks the declarative rules
// cannot express.
func (a *Area) Exists(ctx context.Context, t schema.Table, col string, val any) (bool, error) {
	return a.exists(ctx, t, []string{col}, []any{val})
}

// exists reports whether the logical view of t (canonical minus touched,
// plus diff, minus removed) contains a row matching the column values.
func (a *Area) exists(ctx context.Context, t schema.Table, cols []string, vals []any) (bool, error) {
	leg := a.Compiler().Leg(t)
	var conds []string
	for _, c := range cols {
		conds = append(conds, fmt.Sprintf("v.%s = ?", a.d.Quote(c)))
	}
	q := fmt.Sprintf("SELECT 1 FROM (\n%s\n) AS v WHERE %s LIMIT 1", leg, strings.Join(conds, " AND "))
	rows, err := a.conn.QueryContext(ctx, a.d.Rebind(q), vals...)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	return rows.Next(), rows.Err()
}
