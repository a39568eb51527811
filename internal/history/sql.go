package history

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SQLiteSchema creates the flight_records table on SQLite.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS flight_records (
	airline_code            TEXT    NOT NULL,
	flight_number           TEXT    NOT NULL,
	origin                  TEXT    NOT NULL,
	destination             TEXT    NOT NULL,
	flight_date             TEXT    NOT NULL,
	cancelled               INTEGER NOT NULL DEFAULT 0,
	departure_delay_minutes INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_flight_records_route
	ON flight_records (airline_code, origin, destination, flight_date);
`

// PostgresSchema creates the flight_records table on PostgreSQL.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS flight_records (
	airline_code            TEXT     NOT NULL,
	flight_number           TEXT     NOT NULL,
	origin                  TEXT     NOT NULL,
	destination             TEXT     NOT NULL,
	flight_date             DATE     NOT NULL,
	cancelled               SMALLINT NOT NULL DEFAULT 0,
	departure_delay_minutes INTEGER  NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_flight_records_route
	ON flight_records (airline_code, origin, destination, flight_date);
`

// dialect captures the differences between the SQL backends.
type dialect struct {
	bind func(n int) string
	date func(t time.Time) any
}

var (
	sqliteDialect = dialect{
		bind: func(int) string { return "?" },
		date: func(t time.Time) any { return t.Format(time.DateOnly) },
	}
	postgresDialect = dialect{
		bind: func(n int) string { return "$" + strconv.Itoa(n) },
		date: func(t time.Time) any { return dayOf(t) },
	}
)

func (d dialect) aggregate(q Query, byFlight bool) (string, []any) {
	var b strings.Builder
	b.WriteString(`SELECT
	COUNT(*),
	COALESCE(SUM(CASE WHEN cancelled <> 0 THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN cancelled = 0 AND departure_delay_minutes <= `)
	b.WriteString(strconv.Itoa(OnTimeThresholdMinutes))
	b.WriteString(` THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN cancelled = 0 AND departure_delay_minutes > 0 THEN departure_delay_minutes ELSE 0 END), 0)
FROM flight_records
WHERE airline_code = `)

	args := []any{q.Airline, q.Origin, q.Destination}
	b.WriteString(d.bind(1))
	b.WriteString(" AND origin = " + d.bind(2))
	b.WriteString(" AND destination = " + d.bind(3))
	if byFlight {
		args = append(args, q.FlightNumber)
		b.WriteString(" AND flight_number = " + d.bind(len(args)))
	}
	if !q.Since.IsZero() {
		args = append(args, d.date(q.Since))
		b.WriteString(" AND flight_date >= " + d.bind(len(args)))
	}
	return b.String(), args
}

func (d dialect) insert() string {
	binds := make([]string, 7)
	for i := range binds {
		binds[i] = d.bind(i + 1)
	}
	return `INSERT INTO flight_records
	(airline_code, flight_number, origin, destination, flight_date, cancelled, departure_delay_minutes)
	VALUES (` + strings.Join(binds, ", ") + `)`
}

func (d dialect) insertArgs(r FlightRecord) []any {
	r = normalizeRecord(r)
	cancelled := 0
	if r.Cancelled {
		cancelled = 1
	}
	return []any{r.Airline, r.FlightNumber, r.Origin, r.Destination, d.date(r.FlightDate), cancelled, r.DepartureDelayMinutes}
}

type rowScanner interface {
	Scan(dest ...any) error
}

type queryRowFunc func(ctx context.Context, query string, args ...any) rowScanner

// lookup runs the flight-level query, then the route-level one.
func lookup(ctx context.Context, d dialect, queryRow queryRowFunc, q Query) (*Performance, error) {
	q = q.Normalize()

	levels := []bool{false}
	if q.FlightNumber != "" {
		levels = []bool{true, false}
	}

	for _, byFlight := range levels {
		query, args := d.aggregate(q, byFlight)

		var total, cancelled, onTime, delaySum int64
		if err := queryRow(ctx, query, args...).Scan(&total, &cancelled, &onTime, &delaySum); err != nil {
			return nil, fmt.Errorf("querying flight records: %w", err)
		}
		if total == 0 {
			continue
		}

		t := tally{
			total:          int(total),
			cancelled:      int(cancelled),
			onTime:         int(onTime),
			delayMinutes:   float64(delaySum),
			operatedFlight: int(total - cancelled),
		}
		return t.performance(), nil
	}
	return nil, ErrNoData
}

// SQLiteRepository reads flight records through database/sql.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository over an open SQLite handle.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// EnsureSchema creates the flight_records table if it does not exist.
func (r *SQLiteRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, SQLiteSchema); err != nil {
		return fmt.Errorf("creating flight_records schema: %w", err)
	}
	return nil
}

// GetPerformance summarizes matching records, preferring flight-level matches.
func (r *SQLiteRepository) GetPerformance(ctx context.Context, q Query) (*Performance, error) {
	return lookup(ctx, sqliteDialect, func(ctx context.Context, query string, args ...any) rowScanner {
		return r.db.QueryRowContext(ctx, query, args...)
	}, q)
}

// Insert stores records in a single transaction.
func (r *SQLiteRepository) Insert(ctx context.Context, records ...FlightRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, sqliteDialect.insert())
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, sqliteDialect.insertArgs(rec)...); err != nil {
			return fmt.Errorf("inserting flight record: %w", err)
		}
	}
	return tx.Commit()
}

// PostgresRepository reads flight records through a pgx pool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a repository over a pgx pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the flight_records table if it does not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("creating flight_records schema: %w", err)
	}
	return nil
}

// GetPerformance summarizes matching records, preferring flight-level matches.
func (r *PostgresRepository) GetPerformance(ctx context.Context, q Query) (*Performance, error) {
	return lookup(ctx, postgresDialect, func(ctx context.Context, query string, args ...any) rowScanner {
		return r.pool.QueryRow(ctx, query, args...)
	}, q)
}

// Insert stores records in a single transaction.
func (r *PostgresRepository) Insert(ctx context.Context, records ...FlightRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback error is not critical

	query := postgresDialect.insert()
	for _, rec := range records {
		if _, err := tx.Exec(ctx, query, postgresDialect.insertArgs(rec)...); err != nil {
			return fmt.Errorf("inserting flight record: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func normalizeRecord(r FlightRecord) FlightRecord {
	r.Airline = strings.ToUpper(strings.TrimSpace(r.Airline))
	r.FlightNumber = strings.ToUpper(strings.TrimSpace(r.FlightNumber))
	r.Origin = strings.ToUpper(strings.TrimSpace(r.Origin))
	r.Destination = strings.ToUpper(strings.TrimSpace(r.Destination))
	r.FlightDate = dayOf(r.FlightDate)
	return r
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var (
	_ Provider = (*SQLiteRepository)(nil)
	_ Provider = (*PostgresRepository)(nil)
)
