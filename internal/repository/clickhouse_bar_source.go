package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"AMDScope/internal/domain/models"
	domrepo "AMDScope/internal/domain/repository"
	applogger "AMDScope/pkg/logger"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// CHBarSource implements BarSource over a ClickHouse candle table keyed by
// (symbol, interval, ts).
type CHBarSource struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
	now   func() time.Time
}

// NewCHBarSource creates a ClickHouse bar source reading table ("db.table").
func NewCHBarSource(db *sql.DB, table string, l *applogger.Logger) (*CHBarSource, error) {
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("invalid clickhouse table name %q", table)
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &CHBarSource{db: db, table: table, l: l, now: time.Now}, nil
}

// Schema returns the DDL creating the candle table.
func (s *CHBarSource) Schema() []string {
	return []string{fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            symbol   LowCardinality(String),
            interval LowCardinality(String),
            ts       DateTime64(3, 'UTC'),
            open     Float64,
            high     Float64,
            low      Float64,
            close    Float64,
            volume   Float64
        ) ENGINE = ReplacingMergeTree
        ORDER BY (symbol, interval, ts)
    `, s.table)}
}

func (s *CHBarSource) Name() string { return "clickhouse" }

func (s *CHBarSource) FetchBars(ctx context.Context, symbol string, period domrepo.Period, interval domrepo.Interval) ([]models.Bar, error) {
	start := time.Now()
	since := period.Since(s.now())
	if since.IsZero() {
		since = time.Unix(0, 0)
	}

	q := fmt.Sprintf(`
        SELECT ts, open, high, low, close, volume
        FROM %s
        WHERE symbol = ? AND interval = ? AND ts >= ?
        ORDER BY ts ASC
    `, s.table)

	fields := []applogger.Field{
		applogger.String("table", s.table),
		applogger.String("symbol", symbol),
		applogger.String("period", period.String()),
		applogger.String("interval", string(interval)),
	}

	rows, err := s.db.QueryContext(ctx, q, symbol, string(interval), since.UTC())
	if err != nil {
		s.l.Error("clickhouse fetch_bars query error", append(fields, applogger.Error(err))...)
		return nil, models.NewDataUnavailable(s.Name(), symbol, fmt.Errorf("query bars: %w", err))
	}
	defer rows.Close()

	out := make([]models.Bar, 0, 1024)
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Time, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			s.l.Error("clickhouse fetch_bars scan error", append(fields, applogger.Error(err))...)
			return nil, models.NewDataUnavailable(s.Name(), symbol, fmt.Errorf("scan bar: %w", err))
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		s.l.Error("clickhouse fetch_bars rows error", append(fields, applogger.Error(err))...)
		return nil, models.NewDataUnavailable(s.Name(), symbol, fmt.Errorf("rows: %w", err))
	}
	if len(out) == 0 {
		return nil, models.NewDataUnavailable(s.Name(), symbol, fmt.Errorf("no bars since %s", since.Format(time.RFC3339)))
	}

	s.l.Debug("clickhouse fetch_bars ok", append(fields,
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)...)
	return out, nil
}

// StoreBars inserts bars for symbol and interval in multi-row chunks.
// ReplacingMergeTree collapses rows re-inserted with the same key.
func (s *CHBarSource) StoreBars(ctx context.Context, symbol string, interval domrepo.Interval, bars []models.Bar) error {
	const chunkSize = 2000
	for start := 0; start < len(bars); start += chunkSize {
		end := start + chunkSize
		if end > len(bars) {
			end = len(bars)
		}
		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*8)
		for _, b := range bars[start:end] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, symbol, string(interval), b.Time.UTC(), b.Open, b.High, b.Low, b.Close, b.Volume)
		}
		q := fmt.Sprintf("INSERT INTO %s (symbol, interval, ts, open, high, low, close, volume) VALUES %s",
			s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse store_bars error",
				applogger.String("table", s.table),
				applogger.String("symbol", symbol),
				applogger.Int("offset", start),
				applogger.Error(err),
			)
			return fmt.Errorf("insert bars: %w", err)
		}
	}
	s.l.Info("clickhouse store_bars ok",
		applogger.String("symbol", symbol),
		applogger.Int("rows", len(bars)),
	)
	return nil
}

// Health pings the database.
func (s *CHBarSource) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

var _ domrepo.BarSource = (*CHBarSource)(nil)
