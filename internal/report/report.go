// internal/report/report.go
package report

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the part of *pgxpool.Pool the summary needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var _ Querier = (*pgxpool.Pool)(nil)

// Summary holds partner counts grouped by status and by risk level.
type Summary struct {
	Total       int64            `json:"total"`
	ByStatus    map[string]int64 `json:"by_status"`
	ByRiskLevel map[string]int64 `json:"by_risk_level"`
}

// Reporter reads partner summaries straight from Postgres.
type Reporter struct {
	db Querier
}

func New(db Querier) *Reporter {
	return &Reporter{db: db}
}

// Connect opens a pool for dsn and verifies it.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

// PartnerSummary counts partners per status and per risk level.
func (r *Reporter) PartnerSummary(ctx context.Context) (*Summary, error) {
	byStatus, err := r.countBy(ctx, `SELECT status, COUNT(*) FROM partners GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting partners by status: %w", err)
	}
	byRisk, err := r.countBy(ctx, `SELECT risk_level, COUNT(*) FROM partners GROUP BY risk_level`)
	if err != nil {
		return nil, fmt.Errorf("counting partners by risk level: %w", err)
	}

	summary := &Summary{ByStatus: byStatus, ByRiskLevel: byRisk}
	for _, n := range byStatus {
		summary.Total += n
	}
	return summary, nil
}

func (r *Reporter) countBy(ctx context.Context, query string) (map[string]int64, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			key string
			n   int64
		)
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		counts[key] = n
	}
	return counts, rows.Err()
}

// Write renders the summary as two aligned tables.
func (s *Summary) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "STATUS\tCOUNT\n")
	writeCounts(tw, s.ByStatus)
	fmt.Fprintf(tw, "\nRISK LEVEL\tCOUNT\n")
	writeCounts(tw, s.ByRiskLevel)
	fmt.Fprintf(tw, "\nTOTAL\t%d\n", s.Total)
	return tw.Flush()
}

func writeCounts(w io.Writer, counts map[string]int64) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s\t%d\n", k, counts[k])
	}
}
