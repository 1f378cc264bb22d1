package report

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countRow struct {
	key string
	n   int64
}

// fakeRows implements the pgx.Rows methods the reporter calls.
type fakeRows struct {
	pgx.Rows
	rows []countRow
	pos  int
}

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos <= len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.pos-1]
	*dest[0].(*string) = row.key
	*dest[1].(*int64) = row.n
	return nil
}

func (r *fakeRows) Err() error { return nil }
func (r *fakeRows) Close()     {}

type fakeQuerier struct {
	results map[string][]countRow
	err     error
}

func (q *fakeQuerier) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	if q.err != nil {
		return nil, q.err
	}
	for column, rows := range q.results {
		if strings.HasPrefix(sql, "SELECT "+column+",") {
			return &fakeRows{rows: rows}, nil
		}
	}
	return &fakeRows{}, nil
}

func TestPartnerSummary(t *testing.T) {
	q := &fakeQuerier{results: map[string][]countRow{
		"status":     {{"approved", 3}, {"pending", 2}},
		"risk_level": {{"low", 4}, {"high", 1}},
	}}

	summary, err := New(q).PartnerSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), summary.Total)
	assert.Equal(t, map[string]int64{"approved": 3, "pending": 2}, summary.ByStatus)
	assert.Equal(t, map[string]int64{"low": 4, "high": 1}, summary.ByRiskLevel)

	var buf bytes.Buffer
	require.NoError(t, summary.Write(&buf))
	out := buf.String()
	assert.Contains(t, out, "STATUS")
	assert.Contains(t, out, "RISK LEVEL")
	assert.Less(t, strings.Index(out, "approved"), strings.Index(out, "pending"))
	assert.Contains(t, out, "TOTAL  5")
}

func TestPartnerSummaryQueryError(t *testing.T) {
	q := &fakeQuerier{err: errors.New("connection refused")}

	_, err := New(q).PartnerSummary(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "counting partners by status")
}
