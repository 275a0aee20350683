package repo

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"creatorsupport/internal/infra"
)

type valueRow struct {
	vals []any
	err  error
}

func (r valueRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.vals)
}

func assign(dest []any, vals []any) error {
	if len(dest) != len(vals) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(vals))
	}
	for i, d := range dest {
		dv := reflect.ValueOf(d).Elem()
		if vals[i] == nil {
			dv.Set(reflect.Zero(dv.Type()))
			continue
		}
		dv.Set(reflect.ValueOf(vals[i]))
	}
	return nil
}

type sliceRows struct {
	data [][]any
	pos  int
	err  error
}

func (r *sliceRows) Close() {}
func (r *sliceRows) Err() error { return r.err }
func (r *sliceRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }
func (r *sliceRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *sliceRows) RawValues() [][]byte { return nil }
func (r *sliceRows) Conn() *pgx.Conn { return nil }
func (r *sliceRows) Values() ([]any, error) {
	return nil, errors.New("values not supported in test rows")
}

func (r *sliceRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *sliceRows) Scan(dest ...any) error {
	return assign(dest, r.data[r.pos-1])
}

// stubTx answers queries by their constant text. Unknown QueryRow calls
// report no rows.
type stubTx struct {
	rows    map[string]pgx.Row
	lists   map[string][][]any
	execErr error

	queries []string
	args    [][]any
	txCalls int
}

func newStubTx() *stubTx {
	return &stubTx{rows: map[string]pgx.Row{}, lists: map[string][][]any{}}
}

func (s *stubTx) record(query string, args []any) {
	s.queries = append(s.queries, query)
	s.args = append(s.args, args)
}

func (s *stubTx) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.record(query, args)
	return pgconn.NewCommandTag("UPDATE 1"), s.execErr
}

func (s *stubTx) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.record(query, args)
	if row, ok := s.rows[query]; ok {
		return row
	}
	return valueRow{err: pgx.ErrNoRows}
}

func (s *stubTx) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	s.record(query, args)
	data, ok := s.lists[query]
	if !ok {
		return nil, errors.New("unexpected query")
	}
	return &sliceRows{data: data}, nil
}

func (s *stubTx) InTx(ctx context.Context, fn func(tx infra.SQLExecutor) error) error {
	s.txCalls++
	return fn(s)
}

var _ infra.TxExecutor = (*stubTx)(nil)
