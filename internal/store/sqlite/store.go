package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/langarchive/catalog/internal/catalog"
	"github.com/langarchive/catalog/internal/log"
	"github.com/langarchive/catalog/internal/store"
)

const (
	fetchAllPageSize  = 500
	defaultSearchSize = 20
	maxInArgs         = 500
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements store.Store on a catalog database.
type Store struct {
	db  *DB
	now func() time.Time

	mu          sync.Mutex
	lastVersion int64
	dataVersion int64
}

var _ store.Store = (*Store)(nil)

// NewStore creates a store over db.
func NewStore(db *DB) *Store {
	return &Store{db: db, now: time.Now}
}

// nextVersion returns a strictly increasing modification stamp.
func (s *Store) nextVersion() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.now().UnixNano()
	if v <= s.lastVersion {
		v = s.lastVersion + 1
	}
	s.lastVersion = v
	return v
}

func lookup(kind string) (catalog.Schema, error) {
	schema, err := catalog.Lookup(kind)
	if err != nil {
		return catalog.Schema{}, fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}
	return schema, nil
}

func transport(op string, err error) error {
	if err == nil {
		return nil
	}
	var te *store.TransportError
	if errors.As(err, &te) || errors.Is(err, store.ErrNotFound) {
		return err
	}
	return &store.TransportError{Op: op, Err: err}
}

// Fetch returns one page of kind ordered by id.
func (s *Store) Fetch(ctx context.Context, kind string, page store.Page) (store.FetchResult, error) {
	schema, err := lookup(kind)
	if err != nil {
		return store.FetchResult{}, err
	}

	var total int
	if err := s.db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quote(kind)).Scan(&total); err != nil {
		return store.FetchResult{}, transport("fetch", fmt.Errorf("failed to count %s: %w", kind, err))
	}

	limit := page.Limit
	if limit <= 0 {
		limit = -1
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id LIMIT ? OFFSET ?", selectList(schema), quote(kind))
	records, err := s.queryRecords(ctx, s.db.conn, schema, query, limit, page.Offset)
	if err != nil {
		return store.FetchResult{}, transport("fetch", err)
	}
	return store.FetchResult{Records: records, Total: total}, nil
}

// FetchAll loads every record of kind in pages, reporting progress after
// each page.
func (s *Store) FetchAll(ctx context.Context, kind string, progress store.ProgressFunc) ([]catalog.Record, error) {
	var all []catalog.Record
	for offset := 0; ; offset += fetchAllPageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := s.Fetch(ctx, kind, store.Page{Offset: offset, Limit: fetchAllPageSize})
		if err != nil {
			return nil, err
		}
		all = append(all, res.Records...)
		if progress != nil {
			progress(len(all), res.Total)
		}
		if len(res.Records) < fetchAllPageSize || len(all) >= res.Total {
			return all, nil
		}
	}
}

// CheckUnique reports whether no record other than excludeID stores value in
// field.
func (s *Store) CheckUnique(ctx context.Context, kind, field string, value catalog.Value, excludeID int64) (bool, error) {
	schema, err := lookup(kind)
	if err != nil {
		return false, err
	}
	ok, err := checkUnique(ctx, s.db.conn, schema, field, value, excludeID)
	return ok, transport("check unique", err)
}

func checkUnique(ctx context.Context, q querier, schema catalog.Schema, field string, value catalog.Value, excludeID int64) (bool, error) {
	col, ok := schema.Column(field)
	if !ok || col.Field == idField {
		return false, fmt.Errorf("%w: field %s.%s", store.ErrNotFound, schema.Kind, field)
	}
	arg, err := encode(col, value)
	if err != nil {
		return false, err
	}
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ? AND id <> ?", quote(schema.Kind), quote(field))
	if err := q.QueryRowContext(ctx, query, arg, excludeID).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check uniqueness of %s: %w", field, err)
	}
	return n == 0, nil
}

// Search matches query against the label field of kind, case-insensitively.
// A query of the form "#12" matches record 12.
func (s *Store) Search(ctx context.Context, kind, query string, page store.Page) ([]catalog.Ref, error) {
	schema, err := lookup(kind)
	if err != nil {
		return nil, err
	}
	limit := page.Limit
	if limit <= 0 {
		limit = defaultSearchSize
	}

	label := quote(schema.LabelField)
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"
	idText := strings.TrimPrefix(strings.TrimSpace(query), "#")
	sqlText := fmt.Sprintf(
		`SELECT id, %s FROM %s WHERE %s LIKE ? ESCAPE '\' OR CAST(id AS TEXT) = ? ORDER BY %s COLLATE NOCASE, id LIMIT ? OFFSET ?`,
		label, quote(kind), label, label)

	rows, err := s.db.conn.QueryContext(ctx, sqlText, pattern, idText, limit, page.Offset)
	if err != nil {
		return nil, transport("search", fmt.Errorf("failed to search %s: %w", kind, err))
	}
	defer func() { _ = rows.Close() }()

	var refs []catalog.Ref
	for rows.Next() {
		var r catalog.Ref
		if err := rows.Scan(&r.ID, &r.Label); err != nil {
			return nil, transport("search", fmt.Errorf("failed to scan %s: %w", kind, err))
		}
		refs = append(refs, r)
	}
	return refs, transport("search", rows.Err())
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Resolve returns current references for ids; unknown ids are absent.
func (s *Store) Resolve(ctx context.Context, kind string, ids []int64) (map[int64]catalog.Ref, error) {
	schema, err := lookup(kind)
	if err != nil {
		return nil, err
	}
	refs, err := resolve(ctx, s.db.conn, schema, ids)
	return refs, transport("resolve", err)
}

func resolve(ctx context.Context, q querier, schema catalog.Schema, ids []int64) (map[int64]catalog.Ref, error) {
	out := make(map[int64]catalog.Ref, len(ids))
	ids = slices.Compact(slices.Sorted(slices.Values(ids)))
	for chunk := range slices.Chunk(ids, maxInArgs) {
		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		query := fmt.Sprintf("SELECT id, %s FROM %s WHERE id IN (?%s)",
			quote(schema.LabelField), quote(schema.Kind), strings.Repeat(", ?", len(chunk)-1))
		rows, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", schema.Kind, err)
		}
		for rows.Next() {
			var r catalog.Ref
			if err := rows.Scan(&r.ID, &r.Label); err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("failed to scan %s: %w", schema.Kind, err)
			}
			out[r.ID] = r
		}
		err = rows.Err()
		_ = rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) queryRecords(ctx context.Context, q querier, schema catalog.Schema, query string, args ...any) ([]catalog.Record, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", schema.Kind, err)
	}
	var records []catalog.Record
	for rows.Next() {
		rec, err := scanRecord(schema, rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan %s: %w", schema.Kind, err)
		}
		records = append(records, rec)
	}
	err = rows.Err()
	_ = rows.Close()
	if err != nil {
		return nil, err
	}
	if err := resolveLabels(ctx, q, schema, records); err != nil {
		return nil, err
	}
	return records, nil
}

// resolveLabels fills the labels of every reference in records with one
// query per target kind.
func resolveLabels(ctx context.Context, q querier, schema catalog.Schema, records []catalog.Record) error {
	wanted := make(map[string][]int64)
	for _, col := range schema.Columns {
		if col.Target == "" {
			continue
		}
		for _, rec := range records {
			switch v := rec.Values[col.Field].(type) {
			case catalog.Ref:
				wanted[col.Target] = append(wanted[col.Target], v.ID)
			case catalog.RefList:
				for _, r := range v {
					wanted[col.Target] = append(wanted[col.Target], r.ID)
				}
			}
		}
	}

	labels := make(map[string]map[int64]catalog.Ref, len(wanted))
	for target, ids := range wanted {
		targetSchema, err := catalog.Lookup(target)
		if err != nil {
			return err
		}
		refs, err := resolve(ctx, q, targetSchema, ids)
		if err != nil {
			return err
		}
		labels[target] = refs
	}

	for _, col := range schema.Columns {
		found, ok := labels[col.Target]
		if !ok {
			continue
		}
		for _, rec := range records {
			switch v := rec.Values[col.Field].(type) {
			case catalog.Ref:
				if r, ok := found[v.ID]; ok {
					rec.Values[col.Field] = r
				}
			case catalog.RefList:
				for i, ref := range v {
					if r, ok := found[ref.ID]; ok {
						v[i] = r
					}
				}
			}
		}
	}
	return nil
}

func (s *Store) get(ctx context.Context, q querier, schema catalog.Schema, id int64) (catalog.Record, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", selectList(schema), quote(schema.Kind))
	records, err := s.queryRecords(ctx, q, schema, query, id)
	if err != nil {
		return catalog.Record{}, err
	}
	if len(records) == 0 {
		return catalog.Record{}, fmt.Errorf("%w: %s %d", store.ErrNotFound, schema.Kind, id)
	}
	return records[0], nil
}

// ExternalChange reports whether another process committed to the database
// since the previous call.
func (s *Store) ExternalChange(ctx context.Context) (bool, error) {
	var v int64
	if err := s.db.conn.QueryRowContext(ctx, "PRAGMA data_version").Scan(&v); err != nil {
		return false, transport("data version", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.dataVersion != 0 && v != s.dataVersion
	s.dataVersion = v
	if changed {
		log.Debug(log.CatStore, "external change detected", "data_version", v)
	}
	return changed, nil
}
