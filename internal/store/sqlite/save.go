package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/langarchive/catalog/internal/catalog"
	"github.com/langarchive/catalog/internal/log"
	"github.com/langarchive/catalog/internal/store"
)

// rowResult is the outcome of saving one row.
type rowResult struct {
	saved *catalog.Record
	err   *store.SaveError
}

// Save applies rows in one transaction, each behind its own savepoint. A row
// whose fields fail validation is rolled back to its savepoint and the rest
// still commit. Any other failure rolls back the whole batch, so a transport
// error never leaves part of the batch written. For an existing record, a
// field conflicts when its stored value differs from both the client's
// original and the submitted value; the remaining fields are still written
// and the stored record is returned as CurrentData.
func (s *Store) Save(ctx context.Context, kind string, rows []store.SaveRow) (store.SaveResponse, error) {
	schema, err := lookup(kind)
	if err != nil {
		return store.SaveResponse{}, err
	}

	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return store.SaveResponse{}, transport("save", fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	resp := store.SaveResponse{Success: true}
	for _, row := range rows {
		res, err := s.saveRow(ctx, tx, schema, row)
		if err != nil {
			log.ErrorErr(log.CatStore, "save row failed, batch rolled back", err, "kind", kind, "row", row.RowID)
			return store.SaveResponse{}, transport("save", err)
		}
		if res.saved != nil {
			resp.Saved = append(resp.Saved, *res.saved)
		}
		if res.err != nil {
			resp.Success = false
			resp.Errors = append(resp.Errors, *res.err)
		}
	}
	if err := tx.Commit(); err != nil {
		log.ErrorErr(log.CatStore, "save commit failed", err, "kind", kind, "rows", len(rows))
		return store.SaveResponse{}, transport("save", fmt.Errorf("failed to commit: %w", err))
	}
	log.Info(log.CatStore, "save applied",
		"kind", kind, "rows", len(rows), "saved", len(resp.Saved), "errors", len(resp.Errors))
	return resp, nil
}

const savepoint = "save_row"

// saveRow writes one row behind a savepoint, rolling back to it when the row
// is rejected.
func (s *Store) saveRow(ctx context.Context, tx *sql.Tx, schema catalog.Schema, row store.SaveRow) (rowResult, error) {
	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+savepoint); err != nil {
		return rowResult{}, fmt.Errorf("failed to open savepoint: %w", err)
	}

	var (
		res rowResult
		err error
	)
	if row.IsDraft() {
		res, err = s.insert(ctx, tx, schema, row)
	} else {
		res, err = s.update(ctx, tx, schema, row)
	}
	if err != nil {
		return rowResult{}, err
	}

	if res.err != nil && res.err.Type == store.ErrorValidation {
		if _, err := tx.ExecContext(ctx, "ROLLBACK TO "+savepoint); err != nil {
			return rowResult{}, fmt.Errorf("failed to roll back row: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, "RELEASE "+savepoint); err != nil {
		return rowResult{}, fmt.Errorf("failed to release savepoint: %w", err)
	}
	return res, nil
}

func validationError(row store.SaveRow, field, msg string) rowResult {
	return rowResult{err: &store.SaveError{
		Type:    store.ErrorValidation,
		RowID:   row.RowID,
		Field:   field,
		Message: msg,
	}}
}

// validate re-runs the field checks a client may have skipped or raced.
func validate(ctx context.Context, q querier, schema catalog.Schema, col catalog.Column, v catalog.Value, selfID int64) (string, error) {
	if err := catalog.Check(col, v); err != nil {
		var ve *catalog.ValidationError
		if errors.As(err, &ve) {
			return ve.Message, nil
		}
		return err.Error(), nil
	}

	if col.Unique && !catalog.IsEmpty(col.Type, v) {
		ok, err := checkUnique(ctx, q, schema, col.Field, v, selfID)
		if err != nil {
			return "", err
		}
		if !ok {
			return fmt.Sprintf("%s %q is already in use", col.Title, catalog.Format(v)), nil
		}
	}

	if col.Target != "" {
		ids := refIDs(v)
		if len(ids) == 0 {
			return "", nil
		}
		target, err := catalog.Lookup(col.Target)
		if err != nil {
			return "", err
		}
		found, err := resolve(ctx, q, target, ids)
		if err != nil {
			return "", err
		}
		for _, id := range ids {
			if _, ok := found[id]; !ok {
				return fmt.Sprintf("%s #%d does not exist", col.Target, id), nil
			}
		}
	}
	return "", nil
}

func refIDs(v catalog.Value) []int64 {
	switch v := v.(type) {
	case catalog.Ref:
		return []int64{v.ID}
	case catalog.RefList:
		ids := make([]int64, len(v))
		for i, r := range v {
			ids[i] = r.ID
		}
		return ids
	}
	return nil
}

func (s *Store) insert(ctx context.Context, tx *sql.Tx, schema catalog.Schema, row store.SaveRow) (rowResult, error) {
	cols := storedColumns(schema)
	names := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+1)

	for field := range row.Fields {
		if col, ok := schema.Column(field); !ok || col.Type == catalog.TypeReadOnly {
			return validationError(row, field, fmt.Sprintf("%s is not an editable field", field)), nil
		}
	}

	for _, col := range cols {
		v, ok := row.Fields[col.Field]
		if !ok {
			v = catalog.Empty(col.Type)
		}
		msg, err := validate(ctx, tx, schema, col, v, 0)
		if err != nil {
			return rowResult{}, err
		}
		if msg != "" {
			return validationError(row, col.Field, msg), nil
		}
		arg, err := encode(col, v)
		if err != nil {
			return rowResult{}, err
		}
		names = append(names, quote(col.Field))
		args = append(args, arg)
	}
	names = append(names, versionField)
	args = append(args, s.nextVersion())

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?%s)",
		quote(schema.Kind), strings.Join(names, ", "), strings.Repeat(", ?", len(names)-1))
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return rowResult{}, fmt.Errorf("failed to insert %s: %w", schema.Kind, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return rowResult{}, fmt.Errorf("failed to read inserted id: %w", err)
	}

	rec, err := s.get(ctx, tx, schema, id)
	if err != nil {
		return rowResult{}, err
	}
	rec.ClientID = row.RowID
	log.Debug(log.CatStore, "inserted record", "kind", schema.Kind, "id", id, "client_id", row.RowID)
	return rowResult{saved: &rec}, nil
}

func (s *Store) update(ctx context.Context, tx *sql.Tx, schema catalog.Schema, row store.SaveRow) (rowResult, error) {
	current, err := s.get(ctx, tx, schema, row.ID)
	if errors.Is(err, store.ErrNotFound) {
		return validationError(row, "", fmt.Sprintf("%s #%d no longer exists", schema.Kind, row.ID)), nil
	}
	if err != nil {
		return rowResult{}, err
	}

	var conflicts []string
	var sets []string
	var args []any

	fields := make([]string, 0, len(row.Fields))
	for field := range row.Fields {
		fields = append(fields, field)
	}
	slices.Sort(fields)

	for _, field := range fields {
		col, ok := schema.Column(field)
		if !ok || col.Type == catalog.TypeReadOnly {
			return validationError(row, field, fmt.Sprintf("%s is not an editable field", field)), nil
		}
		submitted := row.Fields[field]
		stored := current.Value(col)

		// An unchanged version means nobody else has written the record.
		if row.Version != current.Version {
			original, ok := row.Originals[field]
			if !ok {
				original = catalog.Empty(col.Type)
			}
			if !catalog.Equal(col.Type, stored, original) && !catalog.Equal(col.Type, stored, submitted) {
				conflicts = append(conflicts, field)
				continue
			}
		}
		if catalog.Equal(col.Type, stored, submitted) {
			continue
		}

		msg, err := validate(ctx, tx, schema, col, submitted, row.ID)
		if err != nil {
			return rowResult{}, err
		}
		if msg != "" {
			return validationError(row, field, msg), nil
		}
		arg, err := encode(col, submitted)
		if err != nil {
			return rowResult{}, err
		}
		sets = append(sets, quote(field)+" = ?")
		args = append(args, arg)
	}

	if len(sets) > 0 {
		sets = append(sets, versionField+" = ?")
		args = append(args, s.nextVersion(), row.ID)
		query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", quote(schema.Kind), strings.Join(sets, ", "))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return rowResult{}, fmt.Errorf("failed to update %s %d: %w", schema.Kind, row.ID, err)
		}
		if current, err = s.get(ctx, tx, schema, row.ID); err != nil {
			return rowResult{}, err
		}
	}

	if len(conflicts) > 0 {
		log.Info(log.CatStore, "save conflict", "kind", schema.Kind, "id", row.ID, "fields", strings.Join(conflicts, ","))
		return rowResult{err: &store.SaveError{
			Type:              store.ErrorConflict,
			RowID:             row.RowID,
			ConflictingFields: conflicts,
			CurrentData:       &current,
			Message:           fmt.Sprintf("%d field(s) changed by someone else", len(conflicts)),
		}}, nil
	}
	return rowResult{saved: &current}, nil
}
