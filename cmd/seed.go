package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/langarchive/catalog/internal/catalog"
	"github.com/langarchive/catalog/internal/log"
	"github.com/langarchive/catalog/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill an empty catalog database with demo records",
	Long: `Fill an empty catalog database with a small set of languoids,
collaborators, collections and items that reference each other.

Nothing is written when the database already holds languoids.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, _, cleanup, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		n, err := seed(cmd.Context(), st)
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "database already has records, nothing seeded")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d records into %s\n", n, cfg.DBPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

type seedRecord struct {
	key    string
	fields map[string]catalog.Value
	// refs maps a relationship field to the keys of the records it links.
	refs map[string][]string
}

type seedBatch struct {
	kind    string
	records []seedRecord
}

func txt(s string) catalog.Text { return catalog.Text(s) }

var demoData = []seedBatch{
	{kind: "languoids", records: []seedRecord{
		{key: "atha1245", fields: map[string]catalog.Value{"glottocode": txt("atha1245"), "name": txt("Athabaskan-Eyak-Tlingit"), "level": txt("family")}},
		{key: "ahtn1243", fields: map[string]catalog.Value{"glottocode": txt("ahtn1243"), "name": txt("Ahtna"), "level": txt("language"), "iso_code": txt("aht"), "region": txt("Alaska")}, refs: map[string][]string{"parent_id": {"atha1245"}}},
		{key: "dena1236", fields: map[string]catalog.Value{"glottocode": txt("dena1236"), "name": txt("Dena'ina"), "level": txt("language"), "iso_code": txt("tfn"), "region": txt("Alaska"), "alt_names": catalog.Tags{"Tanaina"}}, refs: map[string][]string{"parent_id": {"atha1245"}}},
		{key: "tlin1245", fields: map[string]catalog.Value{"glottocode": txt("tlin1245"), "name": txt("Tlingit"), "level": txt("language"), "iso_code": txt("tli"), "region": txt("Southeast Alaska")}, refs: map[string][]string{"parent_id": {"atha1245"}}},
	}},
	{kind: "collaborators", records: []seedRecord{
		{key: "C-001", fields: map[string]catalog.Value{"collaborator_id": txt("C-001"), "name": txt("Mary Tyone"), "origin": txt("Copper Center"), "birth_year": catalog.Number("1931"), "roles": catalog.Tags{"speaker", "consultant"}}, refs: map[string][]string{"native_languages": {"ahtn1243"}}},
		{key: "C-002", fields: map[string]catalog.Value{"collaborator_id": txt("C-002"), "name": txt("James Kari"), "roles": catalog.Tags{"collector", "linguist"}}},
		{key: "C-003", fields: map[string]catalog.Value{"collaborator_id": txt("C-003"), "name": txt("Anonymous speaker"), "anonymous": catalog.Bool(true), "roles": catalog.Tags{"speaker"}}, refs: map[string][]string{"native_languages": {"dena1236"}}},
	}},
	{kind: "collections", records: []seedRecord{
		{key: "JK", fields: map[string]catalog.Value{"collection_abbr": txt("JK"), "name": txt("James Kari field recordings"), "access_level": txt("open"), "keywords": catalog.Tags{"place names", "narratives"}, "extent": txt("212 tapes")}, refs: map[string][]string{"collector_id": {"C-002"}, "languages": {"ahtn1243", "dena1236"}}},
		{key: "TL", fields: map[string]catalog.Value{"collection_abbr": txt("TL"), "name": txt("Tlingit song collection"), "access_level": txt("restricted")}, refs: map[string][]string{"languages": {"tlin1245"}}},
	}},
	{kind: "items", records: []seedRecord{
		{key: "JK-001", fields: map[string]catalog.Value{"catalog_number": txt("JK-001"), "title": txt("Ahtna place names, Copper River"), "access_level": txt("open"), "duration_minutes": catalog.Number("62"), "keywords": catalog.Tags{"place names"}, "digitized": catalog.Bool(true)}, refs: map[string][]string{"collection_id": {"JK"}, "collector_id": {"C-002"}, "languages": {"ahtn1243"}}},
		{key: "JK-002", fields: map[string]catalog.Value{"catalog_number": txt("JK-002"), "title": txt("Dena'ina creation story"), "access_level": txt("open"), "duration_minutes": catalog.Number("41.5"), "keywords": catalog.Tags{"narratives"}}, refs: map[string][]string{"collection_id": {"JK"}, "collector_id": {"C-002"}, "languages": {"dena1236"}}},
		{key: "JK-003", fields: map[string]catalog.Value{"catalog_number": txt("JK-003"), "title": txt("Elicitation session with Mary Tyone"), "access_level": txt("restricted"), "duration_minutes": catalog.Number("95")}, refs: map[string][]string{"collection_id": {"JK"}, "languages": {"ahtn1243"}}},
		{key: "TL-001", fields: map[string]catalog.Value{"catalog_number": txt("TL-001"), "title": txt("Paddle songs"), "access_level": txt("closed"), "keywords": catalog.Tags{"songs"}}, refs: map[string][]string{"collection_id": {"TL"}, "languages": {"tlin1245"}}},
	}},
}

// seed writes demoData in dependency order and returns the number of records
// created. It returns zero when languoids already exist.
func seed(ctx context.Context, st store.Store) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	existing, err := st.Fetch(ctx, "languoids", store.Page{Limit: 1})
	if err != nil {
		return 0, fmt.Errorf("checking for existing records: %w", err)
	}
	if existing.Total > 0 {
		return 0, nil
	}

	ids := make(map[string]int64)
	total := 0
	for _, batch := range demoData {
		schema, err := catalog.Lookup(batch.kind)
		if err != nil {
			return total, err
		}
		for _, rec := range batch.records {
			row, err := seedRow(schema, rec, ids)
			if err != nil {
				return total, err
			}
			// One row per request so later rows can reference earlier ones.
			resp, err := st.Save(ctx, batch.kind, []store.SaveRow{row})
			if err != nil {
				return total, fmt.Errorf("seeding %s %s: %w", batch.kind, rec.key, err)
			}
			if !resp.Success || len(resp.Saved) != 1 {
				return total, fmt.Errorf("seeding %s %s: %+v", batch.kind, rec.key, resp.Errors)
			}
			ids[rec.key] = resp.Saved[0].ID
			total++
		}
		log.Info(log.CatStore, "seeded", "kind", batch.kind, "records", len(batch.records))
	}
	return total, nil
}

func seedRow(schema catalog.Schema, rec seedRecord, ids map[string]int64) (store.SaveRow, error) {
	fields := make(map[string]catalog.Value, len(rec.fields)+len(rec.refs))
	for f, val := range rec.fields {
		fields[f] = val
	}
	for f, keys := range rec.refs {
		col, ok := schema.Column(f)
		if !ok {
			return store.SaveRow{}, fmt.Errorf("seed %s %s: unknown field %q", schema.Kind, rec.key, f)
		}
		refs := make(catalog.RefList, 0, len(keys))
		for _, k := range keys {
			id, ok := ids[k]
			if !ok {
				return store.SaveRow{}, fmt.Errorf("seed %s %s: %s references unknown %q", schema.Kind, rec.key, f, k)
			}
			refs = append(refs, catalog.Ref{ID: id})
		}
		if col.Type == catalog.TypeRelationship {
			fields[f] = refs[0]
		} else {
			fields[f] = refs
		}
	}
	return store.SaveRow{RowID: "seed-" + rec.key, Fields: fields}, nil
}
