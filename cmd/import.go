package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/langarchive/catalog/internal/catalog"
	"github.com/langarchive/catalog/internal/flags"
	"github.com/langarchive/catalog/internal/importer"
	"github.com/langarchive/catalog/internal/sheet"
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Preview how a CSV or XLSX file would merge into the catalog",
	Long: `Parse FILE against the configured record kind and print which rows
would be added, which existing rows would change and which lines failed.

Nothing is written. Open the file in the editor with --import to merge and
review it before saving.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	schema, err := catalog.Lookup(cfg.Kind)
	if err != nil {
		return err
	}
	st, _, cleanup, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	records, err := st.FetchAll(ctx, schema.Kind, func(int, int) {})
	if err != nil {
		return fmt.Errorf("loading %s: %w", schema.Kind, err)
	}
	sh := sheet.New(schema)
	sh.Reset(records, false)

	opts := importer.Options{XLSX: flags.New(cfg.Flags).Enabled(flags.FlagXLSXImport)}
	res, err := importer.Load(ctx, args[0], schema, st, opts)
	if err != nil {
		return err
	}
	part := importer.PartitionRows(res, sh)
	writePreview(cmd.OutOrStdout(), schema, res, part)
	return nil
}

// writePreview prints one table row per new, modified or failed line and a
// summary of the partition.
func writePreview(w io.Writer, schema catalog.Schema, res importer.Result, part importer.Partition) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"LINE", "STATUS", "ROW", "CHANGES"})

	for _, r := range part.NewRows {
		tw.AppendRow(table.Row{r.Line, "new", "", describe(schema, r.Values)})
	}
	for _, m := range part.ModifiedRows {
		tw.AppendRow(table.Row{m.Line, "modified", string(m.Row), describe(schema, m.Values)})
	}
	for _, e := range part.Errors {
		msg := e.Message
		if e.Field != "" {
			msg = e.Field + ": " + msg
		}
		tw.AppendRow(table.Row{e.Line, "error", "", msg})
	}
	tw.SortBy([]table.SortBy{{Name: "LINE", Mode: table.AscNumeric}})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignLeft},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignLeft, WidthMax: 80},
	})
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Footer = text.FormatDefault
	tw.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d new, %d modified, %d unchanged, %d failed",
		len(part.NewRows), len(part.ModifiedRows), len(part.UnchangedRows), len(part.Errors))})
	tw.Render()

	if len(res.Ignored) > 0 {
		fmt.Fprintf(w, "ignored columns: %s\n", strings.Join(res.Ignored, ", "))
	}
}

// describe lists field assignments in column order.
func describe(schema catalog.Schema, values map[string]catalog.Value) string {
	fields := make([]string, 0, len(values))
	for f := range values {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return schema.Index(fields[i]) < schema.Index(fields[j]) })

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		title := f
		if col, ok := schema.Column(f); ok {
			title = col.Title
		}
		parts = append(parts, fmt.Sprintf("%s=%s", title, catalog.Format(values[f])))
	}
	return strings.Join(parts, "; ")
}
