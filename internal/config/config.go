// Package config provides configuration types, defaults, and persistence for catalog.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/langarchive/catalog/internal/catalog"
	"github.com/langarchive/catalog/internal/log"
	"github.com/langarchive/catalog/internal/tracing"
	"github.com/langarchive/catalog/internal/ui/styles"
)

// DefaultConfigPath is where a missing config is created.
const DefaultConfigPath = ".catalog/config.yaml"

// DefaultDBPath is the catalog database used when db_path is unset.
const DefaultDBPath = ".catalog/catalog.db"

// Config holds all catalog configuration.
type Config struct {
	DBPath              string          `mapstructure:"db_path"`
	Kind                string          `mapstructure:"kind"`
	AutoRefresh         bool            `mapstructure:"auto_refresh"`
	AutoRefreshDebounce time.Duration   `mapstructure:"auto_refresh_debounce"`
	Grid                GridConfig      `mapstructure:"grid"`
	Editor              EditorConfig    `mapstructure:"editor"`
	UI                  UIConfig        `mapstructure:"ui"`
	Theme               ThemeConfig     `mapstructure:"theme"`
	Tracing             tracing.Config  `mapstructure:"tracing"`
	Flags               map[string]bool `mapstructure:"flags"`
}

// GridConfig tunes the spreadsheet grid.
type GridConfig struct {
	// Overscan is the number of rows rendered beyond each edge of the viewport.
	Overscan int `mapstructure:"overscan"`

	// RowHeight is the height of one row in terminal lines.
	RowHeight int `mapstructure:"row_height"`

	// PageSize is the size of the first page loaded before the full population.
	PageSize int `mapstructure:"page_size"`

	// HistoryDepth bounds the undo stack.
	HistoryDepth int `mapstructure:"history_depth"`

	// ColumnWidths overrides schema widths, keyed by kind then field.
	ColumnWidths map[string]map[string]int `mapstructure:"column_widths"`
}

// EditorConfig tunes in-cell editors.
type EditorConfig struct {
	SearchDebounce time.Duration `mapstructure:"search_debounce"`
	BlurGrace      time.Duration `mapstructure:"blur_grace"`
	SearchPageSize int           `mapstructure:"search_page_size"`
	// SearchCacheTTL is how long relationship search results are reused.
	SearchCacheTTL time.Duration `mapstructure:"search_cache_ttl"`
}

// UIConfig holds UI-related settings.
type UIConfig struct {
	ShowStatusBar bool   `mapstructure:"show_status_bar"`
	MarkdownStyle string `mapstructure:"markdown_style"` // "dark" (default) or "light"
}

// ThemeConfig holds theme customization settings.
type ThemeConfig struct {
	// Preset is a built-in theme name (e.g., "nord").
	Preset string `mapstructure:"preset"`

	// Colors overrides specific color tokens. Nested YAML such as
	// grid: {cursor: "#fff"} is accepted alongside flat "grid.cursor" keys.
	Colors map[string]any `mapstructure:"colors"`
}

// FlattenedColors returns the Colors map flattened to dot-notation keys.
// This handles both nested YAML structures and already-flat keys.
func (t ThemeConfig) FlattenedColors() map[string]string {
	result := make(map[string]string)
	flattenColors("", t.Colors, result)
	return result
}

// Styles converts the theme for styles.ApplyTheme.
func (t ThemeConfig) Styles() styles.ThemeConfig {
	return styles.ThemeConfig{Preset: t.Preset, Colors: t.FlattenedColors()}
}

// flattenColors recursively flattens a nested map into dot-notation keys.
func flattenColors(prefix string, m map[string]any, result map[string]string) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		switch val := v.(type) {
		case string:
			result[key] = val
		case map[string]any:
			flattenColors(key, val, result)
		case map[any]any:
			// YAML sometimes produces map[any]any instead of map[string]any
			converted := make(map[string]any)
			for mk, mv := range val {
				if strKey, ok := mk.(string); ok {
					converted[strKey] = mv
				}
			}
			flattenColors(key, converted, result)
		}
	}
}

// Defaults returns the default configuration.
func Defaults() Config {
	tr := tracing.DefaultConfig()
	tr.FilePath = DefaultTracesFilePath()
	return Config{
		DBPath:              DefaultDBPath,
		Kind:                "items",
		AutoRefresh:         true,
		AutoRefreshDebounce: 300 * time.Millisecond,
		Grid: GridConfig{
			Overscan:     5,
			RowHeight:    1,
			PageSize:     50,
			HistoryDepth: 200,
		},
		Editor: EditorConfig{
			SearchDebounce: 300 * time.Millisecond,
			BlurGrace:      150 * time.Millisecond,
			SearchPageSize: 20,
			SearchCacheTTL: 30 * time.Second,
		},
		UI: UIConfig{
			ShowStatusBar: true,
			MarkdownStyle: "dark",
		},
		Tracing: tr,
		Flags:   map[string]bool{},
	}
}

// DefaultTracesFilePath returns the default path for trace files.
func DefaultTracesFilePath() string {
	return filepath.Join(".catalog", "traces", "traces.jsonl")
}

// Widths returns the configured column widths for kind. The map is never nil.
func (c Config) Widths(kind string) map[string]int {
	out := make(map[string]int, len(c.Grid.ColumnWidths[kind]))
	for field, w := range c.Grid.ColumnWidths[kind] {
		out[field] = w
	}
	return out
}

// SetWidth records a width override in memory.
func (c *Config) SetWidth(kind, field string, width int) {
	if c.Grid.ColumnWidths == nil {
		c.Grid.ColumnWidths = make(map[string]map[string]int)
	}
	if c.Grid.ColumnWidths[kind] == nil {
		c.Grid.ColumnWidths[kind] = make(map[string]int)
	}
	c.Grid.ColumnWidths[kind][field] = width
}

// Validate checks the configuration for errors.
func Validate(c Config) error {
	if !slices.Contains(catalog.Kinds(), c.Kind) {
		return fmt.Errorf("kind %q is not one of %v", c.Kind, catalog.Kinds())
	}
	if c.AutoRefreshDebounce < 0 {
		return fmt.Errorf("auto_refresh_debounce must not be negative")
	}
	if err := validateGrid(c.Grid); err != nil {
		return fmt.Errorf("grid: %w", err)
	}
	if err := validateEditor(c.Editor); err != nil {
		return fmt.Errorf("editor: %w", err)
	}
	switch c.UI.MarkdownStyle {
	case "", "dark", "light":
	default:
		return fmt.Errorf("ui.markdown_style must be dark or light, got %q", c.UI.MarkdownStyle)
	}
	if err := styles.ValidateTheme(c.Theme.Styles()); err != nil {
		return fmt.Errorf("theme: %w", err)
	}
	if err := ValidateTracing(c.Tracing); err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	return nil
}

func validateGrid(g GridConfig) error {
	switch {
	case g.Overscan < 0:
		return fmt.Errorf("overscan must not be negative")
	case g.RowHeight < 1:
		return fmt.Errorf("row_height must be at least 1")
	case g.PageSize < 1:
		return fmt.Errorf("page_size must be at least 1")
	case g.HistoryDepth < 1:
		return fmt.Errorf("history_depth must be at least 1")
	}
	for kind, widths := range g.ColumnWidths {
		schema, err := catalog.Lookup(kind)
		if err != nil {
			return fmt.Errorf("column_widths: %w", err)
		}
		for field, w := range widths {
			if _, ok := schema.Column(field); !ok {
				return fmt.Errorf("column_widths.%s: unknown field %q", kind, field)
			}
			if w < 1 {
				return fmt.Errorf("column_widths.%s.%s must be at least 1", kind, field)
			}
		}
	}
	return nil
}

func validateEditor(e EditorConfig) error {
	switch {
	case e.SearchDebounce < 0:
		return fmt.Errorf("search_debounce must not be negative")
	case e.BlurGrace < 0:
		return fmt.Errorf("blur_grace must not be negative")
	case e.SearchPageSize < 1:
		return fmt.Errorf("search_page_size must be at least 1")
	case e.SearchCacheTTL < 0:
		return fmt.Errorf("search_cache_ttl must not be negative")
	}
	return nil
}

// ValidateTracing validates tracing configuration.
func ValidateTracing(t tracing.Config) error {
	if !t.Enabled {
		return nil
	}
	switch t.Exporter {
	case "", "none", "file", "stdout", "otlp":
	default:
		return fmt.Errorf("exporter must be none, file, stdout or otlp, got %q", t.Exporter)
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		return fmt.Errorf("sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}
	if t.Exporter == "otlp" && t.OTLPEndpoint == "" {
		return fmt.Errorf("otlp_endpoint is required for the otlp exporter")
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Catalog Configuration

# SQLite catalog database (default: .catalog/catalog.db)
db_path: .catalog/catalog.db

# Record kind opened at startup: items, collections, collaborators, languoids
kind: items

# Reload the sheet when another process writes to the database.
# Unsaved edits and draft rows are always kept.
auto_refresh: true
auto_refresh_debounce: 300ms

# Grid settings
grid:
  overscan: 5          # Rows rendered beyond each edge of the viewport
  row_height: 1        # Terminal lines per row
  page_size: 50        # Rows shown before the full population arrives
  history_depth: 200   # Maximum undo steps
  # Column widths are written here when you resize with alt+left/right:
  # column_widths:
  #   items:
  #     title: 40

# Cell editor settings
editor:
  search_debounce: 300ms   # Delay before a relationship search is sent
  blur_grace: 150ms        # Clicks on search results within this window still count
  search_page_size: 20     # Results per relationship search
  search_cache_ttl: 30s    # How long search results are reused

# UI settings
ui:
  show_status_bar: true
  # markdown_style: dark  # Help rendering style: "dark" (default) or "light"

# Theme configuration
theme:
  # Use a preset:
  # preset: nord
  #
  # Available presets:
  #   default        - Default catalog theme
  #   nord           - Arctic, north-bluish palette
  #   high-contrast  - High contrast for accessibility
  #
  # Override specific colors (works with or without preset):
  # colors:
  #   grid.cursor: "#54A0FF"
  #   grid.conflict: "#FF8787"

# Feature flags
# flags:
#   word-diff: true     # Word-level diff in the conflict panel
#   xlsx-import: true   # Accept .xlsx files in --import and 'catalog import'

# Store tracing
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # none, file, stdout, otlp (default: file)
#   file_path: .catalog/traces/traces.jsonl
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
