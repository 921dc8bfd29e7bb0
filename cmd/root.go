package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/langarchive/catalog/internal/app"
	"github.com/langarchive/catalog/internal/config"
	"github.com/langarchive/catalog/internal/flags"
	"github.com/langarchive/catalog/internal/log"
	"github.com/langarchive/catalog/internal/store"
	"github.com/langarchive/catalog/internal/store/sqlite"
	"github.com/langarchive/catalog/internal/tracing"
	"github.com/langarchive/catalog/internal/ui/styles"
)

func init() {
	// Query the terminal background before any Bubble Tea program starts so
	// the OSC 11 reply does not race with the input loop.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
	// cfgPath is the config file column widths are written back to.
	cfgPath string
)

// v uses "::" so dotted theme color keys such as "grid.cursor" stay flat.
var v = viper.NewWithOptions(viper.KeyDelimiter("::"))

var rootCmd = &cobra.Command{
	Use:   "catalog",
	Short: "A terminal spreadsheet for batch editing a language archive catalog",
	Long: `A terminal spreadsheet for editing many catalog records at once.

Edits stay local until saved. Saving sends every changed row in one batch,
reports per-row validation errors and flags fields another client changed.`,
	Version:           version,
	PersistentPreRunE: setup,
	RunE:              runApp,
	SilenceUsage:      true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .catalog/config.yaml or ~/.config/catalog/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "path to the catalog database")
	rootCmd.PersistentFlags().StringP("kind", "k", "", "record kind to edit: items, collections, collaborators, languoids")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "write a debug log (path from CATALOG_LOG, default debug.log)")
	rootCmd.Flags().String("import", "", "merge a CSV or XLSX file into the sheet once it has loaded")
	rootCmd.Flags().Bool("no-auto-refresh", false, "do not reload when another process writes to the database")

	_ = v.BindPFlag("db_path", rootCmd.PersistentFlags().Lookup("db"))
	_ = v.BindPFlag("kind", rootCmd.PersistentFlags().Lookup("kind"))
}

func initConfig() {
	var err error
	cfg, cfgPath, err = loadConfig(v, cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
}

// setDefaults registers every default so environment and flag overrides
// apply to keys missing from the file.
func setDefaults(v *viper.Viper, d config.Config) {
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("kind", d.Kind)
	v.SetDefault("auto_refresh", d.AutoRefresh)
	v.SetDefault("auto_refresh_debounce", d.AutoRefreshDebounce)
	v.SetDefault("grid::overscan", d.Grid.Overscan)
	v.SetDefault("grid::row_height", d.Grid.RowHeight)
	v.SetDefault("grid::page_size", d.Grid.PageSize)
	v.SetDefault("grid::history_depth", d.Grid.HistoryDepth)
	v.SetDefault("editor::search_debounce", d.Editor.SearchDebounce)
	v.SetDefault("editor::blur_grace", d.Editor.BlurGrace)
	v.SetDefault("editor::search_page_size", d.Editor.SearchPageSize)
	v.SetDefault("editor::search_cache_ttl", d.Editor.SearchCacheTTL)
	v.SetDefault("ui::show_status_bar", d.UI.ShowStatusBar)
	v.SetDefault("ui::markdown_style", d.UI.MarkdownStyle)
	v.SetDefault("tracing::enabled", d.Tracing.Enabled)
	v.SetDefault("tracing::exporter", d.Tracing.Exporter)
	v.SetDefault("tracing::file_path", d.Tracing.FilePath)
	v.SetDefault("tracing::otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing::sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing::service_name", d.Tracing.ServiceName)
}

// loadConfig reads the config file. Lookup order: explicit path,
// .catalog/config.yaml, then ~/.config/catalog/config.yaml. When none exists
// a commented default is written to .catalog/config.yaml. It returns the
// path column widths should be saved to.
func loadConfig(v *viper.Viper, explicit string) (config.Config, string, error) {
	setDefaults(v, config.Defaults())
	v.SetEnvPrefix("CATALOG")
	v.AutomaticEnv()

	if explicit != "" {
		v.SetConfigFile(explicit)
	} else if _, err := os.Stat(config.DefaultConfigPath); err == nil {
		v.SetConfigFile(config.DefaultConfigPath)
	} else {
		home, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(home, ".config", "catalog"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config.Defaults(), explicit, fmt.Errorf("reading config: %w", err)
		}
		if writeErr := config.WriteDefaultConfig(config.DefaultConfigPath); writeErr == nil {
			v.SetConfigFile(config.DefaultConfigPath)
			_ = v.ReadInConfig()
		}
	}

	var c config.Config
	if err := v.Unmarshal(&c); err != nil {
		return config.Defaults(), "", fmt.Errorf("decoding config: %w", err)
	}
	path := v.ConfigFileUsed()
	if path == "" {
		path = config.DefaultConfigPath
	}
	return c, path, nil
}

// setup starts debug logging, applies the theme and validates the config.
func setup(cmd *cobra.Command, _ []string) error {
	if debugFlag || os.Getenv("CATALOG_DEBUG") != "" {
		logPath := os.Getenv("CATALOG_LOG")
		if logPath == "" {
			logPath = "debug.log"
		}
		cleanup, err := log.Init(logPath)
		if err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		cobra.OnFinalize(cleanup)
		if name := os.Getenv("CATALOG_LOG_LEVEL"); name != "" {
			level, ok := log.ParseLevel(name)
			if !ok {
				return fmt.Errorf("unknown CATALOG_LOG_LEVEL %q", name)
			}
			log.SetMinLevel(level)
		}
		log.Info(log.CatConfig, "catalog starting", "version", version, "config", cfgPath, "command", cmd.Name())
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := styles.ApplyTheme(cfg.Theme.Styles()); err != nil {
		return fmt.Errorf("applying theme: %w", err)
	}
	return nil
}

// openStore opens the database and wraps it with tracing and search caching.
// The returned cleanup flushes traces and closes the database.
func openStore(c config.Config) (store.Store, *sqlite.Store, func(), error) {
	db, err := sqlite.NewDB(c.DBPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening catalog database: %w", err)
	}
	base := sqlite.NewStore(db)

	provider, err := tracing.NewProvider(c.Tracing)
	if err != nil {
		_ = db.Close()
		return nil, nil, nil, fmt.Errorf("initializing tracing: %w", err)
	}

	var st store.Store = base
	if provider.Enabled() {
		st = store.NewTraced(st, provider.Tracer())
	}
	if c.Editor.SearchCacheTTL > 0 {
		st = store.NewCachedSearch(st, c.Editor.SearchCacheTTL)
	}

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			log.ErrorErr(log.CatStore, "tracing shutdown failed", err)
		}
		if err := db.Close(); err != nil {
			log.ErrorErr(log.CatStore, "closing database failed", err)
		}
	}
	return st, base, cleanup, nil
}

func runApp(cmd *cobra.Command, _ []string) error {
	if noAutoRefresh, _ := cmd.Flags().GetBool("no-auto-refresh"); noAutoRefresh {
		cfg.AutoRefresh = false
	}
	importPath, _ := cmd.Flags().GetString("import")

	st, base, cleanup, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	model, err := app.New(app.Options{
		Store:      st,
		Config:     cfg,
		ConfigPath: cfgPath,
		DBPath:     cfg.DBPath,
		Changed:    base.ExternalChange,
		Flags:      flags.New(cfg.Flags),
		ImportPath: importPath,
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err = p.Run()

	if closeErr := model.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(ver string) {
	version = ver
	rootCmd.Version = ver
}
