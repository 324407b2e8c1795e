package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/gloss"
	"github.com/aretw0/gloss/internal/config"
	"github.com/aretw0/gloss/pkg/article"
)

var (
	verbose    bool
	adapter    string
	storePath  string
	articleDir string
	locale     string
	logFormat  string

	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gloss",
	Short: "Highlight and annotate long-form articles",
	Long: `Gloss keeps private, content-addressed annotations on markdown articles.
Each annotation names a block of the article and a range of its text, and is
stored per article as a single JSON record.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		root, err := gloss.FindRoot(wd)
		if err != nil {
			root = wd
		}

		cfg, err = config.Find(root)
		if err != nil {
			return err
		}
		applyFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		level, _ := cfg.Log.SlogLevel()
		if verbose {
			level = slog.LevelDebug
		}
		opts := &slog.HandlerOptions{Level: level}
		var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
		if strings.EqualFold(cfg.Log.Format, "json") {
			handler = slog.NewJSONHandler(os.Stderr, opts)
		}
		slog.SetDefault(slog.New(handler))
		slog.Debug("configuration loaded", "root", root, "adapter", cfg.Store.Adapter, "store", cfg.Store.Path)
		return nil
	},
}

// applyFlags lets explicit flags win over gloss.yaml.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("adapter") {
		c.Store.Adapter = adapter
	}
	if flags.Changed("store") {
		c.Store.Path = storePath
	}
	if flags.Changed("articles") {
		c.Articles.Path = articleDir
	}
	if flags.Changed("locale") {
		c.Articles.Locale = locale
	}
	if flags.Changed("log-format") {
		c.Log.Format = logFormat
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVar(&adapter, "adapter", "", "Storage adapter (fs, sqlite, memory)")
	flags.StringVar(&storePath, "store", "", "Annotation store location")
	flags.StringVar(&articleDir, "articles", "", "Directory holding article sources")
	flags.StringVar(&locale, "locale", "", "Article locale")
	flags.StringVar(&logFormat, "log-format", "", "Log format (text, json)")
}

// openEngine opens the configured annotation store.
func openEngine(ctx context.Context) (*gloss.Engine, error) {
	opts := []gloss.Option{
		gloss.WithAdapter(cfg.Store.Adapter),
		gloss.WithLogger(slog.Default()),
	}
	if cfg.Store.DevSafety != nil {
		opts = append(opts, gloss.WithDevSafety(*cfg.Store.DevSafety))
	}
	return gloss.New(ctx, cfg.Store.Path, opts...)
}

// loadArticle reads articleID from the configured library.
func loadArticle(ctx context.Context, articleID string) (*article.Article, error) {
	lib := gloss.NewLibrary(cfg.Articles.Path, article.WithLogger(slog.Default()))
	return lib.Load(ctx, articleID, cfg.Articles.Locale)
}
