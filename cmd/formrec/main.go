package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/formrec/internal/config"
	"github.com/alfredjeanlab/formrec/internal/model"
	"github.com/alfredjeanlab/formrec/internal/ui"
)

var (
	configPath string
	tableName  string
	jsonOutput bool
	localMode  bool
	verbose    bool

	cfg    *config.Config
	logger = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:           "formrec <command>",
	Short:         "Collect, list and delete form records in a remote table",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}

		level := slog.LevelError
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		c, err := config.LoadFrom(path)
		if err != nil {
			return err
		}
		if tableName != "" {
			c.Table = tableName
		}
		cfg = c
		return nil
	},
}

// resolveConfigPath returns --config when given, else the default location.
func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.DefaultPath()
}

// tableSchema returns the schema for the configured table: a schema whose
// name matches the table name in any case, else the generic object schema.
func tableSchema() model.Schema {
	if s, ok := cfg.Schema(cfg.Table); ok {
		return s
	}
	return model.ObjectSchema
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $FORMREC_CONFIG or ~/.config/formrec/config.toml)")
	rootCmd.PersistentFlags().StringVar(&tableName, "table", "", "table to operate on (overrides FORMREC_TABLE)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&localMode, "local", false, "keep records in memory instead of the remote store")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")

	rootCmd.AddGroup(
		&cobra.Group{ID: "records", Title: "Records:"},
		&cobra.Group{ID: "views", Title: "Views:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Records
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)

	// Views
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(exportCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderError("Error:"), err)
		os.Exit(1)
	}
}
