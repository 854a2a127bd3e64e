package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/formrec/internal/config"
	"github.com/alfredjeanlab/formrec/internal/ui"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Show or initialize the config file",
	GroupID: "system",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration (file plus environment)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		printConfig(cmd.OutOrStdout(), path, cfg)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the store connection settings",
	Long: `Write the config file (default ~/.config/formrec/config.toml) from the
given flags. An existing file is only replaced with --force.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to replace it)", path)
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}

		var f config.File
		f.APIKey, _ = cmd.Flags().GetString("api-key")
		f.BaseID, _ = cmd.Flags().GetString("base-id")
		f.Host, _ = cmd.Flags().GetString("host")
		f.Table = cfg.Table
		if err := config.Save(path, f); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %s\n", ui.RenderSuccess("✓"), path)
		return nil
	},
}

// printConfig writes the effective settings. The API key and auth token are
// masked.
func printConfig(w io.Writer, path string, c *config.Config) {
	if jsonOutput {
		printJSON(w, map[string]any{
			"path":          path,
			"host":          c.Host,
			"base_id":       c.BaseID,
			"table":         c.Table,
			"api_key":       mask(c.APIKey),
			"timeout":       c.Timeout.String(),
			"nats_url":      c.NATSURL,
			"http_addr":     c.HTTPAddr,
			"database_url":  c.DatabaseURL != "",
			"auth_token":    mask(c.AuthToken),
			"sync_interval": c.SyncInterval.String(),
			"schemas":       len(c.Schemas),
		})
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "File:\t%s\n", path)
	fmt.Fprintf(tw, "Host:\t%s\n", c.Host)
	fmt.Fprintf(tw, "Base:\t%s\n", orNone(c.BaseID))
	fmt.Fprintf(tw, "Table:\t%s\n", c.Table)
	fmt.Fprintf(tw, "API key:\t%s\n", orNone(mask(c.APIKey)))
	fmt.Fprintf(tw, "Timeout:\t%s\n", c.Timeout)
	fmt.Fprintf(tw, "NATS:\t%s\n", orNone(c.NATSURL))
	fmt.Fprintf(tw, "Serve addr:\t%s\n", c.HTTPAddr)
	fmt.Fprintf(tw, "Sync every:\t%s\n", c.SyncInterval)
	if len(c.Schemas) > 0 {
		names := make([]string, 0, len(c.Schemas))
		for _, s := range c.Schemas {
			names = append(names, s.Name)
		}
		fmt.Fprintf(tw, "Schemas:\t%v\n", names)
	}
	tw.Flush()
}

// mask keeps the last four characters of a secret.
func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

func orNone(s string) string {
	if s == "" {
		return ui.RenderMuted("(none)")
	}
	return s
}

func init() {
	configInitCmd.Flags().String("api-key", "", "record store API key")
	configInitCmd.Flags().String("base-id", "", "record store base id")
	configInitCmd.Flags().String("host", "", "record store host (default api.airtable.com)")
	configInitCmd.Flags().Bool("force", false, "replace an existing config file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
