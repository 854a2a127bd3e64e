package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/formrec/internal/cache"
	"github.com/alfredjeanlab/formrec/internal/config"
	"github.com/alfredjeanlab/formrec/internal/store"
	formsync "github.com/alfredjeanlab/formrec/internal/sync"
)

var exportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Write a JSONL snapshot of the table to stdout, S3 or git",
	GroupID: "views",
	Long: `Refresh the table, then write it as JSONL: a header line followed by one
line per record.

Without flags the snapshot goes to stdout. --s3 and --git send it to the
destinations configured with FORMREC_SYNC_S3_* and FORMREC_SYNC_GIT_*.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		toS3, _ := cmd.Flags().GetBool("s3")
		toGit, _ := cmd.Flags().GetBool("git")
		ctx := cmd.Context()

		s, err := openSession(cfg.Table, tableSchema(), nil)
		if err != nil {
			return err
		}
		defer s.Close()

		if s.cache.Remote() {
			if err := s.cache.Refresh(ctx); err != nil {
				return err
			}
		}

		if !toS3 && !toGit {
			return writeSnapshot(ctx, s.cache, cfg, cmd.OutOrStdout())
		}

		dests, err := exportDestinations(ctx, cfg, toS3, toGit)
		if err != nil {
			return err
		}
		if err := formsync.NewScheduler(exportSource(s.cache, cfg), dests, 0, logger).SyncOnce(ctx); err != nil {
			return err
		}
		for _, d := range dests {
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", s.cache.Len(), d.Name())
		}
		return nil
	},
}

// exportSource snapshots the cache under its base/table collection name.
func exportSource(c *cache.Cache, cfg *config.Config) formsync.Source {
	base := cfg.BaseID
	if base == "" {
		base = "local"
	}
	return formsync.FromRecords(store.Collection(base, cfg.Table), c.Records)
}

// exportDestinations builds the requested destinations, failing when one was
// asked for but is not configured.
func exportDestinations(ctx context.Context, cfg *config.Config, toS3, toGit bool) ([]formsync.Destination, error) {
	var dests []formsync.Destination
	if toS3 {
		if cfg.SyncS3Bucket == "" {
			return nil, errors.New("--s3 needs FORMREC_SYNC_S3_BUCKET")
		}
		d, err := formsync.NewS3Destination(ctx, cfg.SyncS3Bucket, cfg.SyncS3Key, cfg.SyncS3Region, cfg.SyncS3Endpoint)
		if err != nil {
			return nil, fmt.Errorf("creating S3 destination: %w", err)
		}
		dests = append(dests, d)
	}
	if toGit {
		if cfg.SyncGitRepo == "" {
			return nil, errors.New("--git needs FORMREC_SYNC_GIT_REPO")
		}
		dests = append(dests, formsync.NewGitDestination(cfg.SyncGitRepo, cfg.SyncGitFile, cfg.SyncGitBranch))
	}
	return dests, nil
}

// writeSnapshot writes the cache as JSONL to w.
func writeSnapshot(ctx context.Context, c *cache.Cache, cfg *config.Config, w io.Writer) error {
	return formsync.ExportJSONL(ctx, exportSource(c, cfg), w)
}

func init() {
	exportCmd.Flags().Bool("s3", false, "upload to the configured S3 bucket")
	exportCmd.Flags().Bool("git", false, "commit to the configured git repository")
}
