package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mosaicorm/mosaic/compiler/gen"
	"github.com/mosaicorm/mosaic/compiler/load"
	"github.com/mosaicorm/mosaic/dialect/sql/schema"
)

func newGenerateCmd(flags *rootFlags) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Compose plugins and write the generated storage module",
		Long: `Generate discovers the configured plugins, composes their schema
declarations and writes the storage module. The module is only
rewritten when a plugin file is newer than the existing artifact, and
never over breaking changes to tables a previous run declared; --force
overrides both checks.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := flags.setup()
			if err != nil {
				return err
			}
			set, err := load.Discover(cfg.Plugins.Paths, load.WithLogger(logger))
			if err != nil {
				return err
			}
			artifact := cfg.artifactPath()
			if !force && !gen.ShouldRegenerate(artifact, set.LatestModified()) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is up to date\n", artifact)
				return nil
			}
			genCfg, err := gen.NewConfig(cfg.genOptions(logger)...)
			if err != nil {
				return err
			}
			s, err := gen.ComposeConfig(set, genCfg)
			if err != nil {
				return err
			}
			if err := guardDiff(cfg.snapshotPath(), s, force, logger); err != nil {
				return err
			}
			if err := gen.NewGenerator(s, genCfg).Generate(); err != nil {
				return err
			}
			if err := gen.SaveSnapshot(cfg.snapshotPath(), s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d tables from %d plugins)\n", artifact, len(s.Tables), set.Len())
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "regenerate even when up to date and accept breaking schema changes")
	return cmd
}

// guardDiff compares the previous run's snapshot against the new
// schema and refuses to regenerate over breaking changes unless
// forced. Warnings are logged either way.
func guardDiff(snapPath string, s *gen.Schema, force bool, logger zerolog.Logger) error {
	snap, err := gen.LoadSnapshot(snapPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	var opts []schema.ValidateOption
	if force {
		opts = append(opts,
			schema.AllowDropTable(),
			schema.AllowDropColumn(),
			schema.AllowDropIndex(),
			schema.AllowNullToNotNull(),
		)
	}
	res := schema.ValidateDiff(snap.TableDescriptors(), s.TableDescriptors(), opts...)
	for _, w := range res.Warnings {
		logger.Warn().Str("table", w.Table).Str("column", w.Column).Msg(w.Message)
	}
	if res.HasErrors() {
		return fmt.Errorf("mosaic: schema breaks the previous run (re-run with --force to accept):\n%s", res)
	}
	return nil
}
