package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mosaicorm/mosaic/compiler/gen"
	"github.com/mosaicorm/mosaic/compiler/load"
	"github.com/mosaicorm/mosaic/dialect"
	"github.com/mosaicorm/mosaic/dialect/sql"
	"github.com/mosaicorm/mosaic/dialect/sql/schema"

	// Drivers for the dialects create supports.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func newCreateCmd(flags *rootFlags) *cobra.Command {
	var (
		dialectName string
		dsn         string
		noFKs       bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create the composed tables on a database",
		Long: `Create composes the schema and creates every missing table, index and
foreign key on the target database. The run is additive: existing
objects are left untouched and nothing is dropped or altered.`,
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
			genCfg, err := gen.NewConfig(cfg.genOptions(logger)...)
			if err != nil {
				return err
			}
			s, err := gen.ComposeConfig(set, genCfg)
			if err != nil {
				return err
			}
			drv, err := sql.Open(dialectName, dsn)
			if err != nil {
				return err
			}
			defer drv.Close()
			stats := sql.NewStatsDriver(drv, sql.WithSlowLog(logger))
			creator, err := schema.NewCreator(stats, schema.WithLogger(logger), schema.WithForeignKeys(!noFKs))
			if err != nil {
				return err
			}
			tables := s.TableDescriptors()
			if err := creator.Create(cmd.Context(), tables...); err != nil {
				return err
			}
			logger.Debug().Stringer("stats", stats.Stats().Snapshot()).Msg("schema created")
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d tables to %s\n", len(tables), dialectName)
			return nil
		},
	}
	cmd.Flags().StringVar(&dialectName, "dialect", dialect.SQLite, "target dialect: sqlite, mysql or postgres")
	cmd.Flags().StringVar(&dsn, "dsn", "", "database connection string")
	cmd.Flags().BoolVar(&noFKs, "no-foreign-keys", false, "skip foreign-key constraints")
	_ = cmd.MarkFlagRequired("dsn")
	return cmd
}
