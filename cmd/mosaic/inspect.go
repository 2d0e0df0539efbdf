package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mosaicorm/mosaic/compiler/gen"
	"github.com/mosaicorm/mosaic/compiler/load"
)

func newInspectCmd(flags *rootFlags) *cobra.Command {
	var pattern string
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the resolved schema",
		Long: `Inspect prints the composed plugins, the plugin-declared types and the
resolved tables. A fresh snapshot left by a previous generate run is
reused; otherwise the plugins are composed in memory, without writing
anything.

With --path, the merge history of every document path matching the
doublestar pattern is printed instead, naming each contributing plugin
in merge order.`,
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
			out := cmd.OutOrStdout()

			// The history log is not part of the snapshot, so the
			// path view always composes.
			if pattern == "" && !gen.ShouldRegenerate(cfg.snapshotPath(), set.LatestModified()) {
				snap, err := gen.LoadSnapshot(cfg.snapshotPath())
				if err == nil {
					printSnapshot(out, snap)
					return nil
				}
				logger.Debug().Err(err).Msg("snapshot unreadable, composing")
			}

			genCfg, err := gen.NewConfig(cfg.genOptions(logger)...)
			if err != nil {
				return err
			}
			s, err := gen.ComposeConfig(set, genCfg)
			if err != nil {
				return err
			}
			if pattern != "" {
				return printHistory(out, s, pattern)
			}
			printSnapshot(out, gen.NewSnapshot(s))
			return nil
		},
	}
	cmd.Flags().StringVar(&pattern, "path", "", "print merge history for document paths matching this pattern")
	return cmd
}

func printSnapshot(w io.Writer, snap *gen.Snapshot) {
	fmt.Fprintln(w, "Plugins:")
	for _, p := range snap.Plugins {
		if len(p.DependsOn) > 0 {
			fmt.Fprintf(w, "  %s %s (depends on %s)\n", p.Name, p.Version, strings.Join(p.DependsOn, ", "))
			continue
		}
		fmt.Fprintf(w, "  %s %s\n", p.Name, p.Version)
	}

	if len(snap.Types) > 0 {
		fmt.Fprintln(w, "\nTypes:")
		for _, td := range snap.Types {
			base := td.Base
			if base == "" {
				base = td.Native
			}
			fmt.Fprintf(w, "  %s -> %s (plugin %s)\n", td.Name, base, td.Plugin)
		}
	}

	for _, t := range snap.Tables {
		fmt.Fprintf(w, "\n%s (table %q, plugins %s)\n", t.Name, t.PhysicalName, strings.Join(t.Plugins, ", "))
		for _, c := range t.Columns {
			var marks []string
			if c.PrimaryKey {
				marks = append(marks, "pk")
			}
			if c.Increment {
				marks = append(marks, "autoincrement")
			}
			if c.Unique {
				marks = append(marks, "unique")
			}
			if c.Nullable {
				marks = append(marks, "nullable")
			}
			if c.ForeignKey != "" {
				marks = append(marks, "-> "+c.ForeignKey)
			}
			suffix := ""
			if len(marks) > 0 {
				suffix = "  [" + strings.Join(marks, ", ") + "]"
			}
			fmt.Fprintf(w, "  %-20s %s%s\n", c.Name, c.Type, suffix)
		}
		for _, idx := range t.Indexes {
			unique := ""
			if idx.Unique {
				unique = "unique "
			}
			fmt.Fprintf(w, "  %sindex %s (%s)\n", unique, idx.Name, strings.Join(idx.Columns, ", "))
		}
	}
}

func printHistory(w io.Writer, s *gen.Schema, pattern string) error {
	paths := s.History.Filter(pattern)
	if len(paths) == 0 {
		return fmt.Errorf("mosaic: no document paths match %q", pattern)
	}
	for _, p := range paths {
		fmt.Fprintf(w, "%s: %s\n", p, strings.Join(s.History.Contributors(p), ", "))
	}
	return nil
}
