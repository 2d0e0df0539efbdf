package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mosaicorm/mosaic/compiler/load"
)

func newPluginsCmd(flags *rootFlags) *cobra.Command {
	var sources bool
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "List the discovered plugins in dependency order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := flags.setup()
			if err != nil {
				return err
			}
			set, err := load.Discover(cfg.Plugins.Paths, load.WithLogger(logger))
			if err != nil {
				return err
			}
			if err := set.Sort(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range set.Sorted() {
				line := fmt.Sprintf("%s %s", p.Name, p.Manifest.Version)
				if deps := p.DependsOn(); len(deps) > 0 {
					line += " (depends on " + strings.Join(deps, ", ") + ")"
				}
				if p.Manifest.Description != "" {
					line += " - " + p.Manifest.Description
				}
				fmt.Fprintln(out, line)
				if sources {
					for _, ref := range p.SourceRefs {
						fmt.Fprintf(out, "  %s\n", ref)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&sources, "sources", false, "list each plugin's Go source files")
	return cmd
}
