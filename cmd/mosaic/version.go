package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/mosaicorm/mosaic"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mosaic version %s (%s)\n", mosaic.Version, runtime.Version())
		},
	}
}
