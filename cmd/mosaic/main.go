// Command mosaic composes schema plugins and generates the storage
// module they describe.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// rootFlags holds the global flag values shared by every subcommand.
type rootFlags struct {
	config  string
	verbose bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:   "mosaic",
		Short: "Plugin composition and schema resolution engine",
		Long: `Mosaic composes the data model fragments declared by feature plugins
into one relational schema and generates the Go storage package the
host application builds against.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "config file (default mosaic.yaml in the working directory)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newGenerateCmd(flags))
	root.AddCommand(newInspectCmd(flags))
	root.AddCommand(newPluginsCmd(flags))
	root.AddCommand(newCreateCmd(flags))
	root.AddCommand(newVersionCmd())
	return root
}

// setup loads the configuration and builds the logger every command
// starts from.
func (f *rootFlags) setup() (*config, zerolog.Logger, error) {
	cfg, err := loadConfig(f.config)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("mosaic: unknown log level %q", cfg.Log.Level)
	}
	if f.verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	return cfg, logger, nil
}
