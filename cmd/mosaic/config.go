package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/mosaicorm/mosaic/compiler/gen"
)

// config is the root configuration, read from mosaic.yaml and the
// MOSAIC_* environment.
type config struct {
	Plugins  pluginsConfig  `mapstructure:"plugins"`
	Generate generateConfig `mapstructure:"generate"`
	Strict   bool           `mapstructure:"strict"`
	Log      logConfig      `mapstructure:"log"`
}

type pluginsConfig struct {
	Paths []string `mapstructure:"paths"`
}

type generateConfig struct {
	Target        string   `mapstructure:"target"`
	Package       string   `mapstructure:"package"`
	Header        string   `mapstructure:"header"`
	SourceImports []string `mapstructure:"source_imports"`
	SourceAdd     string   `mapstructure:"source_add"`
}

type logConfig struct {
	Level string `mapstructure:"level"`
}

// loadConfig reads the configuration file, layered over defaults and
// under environment variables. An explicit path must exist; the
// default lookup tolerates a missing file.
func loadConfig(path string) (*config, error) {
	v := viper.New()
	v.SetDefault("plugins.paths", []string{"plugins"})
	v.SetDefault("generate.target", "model")
	v.SetDefault("generate.package", "model")
	v.SetDefault("generate.header", gen.DefaultHeader)
	v.SetDefault("strict", false)
	v.SetDefault("log.level", "info")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("mosaic")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("MOSAIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("mosaic: read config: %w", err)
		}
	}
	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("mosaic: parse config: %w", err)
	}
	return &cfg, nil
}

// genOptions maps the file configuration onto generator options.
func (c *config) genOptions(logger zerolog.Logger) []gen.Option {
	opts := []gen.Option{
		gen.WithTarget(c.Generate.Target),
		gen.WithPackage(c.Generate.Package),
		gen.WithHeader(c.Generate.Header),
		gen.WithStrict(c.Strict),
		gen.WithLogger(logger),
	}
	if len(c.Generate.SourceImports) > 0 {
		opts = append(opts, gen.WithSourceImports(c.Generate.SourceImports...))
	}
	if c.Generate.SourceAdd != "" {
		opts = append(opts, gen.WithSourceAdd(c.Generate.SourceAdd))
	}
	return opts
}

// artifactPath is the generated module location.
func (c *config) artifactPath() string {
	return filepath.Join(c.Generate.Target, c.Generate.Package+".go")
}

// snapshotPath is the schema snapshot location, next to the artifact.
func (c *config) snapshotPath() string {
	return filepath.Join(c.Generate.Target, c.Generate.Package+".snap")
}
