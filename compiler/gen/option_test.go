package gen

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "model", cfg.Package)
	assert.Equal(t, "model", cfg.Target)
	assert.Equal(t, DefaultHeader, cfg.Header)
	assert.False(t, cfg.Strict)
	assert.Empty(t, cfg.SourceImports)
	assert.Empty(t, cfg.SourceAdd)
}

func TestConfigOptions(t *testing.T) {
	t.Run("all options", func(t *testing.T) {
		logger := zerolog.New(zerolog.NewTestWriter(t))
		cfg, err := NewConfig(
			WithPackage("storage"),
			WithTarget("internal/storage"),
			WithHeader("custom header"),
			WithSourceImports("github.com/lib/pq"),
			WithSourceImports("modernc.org/sqlite"),
			WithSourceAdd("func extra() {}"),
			WithStrict(true),
			WithLogger(logger),
		)
		require.NoError(t, err)
		assert.Equal(t, "storage", cfg.Package)
		assert.Equal(t, "internal/storage", cfg.Target)
		assert.Equal(t, "custom header", cfg.Header)
		assert.Equal(t, []string{"github.com/lib/pq", "modernc.org/sqlite"}, cfg.SourceImports)
		assert.Equal(t, "func extra() {}", cfg.SourceAdd)
		assert.True(t, cfg.Strict)
	})
	t.Run("empty package", func(t *testing.T) {
		_, err := NewConfig(WithPackage(""))
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
		assert.True(t, errors.Is(err, ErrMissingConfig))
	})
	t.Run("empty target", func(t *testing.T) {
		_, err := NewConfig(WithTarget(""))
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
	})
}

func TestConfigApply(t *testing.T) {
	t.Run("stops at first error", func(t *testing.T) {
		cfg := MustNewConfig()
		err := cfg.Apply(WithPackage(""), WithTarget("kept-out"))
		require.Error(t, err)
		assert.Equal(t, "model", cfg.Target, "later options must not run")
	})
	t.Run("apply all collects errors", func(t *testing.T) {
		cfg := MustNewConfig()
		err := cfg.ApplyAll(WithPackage(""), WithTarget(""), WithHeader("h"))
		require.Error(t, err)
		var ce *ConfigError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, "h", cfg.Header, "valid options still apply")
	})
}

func TestMustNewConfig(t *testing.T) {
	assert.NotPanics(t, func() { MustNewConfig(WithPackage("p")) })
	assert.Panics(t, func() { MustNewConfig(WithPackage("")) })
}
