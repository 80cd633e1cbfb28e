package reflective_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junioryono/reflective"
	"github.com/junioryono/reflective/internal/testutil"
)

func unsetAfter(t *testing.T, keys ...string) {
	t.Helper()
	t.Cleanup(func() {
		for _, key := range keys {
			os.Unsetenv(key)
		}
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv(reflective.EnvLogLevel, "")
		t.Setenv(reflective.EnvLogDevelopment, "")
		t.Setenv(reflective.EnvManifest, "")

		cfg := reflective.LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
		assert.Equal(t, "", cfg.LogLevel)
		assert.False(t, cfg.Development)
		assert.Equal(t, "", cfg.Manifest)

		m, err := cfg.LoadManifest()
		assert.NoError(t, err)
		assert.Nil(t, m)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv(reflective.EnvLogLevel, "debug")
		t.Setenv(reflective.EnvLogDevelopment, "true")

		cfg := reflective.LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.True(t, cfg.Development)
	})

	t.Run("invalid bool keeps default", func(t *testing.T) {
		t.Setenv(reflective.EnvLogDevelopment, "sometimes")

		cfg := reflective.LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
		assert.False(t, cfg.Development)
	})

	t.Run("env file", func(t *testing.T) {
		unsetAfter(t, reflective.EnvManifest, reflective.EnvLogLevel)
		os.Unsetenv(reflective.EnvManifest)
		os.Unsetenv(reflective.EnvLogLevel)

		dir := t.TempDir()
		envFile := filepath.Join(dir, ".env")
		require.NoError(t, os.WriteFile(envFile, []byte(
			reflective.EnvLogLevel+"=warn\n"+reflective.EnvManifest+"=/etc/app/manifest.yaml\n",
		), 0o644))

		cfg := reflective.LoadConfig(envFile)
		assert.Equal(t, "warn", cfg.LogLevel)
		assert.Equal(t, "/etc/app/manifest.yaml", cfg.Manifest)
	})
}

func TestConfig_Logger(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		cfg := &reflective.Config{}
		logger, err := cfg.Logger()
		require.NoError(t, err)
		assert.NotNil(t, logger)
	})

	t.Run("level", func(t *testing.T) {
		cfg := &reflective.Config{LogLevel: "WARN", Development: true}
		logger, err := cfg.Logger()
		require.NoError(t, err)
		assert.False(t, logger.Core().Enabled(-1))
		assert.True(t, logger.Core().Enabled(1))
	})

	t.Run("invalid level", func(t *testing.T) {
		cfg := &reflective.Config{LogLevel: "loud"}
		_, err := cfg.Logger()
		assert.Error(t, err)

		_, err = cfg.Options()
		assert.Error(t, err)
	})

	t.Run("options build a container", func(t *testing.T) {
		cfg := &reflective.Config{LogLevel: "error"}
		opts, err := cfg.Options()
		require.NoError(t, err)

		c, err := reflective.New(opts...)
		require.NoError(t, err)
		assert.True(t, c.Logger().Core().Enabled(2))
	})
}

func TestConfig_Apply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifestYAML()), 0o644))

	newContainer := func(t *testing.T) *reflective.Container {
		return testutil.NewContainerBuilder(t).
			WithProvide(testutil.NewStore, testutil.StoreParams()).
			WithProvide(func(retries int) *testutil.Config {
				return &testutil.Config{DSN: "primary", Retries: retries}
			}, reflective.Name("primary-config"), reflective.Params(reflective.Param("retries"))).
			Build()
	}

	t.Run("applies the configured manifest", func(t *testing.T) {
		c := newContainer(t)
		cfg := &reflective.Config{Manifest: path}
		require.NoError(t, cfg.Apply(c))

		store := testutil.AssertResolvable[*testutil.Store](t, c, nil)
		assert.Equal(t, "primary", store.Config.DSN)
		assert.Equal(t, 3, store.Config.Retries)
		assert.True(t, c.Has("store"))
	})

	t.Run("without manifest", func(t *testing.T) {
		c := newContainer(t)
		require.NoError(t, (&reflective.Config{}).Apply(c))
		assert.False(t, c.Has("store"))
	})

	t.Run("missing manifest file", func(t *testing.T) {
		cfg := &reflective.Config{Manifest: filepath.Join(t.TempDir(), "missing.yaml")}
		assert.Error(t, cfg.Apply(newContainer(t)))
	})
}
