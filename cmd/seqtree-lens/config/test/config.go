package configtest

import (
	"os"
	"testing"

	"github.com/nspcc-dev/seqtree/cmd/seqtree-lens/config"
	"github.com/stretchr/testify/require"
)

func fromFile(t testing.TB, path string) *config.Config {
	c, err := config.New(config.WithConfigFile(path))
	require.NoError(t, err)

	return c
}

// ForEachFileType passes configs read from next files:
//   - `<pref>.yaml`;
//   - `<pref>.json`.
func ForEachFileType(t testing.TB, pref string, f func(*config.Config)) {
	for _, p := range []string{
		pref + ".yaml",
		pref + ".json",
	} {
		f(fromFile(t, p))
	}
}

// ForEnvFileType sets ENV variables from `<pref>.env` file and passes
// an empty config to f.
func ForEnvFileType(t *testing.T, pref string, f func(*config.Config)) {
	loadEnv(t, pref+".env")
	f(EmptyConfig(t))
}

// EmptyConfig returns config without any values and sections.
func EmptyConfig(t testing.TB) *config.Config {
	c, err := config.New()
	require.NoError(t, err)

	return c
}

func loadEnv(t *testing.T, path string) {
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	for _, line := range splitLines(string(data)) {
		k, v, ok := cutPair(line)
		require.True(t, ok, line)
		t.Setenv(k, v)
	}
}
