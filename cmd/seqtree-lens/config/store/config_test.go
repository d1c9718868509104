package storeconfig_test

import (
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/nspcc-dev/seqtree/cmd/seqtree-lens/config"
	storeconfig "github.com/nspcc-dev/seqtree/cmd/seqtree-lens/config/store"
	configtest "github.com/nspcc-dev/seqtree/cmd/seqtree-lens/config/test"
	"github.com/stretchr/testify/require"
)

func TestStoreSection(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		empty := configtest.EmptyConfig(t)

		p, err := storeconfig.Path(empty)
		require.NoError(t, err)
		require.Empty(t, p)
		require.Zero(t, storeconfig.Range(empty))
		require.Zero(t, storeconfig.ReadCache(empty))
		require.Equal(t, storeconfig.WorkersDefault, storeconfig.Workers(empty))

		perm, err := storeconfig.Perm(empty)
		require.NoError(t, err)
		require.Equal(t, storeconfig.PermDefault, perm)
	})

	home, err := homedir.Dir()
	require.NoError(t, err)

	const path = "../test/config"

	var fileConfigTest = func(c *config.Config) {
		p, err := storeconfig.Path(c)
		require.NoError(t, err)
		require.Equal(t, filepath.Join(home, "seqtree", "items"), p)

		require.EqualValues(t, 100, storeconfig.Range(c))
		require.Equal(t, 64, storeconfig.ReadCache(c))
		require.Equal(t, 8, storeconfig.Workers(c))

		perm, err := storeconfig.Perm(c)
		require.NoError(t, err)
		require.EqualValues(t, 0o750, perm)
	}

	configtest.ForEachFileType(t, path, fileConfigTest)

	t.Run("ENV", func(t *testing.T) {
		configtest.ForEnvFileType(t, path, fileConfigTest)
	})

	t.Run("invalid perm", func(t *testing.T) {
		t.Setenv("SEQTREE_STORE_PERM", "rwx")

		_, err := storeconfig.Perm(configtest.EmptyConfig(t))
		require.Error(t, err)
	})
}
