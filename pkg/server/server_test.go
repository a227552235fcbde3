//go:build integration

package server

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ldapcore/ldapd/internal/ldap/mappingtree"
	"github.com/ldapcore/ldapd/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.GetDefaultConfig()
	cfg.Backend.Backends = []config.NamedBackendConfig{
		{Name: "main", Suffix: "dc=example,dc=com", DataDir: filepath.Join(t.TempDir(), "main.db")},
	}
	return cfg
}

func TestLoadMappingTreeMountsConfiguredBackends(t *testing.T) {
	cfg := testConfig(t)
	srv := New(cfg)
	t.Cleanup(func() { srv.Close() })

	require.NoError(t, srv.LoadMappingTree(cfg.Backend))

	assert.NotNil(t, srv.Backend("main"))
	assert.Nil(t, srv.Backend("missing"))

	nodes := srv.Tree.Snapshot()
	var found bool
	for _, n := range nodes {
		if n.SuffixDN == "dc=example,dc=com" {
			found = true
			require.Len(t, n.Backends, 1)
			assert.Equal(t, "main", n.Backends[0].Name)
			assert.Equal(t, mappingtree.BackendOn, n.Backends[0].State)
		}
	}
	assert.True(t, found, "expected suffix node in tree snapshot")
}

func TestInitMetricsLeavesCollectorsNilWhenDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Enabled = false
	srv := New(cfg)

	reg := srv.InitMetrics()
	assert.Nil(t, reg)
	assert.Nil(t, srv.OperationMetrics)
	assert.Nil(t, srv.BackendMetrics)
	assert.Nil(t, srv.SyncMetrics)
}

func TestInitMetricsBuildsCollectorsWhenEnabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Enabled = true
	srv := New(cfg)

	reg := srv.InitMetrics()
	assert.NotNil(t, reg)
	assert.NotNil(t, srv.OperationMetrics)
	assert.NotNil(t, srv.BackendMetrics)
	assert.NotNil(t, srv.SyncMetrics)
}
