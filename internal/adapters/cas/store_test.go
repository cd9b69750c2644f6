package cas_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/subdiv/internal/adapters/cas"
	"go.trai.ch/subdiv/internal/core/domain"
)

func planInfo(handle domain.MeshHandle, patches int) domain.PlanInfo {
	return domain.PlanInfo{
		Handle:              handle,
		Key:                 "0123456789abcdef",
		TopologyFingerprint: "fedcba9876543210",
		Descriptor:          domain.DefaultDescriptor(),
		PatchCount:          patches,
		RefinedVertices:     2 * patches,
		Checksum:            "00ff00ff00ff00ff",
		BuildDuration:       3 * time.Millisecond,
		Timestamp:           time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
	}
}

func TestStore_PutAndGet(t *testing.T) {
	store, err := cas.NewStore(filepath.Join(t.TempDir(), "plans.json"))
	require.NoError(t, err)

	got, err := store.Get("cube")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.Put(planInfo("cube", 24)))
	require.NoError(t, store.Put(planInfo("cube", 96)))

	got, err = store.Get("cube")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 96, got.PatchCount)
}

func TestStore_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "plans.json")

	first, err := cas.NewStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Put(planInfo("tetra", 16)))
	require.NoError(t, first.Put(planInfo("cube", 24)))

	second, err := cas.NewStore(path)
	require.NoError(t, err)
	list, err := second.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, domain.MeshHandle("cube"), list[0].Handle)
	assert.Equal(t, planInfo("tetra", 16), list[1])
}

func TestStore_Errors(t *testing.T) {
	t.Run("corrupt file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "plans.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

		_, err := cas.NewStore(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to unmarshal plan store")
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "plans.json")
		require.NoError(t, os.WriteFile(path, nil, 0o600))

		store, err := cas.NewStore(path)
		require.NoError(t, err)
		list, err := store.List()
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("path below a file", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "blocker")
		require.NoError(t, os.WriteFile(blocker, nil, 0o600))

		_, err := cas.NewStore(filepath.Join(blocker, "plans.json"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read plan store")
	})
}
