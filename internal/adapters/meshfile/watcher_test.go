package meshfile_test

import (
	"context"
	"path/filepath"
	"testing"
	"testing/synctest"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/subdiv/internal/adapters/meshfile"
	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/subdiv/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestWatcher_DebouncedReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.obj")
	writeMesh(t, path, quad)
	src, err := meshfile.Open(path)
	require.NoError(t, err)

	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		logger := mocks.NewMockLogger(ctrl)
		logger.EXPECT().Info("reloaded mesh " + path).Times(1)

		w := meshfile.NewDetachedWatcher(logger, 50*time.Millisecond)
		require.NoError(t, w.Add(src))

		rec := &events{}
		_, err := src.Subscribe(src.Handle(), rec.record)
		require.NoError(t, err)

		writeMesh(t, path, "v 0 0 2\nv 1 0 0\nv 1 1 0\nv 0 1 0\nf 1 2 3 4\n")
		w.Dispatch(fsnotify.Event{Name: path, Op: fsnotify.Write})
		w.Dispatch(fsnotify.Event{Name: path, Op: fsnotify.Write})
		w.Dispatch(fsnotify.Event{Name: filepath.Join(filepath.Dir(path), "other.obj"), Op: fsnotify.Write})
		w.Dispatch(fsnotify.Event{Name: path, Op: fsnotify.Chmod})

		time.Sleep(100 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, []string{"points"}, rec.list())
		require.NoError(t, w.Close())
	})
}

func TestWatcher_ReloadErrorIsLogged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.obj")
	writeMesh(t, path, quad)
	src, err := meshfile.Open(path)
	require.NoError(t, err)

	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		logger := mocks.NewMockLogger(ctrl)
		logger.EXPECT().Error(gomock.Any()).Do(func(err error) {
			assert.ErrorIs(t, err, domain.ErrMeshParse)
		})

		w := meshfile.NewDetachedWatcher(logger, 50*time.Millisecond)
		require.NoError(t, w.Add(src))

		writeMesh(t, path, "f 1 2\n")
		w.Dispatch(fsnotify.Event{Name: path, Op: fsnotify.Create})
		w.Flush()

		counts, _, err := src.FaceTopology()
		require.NoError(t, err)
		assert.Equal(t, []int{4}, counts)
	})
}

func TestWatcher_Remove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.obj")
	writeMesh(t, path, quad)
	src, err := meshfile.Open(path)
	require.NoError(t, err)

	synctest.Test(t, func(t *testing.T) {
		w := meshfile.NewDetachedWatcher(mocks.NewMockLogger(gomock.NewController(t)), 50*time.Millisecond)
		require.NoError(t, w.Add(src))
		require.NoError(t, w.Add(src))
		w.Remove(src)

		w.Dispatch(fsnotify.Event{Name: path, Op: fsnotify.Write})
		time.Sleep(100 * time.Millisecond)
		synctest.Wait()
	})
}

func TestWatcher_FileSystem(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.obj")
	writeMesh(t, path, quad)
	src, err := meshfile.Open(path)
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	logger.EXPECT().Error(gomock.Any()).AnyTimes()

	w, err := meshfile.NewWatcher(logger, 10*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Add(src))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer func() { require.NoError(t, w.Close()) }()

	writeMesh(t, path, "v 0 0 3\nv 1 0 0\nv 1 1 0\nv 0 1 0\nf 1 2 3 4\n")
	require.Eventually(t, func() bool {
		points, err := src.VertexPositions()
		return err == nil && len(points) > 0 && points[0][2] == 3
	}, 5*time.Second, 10*time.Millisecond)
}
