package app

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/odlvideo/odlv/internal/config"
	"github.com/odlvideo/odlv/internal/odl"
	"github.com/odlvideo/odlv/internal/odltest"
	"github.com/odlvideo/odlv/internal/pagination"
	"github.com/odlvideo/odlv/internal/prefs"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

func newApp(t *testing.T, srv *odltest.Server) (*App, *lockedBuffer) {
	t.Helper()
	var logs lockedBuffer
	cfg := config.Config{
		BaseURL:   srv.URL,
		CSRFToken: odltest.CSRFToken,
		LogLevel:  "debug",
		Dev:       true,
		User:      config.User{Email: "staff@example.edu", Editable: true},
	}
	a, err := New(context.Background(), Options{
		Config:    &cfg,
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
		LogOutput: &logs,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a, &logs
}

func seed(srv *odltest.Server) {
	srv.AddCollections(
		odl.Collection{Key: "a", Title: "A"},
		odl.Collection{Key: "b", Title: "B"},
		odl.Collection{Key: "c", Title: "C"},
	)
	srv.SetDirectory(
		[]odl.User{{ID: 1, Username: "staff"}},
		[]odl.PotentialOwner{{ID: 2, Name: "Owners"}},
		[]odl.EdxEndpoint{{ID: 3, Name: "edX"}},
	)
}

func TestNewBuildsStoreFromConfig(t *testing.T) {
	srv := odltest.New(t)
	a, _ := newApp(t, srv)

	assert.Equal(t, "staff@example.edu", a.Store.Settings().UserEmail)
	assert.Equal(t, srv.URL, a.Client.BaseURL())
	assert.Equal(t, 1, a.Store.State().CollectionsPagination.CurrentPage)
}

func TestNewRestoresLastPage(t *testing.T) {
	srv := odltest.New(t)
	prefsPath := filepath.Join(t.TempDir(), "prefs.toml")
	require.NoError(t, prefs.Save(prefsPath, prefs.Prefs{Theme: "Slate", LastPage: 2}))

	cfg := config.Config{BaseURL: srv.URL}
	a, err := New(context.Background(), Options{Config: &cfg, PrefsPath: prefsPath, LogOutput: &bytes.Buffer{}})
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, 2, a.Store.State().CollectionsPagination.CurrentPage)
	assert.Equal(t, "Slate", a.Prefs.Theme)
}

func TestBootstrapLoadsInitialData(t *testing.T) {
	srv := odltest.New(t)
	seed(srv)
	a, logs := newApp(t, srv)

	require.NoError(t, a.Bootstrap(context.Background()))

	st := a.Store.State()
	page, ok := st.CollectionsPagination.Current()
	require.True(t, ok)
	assert.Equal(t, pagination.StatusLoaded, page.Status)
	assert.Len(t, page.Collections, 2)
	assert.Equal(t, 3, st.CollectionsPagination.Count)
	assert.Equal(t, 2, st.CollectionsPagination.NumPages)
	assert.Equal(t, "Owners", st.PotentialCollectionOwners.Data[0].Name)
	assert.Equal(t, "edX", st.EdxEndpoints.Data[0].Name)
	assert.Contains(t, logs.String(), "bootstrap complete")
}

func TestBootstrapRecordsFailures(t *testing.T) {
	srv := odltest.New(t)
	seed(srv)
	srv.Fail("GET", "/api/v0/edx-endpoints/", 500, map[string]any{"detail": "down"})
	a, _ := newApp(t, srv)

	require.NoError(t, a.Bootstrap(context.Background()))

	st := a.Store.State()
	assert.Error(t, st.EdxEndpoints.Error)
	assert.NoError(t, st.PotentialCollectionOwners.Error)
}

func TestSelectPageUsesCache(t *testing.T) {
	srv := odltest.New(t)
	seed(srv)
	a, _ := newApp(t, srv)
	ctx := context.Background()

	task, err := a.SelectPage(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, task)
	_, err = task.Wait(ctx)
	require.NoError(t, err)

	page, ok := a.Store.State().CollectionsPagination.Page(2)
	require.True(t, ok)
	assert.Equal(t, "c", page.Collections[0].Key)

	task, err = a.SelectPage(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, task)
	assert.Len(t, srv.Requests(), 1)

	_, err = a.SelectPage(ctx, 0)
	require.ErrorIs(t, err, pagination.ErrInvalidPage)
}

func TestSelectPageFailure(t *testing.T) {
	srv := odltest.New(t)
	seed(srv)
	a, _ := newApp(t, srv)
	ctx := context.Background()

	task, err := a.SelectPage(ctx, 9)
	require.NoError(t, err)
	_, err = task.Wait(ctx)
	require.NoError(t, err)

	page, ok := a.Store.State().CollectionsPagination.Page(9)
	require.True(t, ok)
	assert.Equal(t, pagination.StatusError, page.Status)
	var apiErr *odl.APIError
	require.ErrorAs(t, page.Error, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
}

func TestWatchCurrentPageFetchesMissingPages(t *testing.T) {
	srv := odltest.New(t)
	seed(srv)
	a, _ := newApp(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	done := a.WatchCurrentPage(ctx)

	loaded := func(n int) func() bool {
		return func() bool {
			p, ok := a.Store.State().CollectionsPagination.Page(n)
			return ok && p.Status == pagination.StatusLoaded
		}
	}
	require.Eventually(t, loaded(1), 2*time.Second, 10*time.Millisecond)

	a.Store.Dispatch(pagination.SetCurrentPage(2))
	require.Eventually(t, loaded(2), 2*time.Second, 10*time.Millisecond)

	a.Store.Dispatch(pagination.SetCurrentPage(1))
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}

	gets := 0
	for _, r := range srv.Requests() {
		if r == "GET /api/v0/collections/?page=1" {
			gets++
		}
	}
	assert.Equal(t, 1, gets, "cached page should not be fetched twice")
}

func TestDeleteSubtitleAddsToast(t *testing.T) {
	srv := odltest.New(t)
	srv.AddVideos(odl.Video{Key: "v1"})
	a, _ := newApp(t, srv)
	ctx := context.Background()

	sub, err := a.Endpoints.UploadSubtitle(ctx, a.Store, odl.SubtitleUpload{
		VideoKey: "v1", Language: "en", Filename: "en.vtt", Content: bytes.NewBufferString("WEBVTT\n"),
	})
	require.NoError(t, err)

	ok, err := a.DeleteSubtitle(ctx, sub.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	msgs := a.Store.State().Toasts.Messages
	require.Len(t, msgs, 1)
	assert.Equal(t, "Subtitle deleted", msgs[0].Content)
	assert.NotEmpty(t, msgs[0].Key)
}

func TestDeleteSubtitleFailureSkipsToast(t *testing.T) {
	srv := odltest.New(t)
	a, _ := newApp(t, srv)

	ok, err := a.DeleteSubtitle(context.Background(), 404)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, a.Store.State().Toasts.Messages)
	assert.Error(t, a.Store.State().VideoSubtitles.Error)
}

func TestSavePrefsRecordsCurrentPage(t *testing.T) {
	srv := odltest.New(t)
	a, _ := newApp(t, srv)

	a.Store.Dispatch(pagination.SetCurrentPage(3))
	require.NoError(t, a.SavePrefs("Slate"))

	loaded, err := prefs.Load(a.prefsPath)
	require.NoError(t, err)
	assert.Equal(t, prefs.Prefs{Theme: "Slate", LastPage: 3}, loaded)
}

func TestDevModeLogsActions(t *testing.T) {
	srv := odltest.New(t)
	a, logs := newApp(t, srv)

	a.Store.Dispatch(pagination.SetCurrentPage(2))

	assert.Contains(t, logs.String(), `"component":"store"`)
	assert.Contains(t, logs.String(), string(pagination.TypeSetCurrentPage))
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestLoadCollection(t *testing.T) {
	srv := odltest.New(t)
	srv.AddCollections(odl.Collection{Key: "a", Title: "Alpha"})
	a, _ := newApp(t, srv)

	require.NoError(t, a.LoadCollection(context.Background(), "a"))
	c, ok := a.Store.State().Collections.Data.Get("a")
	require.True(t, ok)
	assert.Equal(t, "Alpha", c.Title)
}

func TestRefreshCollectionDropsCachedEntries(t *testing.T) {
	srv := odltest.New(t)
	srv.AddCollections(odl.Collection{Key: "a", Title: "Alpha"}, odl.Collection{Key: "b", Title: "Beta"})
	a, _ := newApp(t, srv)
	ctx := context.Background()

	require.NoError(t, a.LoadCollection(ctx, "a"))
	require.NoError(t, a.LoadCollection(ctx, "b"))
	require.Equal(t, 2, a.Store.State().Collections.Data.Len())

	require.NoError(t, a.RefreshCollection(ctx, "b"))
	st := a.Store.State().Collections
	assert.Equal(t, []string{"b"}, st.Data.Keys())
	assert.True(t, st.Loaded)
	assert.Equal(t, "RECEIVE_COLLECTIONS_GET_SUCCESS", string(a.Store.Snapshot().LastAction))
}

func TestStartDebugServer(t *testing.T) {
	srv := odltest.New(t)
	a, _ := newApp(t, srv)

	done := a.StartDebugServer(context.Background())
	_, open := <-done
	assert.False(t, open, "no address means no server")

	a.Config.MetricsAddr = "127.0.0.1:0"
	ctx, cancel := context.WithCancel(context.Background())
	done = a.StartDebugServer(ctx)
	cancel()
	select {
	case err, ok := <-done:
		if ok {
			require.NoError(t, err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("debug server did not stop")
	}
}
