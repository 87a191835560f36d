package resources

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odlvideo/odlv/internal/action"
	"github.com/odlvideo/odlv/internal/odl"
	"github.com/odlvideo/odlv/internal/odltest"
	"github.com/odlvideo/odlv/internal/rest"
)

// slice reduces the actions of a single endpoint, standing in for the store.
type slice[T any] struct {
	mu sync.Mutex
	ep *rest.Endpoint[T]
	s  rest.State[T]
}

func newSlice[T any](ep *rest.Endpoint[T]) *slice[T] {
	return &slice[T]{ep: ep, s: ep.InitialState()}
}

func (r *slice[T]) Dispatch(a action.Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s = r.ep.Reduce(r.s, a)
}

func (r *slice[T]) state() rest.State[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.s
}

func setup(t *testing.T) (*odltest.Server, *Endpoints) {
	t.Helper()
	srv := odltest.New(t)
	client, err := odl.NewClient(srv.URL, odl.WithCSRFToken(odltest.CSRFToken))
	require.NoError(t, err)
	eps, err := New(client)
	require.NoError(t, err)
	return srv, eps
}

func TestNewRequiresAPI(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestTypesAreUnique(t *testing.T) {
	_, eps := setup(t)

	seen := map[action.Type]bool{}
	for _, typ := range eps.Types() {
		assert.False(t, seen[typ], "duplicate type %s", typ)
		seen[typ] = true
	}
	assert.True(t, seen["REQUEST_POTENTIAL_COLLECTION_OWNERS_GET"])
	assert.True(t, seen["RECEIVE_VIDEO_SUBTITLES_DELETE_SUCCESS"])
	assert.True(t, seen["CLEAR_COLLECTIONS_LIST"])
}

func TestPrepend(t *testing.T) {
	current := []odl.Collection{{Key: "a"}, {Key: "b"}}

	got := Prepend(&odl.Collection{Key: "c"}, current)

	assert.Equal(t, []odl.Collection{{Key: "c"}, {Key: "a"}, {Key: "b"}}, got)
	assert.Len(t, current, 2)
	assert.Equal(t, "a", current[0].Key)
}

func TestCollectionUpsertKeepsOtherEntries(t *testing.T) {
	srv, eps := setup(t)
	srv.AddCollections(
		odl.Collection{Key: "a", Title: "A"},
		odl.Collection{Key: "b", Title: "B"},
	)
	store := newSlice(eps.Collections)
	ctx := context.Background()

	a, err := eps.GetCollection(ctx, store, "a")
	require.NoError(t, err)
	_, err = eps.GetCollection(ctx, store, "b")
	require.NoError(t, err)

	title := "B2"
	updated, err := eps.UpdateCollection(ctx, store, "b", odl.CollectionUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "B2", updated.Title)

	s := store.state()
	assert.Equal(t, []string{"a", "b"}, s.Data.Keys())
	gotA, _ := s.Data.Get("a")
	assert.Same(t, a, gotA)
	gotB, _ := s.Data.Get("b")
	assert.Equal(t, "B2", gotB.Title)
}

func TestCreateCollectionPrependsToList(t *testing.T) {
	srv, eps := setup(t)
	srv.AddCollections(odl.Collection{Key: "a", Title: "A"}, odl.Collection{Key: "b", Title: "B"})
	store := newSlice(eps.CollectionsList)
	ctx := context.Background()

	list, err := eps.GetCollectionsList(ctx, store)
	require.NoError(t, err)
	require.Len(t, list, 2)

	created, err := eps.CreateCollection(ctx, store, odl.NewCollection{Title: "New"})
	require.NoError(t, err)

	s := store.state()
	require.Len(t, s.Data, 3)
	assert.Equal(t, created.Key, s.Data[0].Key)
	assert.Equal(t, "a", s.Data[1].Key)
	assert.Equal(t, "b", s.Data[2].Key)
}

func TestDeleteVideoRemovesEntry(t *testing.T) {
	srv, eps := setup(t)
	srv.AddVideos(odl.Video{Key: "v1", Title: "One"}, odl.Video{Key: "v2", Title: "Two"})
	store := newSlice(eps.Videos)
	ctx := context.Background()

	for _, key := range []string{"v1", "v2"} {
		_, err := eps.GetVideo(ctx, store, key)
		require.NoError(t, err)
	}
	require.NoError(t, eps.DeleteVideo(ctx, store, "v1"))

	s := store.state()
	assert.Equal(t, []string{"v2"}, s.Data.Keys())
	_, stillThere := srv.Video("v1")
	assert.False(t, stillThere)
}

func TestFailureLandsInState(t *testing.T) {
	srv, eps := setup(t)
	srv.Fail("GET", "/api/v0/videos/v9/", 404, map[string]any{"detail": "Not found."})
	store := newSlice(eps.Videos)

	got, err := eps.GetVideo(context.Background(), store, "v9")
	require.NoError(t, err)
	assert.Nil(t, got)

	s := store.state()
	assert.False(t, s.Processing)
	assert.True(t, s.Loaded)
	var apiErr *odl.APIError
	require.ErrorAs(t, s.Error, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
}

func TestSubtitleUploadAndDelete(t *testing.T) {
	srv, eps := setup(t)
	srv.AddVideos(odl.Video{Key: "v1"})
	store := newSlice(eps.VideoSubtitles)
	ctx := context.Background()

	sub, err := eps.UploadSubtitle(ctx, store, odl.SubtitleUpload{
		VideoKey: "v1",
		Language: "en",
		Filename: "en.vtt",
		Content:  strings.NewReader("WEBVTT\n"),
	})
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.True(t, store.state().Data.Has(sub.ID))

	ok, err := eps.DeleteSubtitle(ctx, store, sub.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, store.state().Data.Has(sub.ID))
}

func TestDeleteSubtitleFailureReportsFalse(t *testing.T) {
	srv, eps := setup(t)
	srv.Fail("DELETE", "/api/v0/subtitles/5/", 500, map[string]any{"detail": "boom"})
	store := newSlice(eps.VideoSubtitles)

	ok, err := eps.DeleteSubtitle(context.Background(), store, 5)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Error(t, store.state().Error)
}

func TestAnalyticsKeyedByVideo(t *testing.T) {
	srv, eps := setup(t)
	srv.SetAnalytics("v1", odl.VideoAnalytics{
		Channels:     []string{"main"},
		Times:        []int{0, 1},
		ViewsAtTimes: map[string]map[string]int{"0": {"main": 3}, "1": {"main": 1}},
	})
	store := newSlice(eps.VideoAnalytics)

	got, err := eps.GetVideoAnalytics(context.Background(), store, "v1")
	require.NoError(t, err)
	assert.Equal(t, 4, got.TotalViews("main"))
	assert.True(t, store.state().Data.Has("v1"))
}

func TestDirectoryLists(t *testing.T) {
	srv, eps := setup(t)
	srv.SetDirectory(
		[]odl.User{{ID: 1, Username: "staff"}},
		[]odl.PotentialOwner{{ID: 2, Name: "owner"}},
		[]odl.EdxEndpoint{{ID: 3, Name: "edx"}},
	)
	ctx := context.Background()

	users := newSlice(eps.Users)
	got, err := eps.GetUsers(ctx, users)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, got, users.state().Data)

	owners := newSlice(eps.PotentialCollectionOwners)
	gotOwners, err := eps.GetPotentialCollectionOwners(ctx, owners)
	require.NoError(t, err)
	assert.Equal(t, "owner", gotOwners[0].Name)

	edx := newSlice(eps.EdxEndpoints)
	gotEdx, err := eps.GetEdxEndpoints(ctx, edx)
	require.NoError(t, err)
	assert.Equal(t, "edx", gotEdx[0].Name)
}

func TestWrongBodyIsRejected(t *testing.T) {
	_, eps := setup(t)
	store := newSlice(eps.Collections)

	_, err := eps.Collections.Do(context.Background(), store, rest.PATCH, rest.Params{Key: "a", Body: "nope"})
	require.NoError(t, err)
	assert.True(t, errors.Is(store.state().Error, ErrBadBody))
}
