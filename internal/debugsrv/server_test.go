package debugsrv

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/odlvideo/odlv/internal/metrics"
	"github.com/odlvideo/odlv/internal/odl"
	"github.com/odlvideo/odlv/internal/pagination"
	"github.com/odlvideo/odlv/internal/state"
	"github.com/odlvideo/odlv/internal/toast"
)

type fixedSnapshot state.Snapshot

func (f fixedSnapshot) Snapshot() state.Snapshot { return state.Snapshot(f) }

func sampleSnapshot() state.Snapshot {
	st := state.RootState{CollectionsPagination: pagination.InitialState()}
	st.CollectionsPagination = pagination.Reduce(st.CollectionsPagination, pagination.ReceiveGetPageSuccess(pagination.SuccessPayload{
		Page: 1, Count: 3, NumPages: 2, Collections: []odl.Collection{{Key: "a"}, {Key: "b"}},
	}))
	st.CollectionsPagination = pagination.Reduce(st.CollectionsPagination, pagination.ReceiveGetPageFailure(2, errors.New("boom")))
	st.Toasts = toast.Reduce(st.Toasts, toast.Add(toast.Message{Key: "t", Content: "hi"}))
	st.Users.Loaded = true
	st.Users.Error = errors.New("forbidden")
	return state.Snapshot{State: st, Version: 7, LastAction: pagination.TypeReceiveGetPageFailure}
}

func TestSummarize(t *testing.T) {
	got := Summarize(sampleSnapshot())

	assert.Equal(t, uint64(7), got.Version)
	assert.Equal(t, 3, got.Count)
	assert.Equal(t, 2, got.NumPages)
	assert.Equal(t, 1, got.Toasts)
	assert.Nil(t, got.UpdatedAt)
	require.Len(t, got.Pages, 2)
	assert.Equal(t, PageSummary{Page: 1, Status: "LOADED", Size: 2}, got.Pages[0])
	assert.Equal(t, PageSummary{Page: 2, Status: "ERROR", Error: "boom"}, got.Pages[1])
	assert.Equal(t, ResourceSummary{Loaded: true, Error: "forbidden"}, got.Resources["users"])
	assert.Len(t, got.Resources, 8)
}

func TestStateEndpoint(t *testing.T) {
	srv := New(fixedSnapshot(sampleSnapshot()), prometheus.NewRegistry(), zerolog.Nop())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/state", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body StateSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, string(pagination.TypeReceiveGetPageFailure), body.LastAction)
	assert.Len(t, body.Pages, 2)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.IncAction("SET_THING")
	srv := New(fixedSnapshot(state.Snapshot{}), reg, zerolog.Nop())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `odlv_actions_dispatched_total{type="SET_THING"} 1`)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := New(fixedSnapshot(state.Snapshot{}), prometheus.NewRegistry(), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestListenAndServeBadAddr(t *testing.T) {
	srv := New(fixedSnapshot(state.Snapshot{}), nil, zerolog.Nop())
	err := srv.ListenAndServe(context.Background(), "not-an-address")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "listen"))
}
