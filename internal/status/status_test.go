package status

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-guestsync/internal/models"
	"wedding-guestsync/internal/store"
	"wedding-guestsync/internal/syncqueue"
)

type fakeNet struct {
	status models.NetworkStatus
}

func (f *fakeNet) Status() models.NetworkStatus {
	return f.status
}

type fakeDrains struct {
	results map[string]syncqueue.DrainResult
}

func (f *fakeDrains) LastDrainResults() map[string]syncqueue.DrainResult {
	return f.results
}

func newTestServer(t *testing.T, net StatusSource, drains DrainReporter) (*httptest.Server, *store.Store) {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	srv := httptest.NewServer(NewHandler(net, st, drains, zerolog.Nop()).Router())
	t.Cleanup(srv.Close)
	return srv, st
}

func TestHandler_Healthz(t *testing.T) {
	srv, _ := newTestServer(t, &fakeNet{}, &fakeDrains{})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandler_Status(t *testing.T) {
	net := &fakeNet{status: models.NetworkStatus{Online: true, Quality: models.QualityFast}}
	drains := &fakeDrains{results: map[string]syncqueue.DrainResult{
		store.CollectionRSVPs: {FinishedAt: time.Now(), Delivered: 3, Failed: 1},
	}}
	srv, st := newTestServer(t, net, drains)

	ctx := context.Background()
	require.NoError(t, st.Put(ctx, store.CollectionRSVPs, "r1", []byte(`{}`)))
	require.NoError(t, st.Put(ctx, store.CollectionRSVPs, "r2", []byte(`{}`)))
	require.NoError(t, st.Put(ctx, store.CollectionPhotos, "p1", []byte(`{}`)))

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Network.Online)
	assert.Equal(t, models.QualityFast, body.Network.Quality)
	assert.Equal(t, 2, body.Pending[store.CollectionRSVPs])
	assert.Equal(t, 1, body.Pending[store.CollectionPhotos])
	assert.Equal(t, 0, body.Pending[store.DeadLetterCollection(store.CollectionRSVPs)])

	lastDrain, ok := body.LastDrains[store.CollectionRSVPs]
	require.True(t, ok)
	assert.Equal(t, 3, lastDrain.Delivered)
	assert.Equal(t, 1, lastDrain.Failed)
	assert.False(t, lastDrain.FinishedAt.IsZero())
}

func TestHandler_UnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t, &fakeNet{}, &fakeDrains{})

	resp, err := http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
