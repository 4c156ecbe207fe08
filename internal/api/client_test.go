package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-guestsync/internal/models"
)

func newTestClient(url string) *Client {
	return NewClient(url, 5*time.Second, zerolog.Nop())
}

func TestClient_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rtt, err := newTestClient(srv.URL).Ping(context.Background())
	require.NoError(t, err)
	assert.Greater(t, rtt, time.Duration(0))
}

func TestClient_PingNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Ping(context.Background())
	require.Error(t, err)
	assert.Equal(t, models.ErrKindTransient, models.KindOf(err))
}

func TestClient_SubmitRSVP(t *testing.T) {
	var gotBody map[string]any
	var gotKey string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/rsvp", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotKey = r.Header.Get("X-Idempotency-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	rsvp := models.PendingRSVP{
		ID:             "r1",
		FullName:       "Jane Doe",
		Attending:      models.AttendanceYes,
		MealPreference: "vegetarian",
		Timestamp:      1700000000000,
		Attempts:       3,
	}
	require.NoError(t, newTestClient(srv.URL).SubmitRSVP(context.Background(), rsvp))

	assert.Equal(t, "r1", gotKey)
	assert.Equal(t, "Jane Doe", gotBody["fullName"])
	assert.Equal(t, "YES", gotBody["attending"])
	assert.Equal(t, "vegetarian", gotBody["mealPreference"])
	assert.Equal(t, float64(1700000000000), gotBody["timestamp"])
	_, leaked := gotBody["attempts"]
	assert.False(t, leaked, "queue bookkeeping must not reach the wire")
}

func TestClient_SubmitRSVPFailuresAreTransient(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"client error", http.StatusBadRequest},
		{"server error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			err := newTestClient(srv.URL).SubmitRSVP(context.Background(), models.PendingRSVP{
				ID: "r1", FullName: "Jane", Attending: models.AttendanceNo, Timestamp: 1,
			})
			require.Error(t, err)
			assert.Equal(t, models.ErrKindTransient, models.KindOf(err))
		})
	}
}

func TestClient_SubmitRSVPNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused

	err := newTestClient(srv.URL).SubmitRSVP(context.Background(), models.PendingRSVP{
		ID: "r1", FullName: "Jane", Attending: models.AttendanceNo, Timestamp: 1,
	})
	require.Error(t, err)
	assert.Equal(t, models.ErrKindTransient, models.KindOf(err))
}

func TestClient_UploadPhoto(t *testing.T) {
	var gotCaption, gotUploader, gotKey string
	var gotImage []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/photos", r.URL.Path)
		gotKey = r.Header.Get("X-Idempotency-Key")

		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotCaption = r.FormValue("caption")
		gotUploader = r.FormValue("uploaderName")

		file, header, err := r.FormFile("photo")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "p1.jpg", header.Filename)
		gotImage, err = io.ReadAll(file)
		require.NoError(t, err)

		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	photo := models.PendingPhotoUpload{
		ID:           "p1",
		Image:        []byte{0x01, 0x02, 0x03},
		Caption:      "first dance",
		UploaderName: "Jane",
		Timestamp:    1700000000000,
	}
	require.NoError(t, newTestClient(srv.URL).UploadPhoto(context.Background(), photo))

	assert.Equal(t, "p1", gotKey)
	assert.Equal(t, "first dance", gotCaption)
	assert.Equal(t, "Jane", gotUploader)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, gotImage)
}

func TestClient_FetchWeddingDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/details", r.URL.Path)
		_, _ = w.Write([]byte(`{"venue":"barn"}`))
	}))
	defer srv.Close()

	content, err := newTestClient(srv.URL).FetchWeddingDetails(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"venue":"barn"}`, string(content))
}
