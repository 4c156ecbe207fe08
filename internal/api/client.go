package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"wedding-guestsync/internal/models"
)

const maxErrorBodySize = 4 * 1024

// Client talks to the remote guest-management API. All delivery
// failures — network errors, timeouts, non-2xx responses — are
// reported as transient-kind errors so the queue treats them
// uniformly.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient creates a new API client
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		log: logger.With().Str("component", "api").Logger(),
	}
}

// Ping issues the lightweight reachability probe and returns the
// round-trip time on success.
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return 0, models.TransientError("api.Ping", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, models.TransientError("api.Ping", err)
	}
	defer drainBody(resp)

	rtt := time.Since(start)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, models.TransientError("api.Ping", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	return rtt, nil
}

// rsvpPayload is the wire shape of an RSVP submission. Queue
// bookkeeping fields are deliberately excluded.
type rsvpPayload struct {
	ID              string `json:"id"`
	FullName        string `json:"fullName"`
	Attending       string `json:"attending"`
	MealPreference  string `json:"mealPreference"`
	Allergies       string `json:"allergies"`
	AdditionalNotes string `json:"additionalNotes"`
	Timestamp       int64  `json:"timestamp"`
}

// SubmitRSVP delivers an RSVP to the remote endpoint. The item id is
// sent as the idempotency key so the server can deduplicate retries.
func (c *Client) SubmitRSVP(ctx context.Context, rsvp models.PendingRSVP) error {
	body, err := json.Marshal(rsvpPayload{
		ID:              rsvp.ID,
		FullName:        rsvp.FullName,
		Attending:       string(rsvp.Attending),
		MealPreference:  rsvp.MealPreference,
		Allergies:       rsvp.Allergies,
		AdditionalNotes: rsvp.AdditionalNotes,
		Timestamp:       rsvp.Timestamp,
	})
	if err != nil {
		return models.TransientError("api.SubmitRSVP", fmt.Errorf("marshal payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/rsvp", bytes.NewReader(body))
	if err != nil {
		return models.TransientError("api.SubmitRSVP", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Idempotency-Key", rsvp.ID)

	return c.do(req, "api.SubmitRSVP")
}

// UploadPhoto delivers a queued photo as a multipart upload
func (c *Client) UploadPhoto(ctx context.Context, photo models.PendingPhotoUpload) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("photo", photo.ID+".jpg")
	if err != nil {
		return models.TransientError("api.UploadPhoto", err)
	}
	if _, err := part.Write(photo.Image); err != nil {
		return models.TransientError("api.UploadPhoto", err)
	}
	if err := w.WriteField("caption", photo.Caption); err != nil {
		return models.TransientError("api.UploadPhoto", err)
	}
	if err := w.WriteField("uploaderName", photo.UploaderName); err != nil {
		return models.TransientError("api.UploadPhoto", err)
	}
	if err := w.WriteField("timestamp", strconv.FormatInt(photo.Timestamp, 10)); err != nil {
		return models.TransientError("api.UploadPhoto", err)
	}
	if err := w.Close(); err != nil {
		return models.TransientError("api.UploadPhoto", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/photos", &buf)
	if err != nil {
		return models.TransientError("api.UploadPhoto", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("X-Idempotency-Key", photo.ID)

	return c.do(req, "api.UploadPhoto")
}

// FetchWeddingDetails returns the reference data JSON used to refresh
// the local cache.
func (c *Client) FetchWeddingDetails(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/details", nil)
	if err != nil {
		return nil, models.TransientError("api.FetchWeddingDetails", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, models.TransientError("api.FetchWeddingDetails", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, models.TransientError("api.FetchWeddingDetails", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.TransientError("api.FetchWeddingDetails", err)
	}
	return content, nil
}

func (c *Client) do(req *http.Request, op string) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return models.TransientError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		c.log.Debug().Int("status", resp.StatusCode).Str("op", op).Msg("delivery rejected")
		return models.TransientError(op, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}
	return nil
}

func drainBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
