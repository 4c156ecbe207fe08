package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"wedding-guestsync/internal/models"
	"wedding-guestsync/internal/notify"
	"wedding-guestsync/internal/photo"
	"wedding-guestsync/internal/syncqueue"
)

// Deliverer attempts direct foreground delivery to the remote API
type Deliverer interface {
	SubmitRSVP(ctx context.Context, rsvp models.PendingRSVP) error
	UploadPhoto(ctx context.Context, p models.PendingPhotoUpload) error
}

// StatusSource reports the current network assessment
type StatusSource interface {
	Status() models.NetworkStatus
}

// Outcome reports how a submission was handled
type Outcome int

const (
	// OutcomeRejected means the submission was invalid or could not
	// be saved; nothing was queued
	OutcomeRejected Outcome = iota
	// OutcomeDelivered means the direct foreground call succeeded
	OutcomeDelivered
	// OutcomeQueued means the item was saved locally and will sync
	// when connectivity returns
	OutcomeQueued
)

// RSVPInput is a guest's RSVP form submission
type RSVPInput struct {
	FullName        string
	Attending       models.Attendance
	MealPreference  string
	Allergies       string
	AdditionalNotes string
}

// PhotoInput is a guest's photo upload
type PhotoInput struct {
	Image        []byte
	Caption      string
	UploaderName string
}

// Submitter is the submission surface: it attempts a direct remote
// call first, and on failure (or when already offline) falls back to
// the sync queue. It never retries directly; all retry responsibility
// belongs to the queue.
type Submitter struct {
	deliverer     Deliverer
	queue         *syncqueue.Queue
	net           StatusSource
	notifier      notify.Notifier
	log           zerolog.Logger
	photoMaxWidth uint
}

// NewSubmitter creates the submission surface
func NewSubmitter(d Deliverer, q *syncqueue.Queue, net StatusSource, n notify.Notifier, photoMaxWidth uint, logger zerolog.Logger) *Submitter {
	return &Submitter{
		deliverer:     d,
		queue:         q,
		net:           net,
		notifier:      n,
		log:           logger.With().Str("component", "handler").Logger(),
		photoMaxWidth: photoMaxWidth,
	}
}

// SubmitRSVP handles an RSVP form submission. A validation failure is
// returned synchronously; any delivery failure results in the item
// being queued and is never surfaced as a hard error.
func (s *Submitter) SubmitRSVP(ctx context.Context, in RSVPInput) (Outcome, error) {
	rsvp := models.PendingRSVP{
		ID:              uuid.New().String(),
		FullName:        in.FullName,
		Attending:       in.Attending,
		MealPreference:  in.MealPreference,
		Allergies:       in.Allergies,
		AdditionalNotes: in.AdditionalNotes,
		Timestamp:       time.Now().UnixMilli(),
	}

	if s.net.Status().Online {
		err := s.deliverer.SubmitRSVP(ctx, rsvp)
		if err == nil {
			s.log.Info().Str("id", rsvp.ID).Msg("RSVP delivered directly")
			return OutcomeDelivered, nil
		}
		s.log.Warn().Err(err).Str("id", rsvp.ID).Msg("direct RSVP delivery failed, falling back to queue")
	}

	if err := s.queue.EnqueueRSVP(ctx, rsvp); err != nil {
		return OutcomeRejected, fmt.Errorf("failed to queue RSVP: %w", err)
	}
	return OutcomeQueued, nil
}

// SubmitPhoto handles a photo upload. The image is normalized before
// any delivery attempt so the queued copy is already bounded in size.
func (s *Submitter) SubmitPhoto(ctx context.Context, in PhotoInput) (Outcome, error) {
	normalized, err := photo.Normalize(in.Image, s.photoMaxWidth)
	if err != nil {
		return OutcomeRejected, err
	}

	upload := models.PendingPhotoUpload{
		ID:           uuid.New().String(),
		Image:        normalized,
		Caption:      in.Caption,
		UploaderName: in.UploaderName,
		Timestamp:    time.Now().UnixMilli(),
	}

	if s.net.Status().Online {
		err := s.deliverer.UploadPhoto(ctx, upload)
		if err == nil {
			s.log.Info().Str("id", upload.ID).Msg("photo delivered directly")
			return OutcomeDelivered, nil
		}
		s.log.Warn().Err(err).Str("id", upload.ID).Msg("direct photo upload failed, falling back to queue")
	}

	if err := s.queue.EnqueuePhoto(ctx, upload); err != nil {
		return OutcomeRejected, fmt.Errorf("failed to queue photo: %w", err)
	}
	return OutcomeQueued, nil
}
