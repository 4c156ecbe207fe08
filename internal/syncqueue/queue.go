package syncqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"wedding-guestsync/internal/models"
	"wedding-guestsync/internal/notify"
	"wedding-guestsync/internal/store"
)

// Deliverer sends pending items to the remote API
type Deliverer interface {
	SubmitRSVP(ctx context.Context, rsvp models.PendingRSVP) error
	UploadPhoto(ctx context.Context, photo models.PendingPhotoUpload) error
}

// StatusSource reports the current network assessment
type StatusSource interface {
	Status() models.NetworkStatus
}

// DrainResult summarizes the most recent drain pass for a collection
type DrainResult struct {
	FinishedAt time.Time `json:"finishedAt"`
	Delivered  int       `json:"delivered"`
	Failed     int       `json:"failed"`
}

// Queue ensures every locally queued item is eventually delivered.
// Items move Queued -> Submitting -> Delivered (removed), or back to
// Queued on failure; there is no terminal failed state unless a
// maximum attempt limit is configured.
type Queue struct {
	store          *store.Store
	deliverer      Deliverer
	net            StatusSource
	notifier       notify.Notifier
	log            zerolog.Logger
	attemptTimeout time.Duration
	maxAttempts    int // 0 means retry forever

	// drainCtx bounds the fire-and-forget drains spawned by enqueue,
	// so shutdown can cut them off before the store closes.
	drainCtx  context.Context
	drainStop context.CancelFunc

	mu        sync.Mutex
	inflight  map[string]bool
	rerun     map[string]bool
	lastDrain map[string]DrainResult
}

// NewQueue creates a sync queue. maxAttempts of zero retries failing
// items forever; a positive value dead-letters an item after that many
// failed deliveries.
func NewQueue(st *store.Store, d Deliverer, net StatusSource, n notify.Notifier, attemptTimeout time.Duration, maxAttempts int, logger zerolog.Logger) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		store:          st,
		deliverer:      d,
		net:            net,
		notifier:       n,
		log:            logger.With().Str("component", "syncqueue").Logger(),
		attemptTimeout: attemptTimeout,
		maxAttempts:    maxAttempts,
		drainCtx:       ctx,
		drainStop:      cancel,
		inflight:       make(map[string]bool),
		rerun:          make(map[string]bool),
		lastDrain:      make(map[string]DrainResult),
	}
}

// Close stops the opportunistic drains triggered by enqueue. Call
// before closing the store on shutdown.
func (q *Queue) Close() {
	q.drainStop()
}

// EnqueueRSVP validates and persists an RSVP, then opportunistically
// triggers a drain when the monitor reports online. The caller's
// submission has succeeded once the local write completes; delivery
// is the queue's responsibility from here.
func (q *Queue) EnqueueRSVP(ctx context.Context, rsvp models.PendingRSVP) error {
	if err := validateRSVP(rsvp); err != nil {
		return err
	}
	payload, err := json.Marshal(rsvp)
	if err != nil {
		return models.ValidationError("syncqueue.EnqueueRSVP", err)
	}
	if err := q.store.Put(ctx, store.CollectionRSVPs, rsvp.ID, payload); err != nil {
		return err
	}
	q.log.Info().Str("id", rsvp.ID).Msg("RSVP queued")
	q.drainIfOnline(store.CollectionRSVPs)
	return nil
}

// EnqueuePhoto validates and persists a photo upload, then
// opportunistically triggers a drain when online.
func (q *Queue) EnqueuePhoto(ctx context.Context, photo models.PendingPhotoUpload) error {
	if err := validatePhoto(photo); err != nil {
		return err
	}
	payload, err := json.Marshal(photo)
	if err != nil {
		return models.ValidationError("syncqueue.EnqueuePhoto", err)
	}
	if err := q.store.Put(ctx, store.CollectionPhotos, photo.ID, payload); err != nil {
		return err
	}
	q.log.Info().Str("id", photo.ID).Msg("photo queued")
	q.drainIfOnline(store.CollectionPhotos)
	return nil
}

func validateRSVP(rsvp models.PendingRSVP) error {
	switch {
	case rsvp.ID == "":
		return models.ValidationError("syncqueue.EnqueueRSVP", errors.New("missing id"))
	case rsvp.FullName == "":
		return models.ValidationError("syncqueue.EnqueueRSVP", errors.New("missing full name"))
	case !rsvp.Attending.Valid():
		return models.ValidationError("syncqueue.EnqueueRSVP", fmt.Errorf("invalid attendance %q", rsvp.Attending))
	case rsvp.Timestamp <= 0:
		return models.ValidationError("syncqueue.EnqueueRSVP", errors.New("missing timestamp"))
	}
	return nil
}

func validatePhoto(photo models.PendingPhotoUpload) error {
	switch {
	case photo.ID == "":
		return models.ValidationError("syncqueue.EnqueuePhoto", errors.New("missing id"))
	case len(photo.Image) == 0:
		return models.ValidationError("syncqueue.EnqueuePhoto", errors.New("empty image payload"))
	case photo.Timestamp <= 0:
		return models.ValidationError("syncqueue.EnqueuePhoto", errors.New("missing timestamp"))
	}
	return nil
}

func (q *Queue) drainIfOnline(collection string) {
	if !q.net.Status().Online {
		return
	}
	go q.Drain(q.drainCtx, collection)
}

// LastDrainResults returns the most recent drain outcome per
// collection, for the status endpoint.
func (q *Queue) LastDrainResults() map[string]DrainResult {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make(map[string]DrainResult, len(q.lastDrain))
	for collection, result := range q.lastDrain {
		out[collection] = result
	}
	return out
}

// DrainAll drains both pending collections sequentially. Wired to the
// monitor's reconnect signal.
func (q *Queue) DrainAll(ctx context.Context) {
	q.Drain(ctx, store.CollectionRSVPs)
	q.Drain(ctx, store.CollectionPhotos)
}

// Drain attempts delivery of every pending item in the collection,
// strictly one at a time in store order. One item's failure never
// aborts the rest. Best effort: Drain never returns an error and all
// per-item failures are reflected only in items staying queued.
//
// At most one drain per collection runs at a time. A trigger that
// arrives while one is in flight is coalesced into a single re-run
// after the active pass finishes, so an enqueue racing a drain is
// never lost and no item can be double-submitted.
func (q *Queue) Drain(ctx context.Context, collection string) {
	q.mu.Lock()
	if q.inflight[collection] {
		q.rerun[collection] = true
		q.mu.Unlock()
		return
	}
	q.inflight[collection] = true
	q.mu.Unlock()

	for {
		q.drainOnce(ctx, collection)

		q.mu.Lock()
		if q.rerun[collection] {
			q.rerun[collection] = false
			q.mu.Unlock()
			continue
		}
		q.inflight[collection] = false
		q.mu.Unlock()
		return
	}
}

func (q *Queue) drainOnce(ctx context.Context, collection string) {
	items, err := q.store.GetAll(ctx, collection)
	if err != nil {
		q.log.Error().Err(err).Str("collection", collection).Msg("drain: reading pending items failed")
		return
	}
	if len(items) == 0 {
		return
	}

	q.log.Info().Str("collection", collection).Int("pending", len(items)).Msg("draining")

	var delivered, failed int
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		if err := q.deliver(ctx, collection, item); err != nil {
			q.log.Warn().Err(err).Str("collection", collection).Str("key", item.Key).Msg("delivery failed, item stays queued")
			q.recordFailure(ctx, collection, item)
			failed++
			continue
		}
		if err := q.store.Delete(ctx, collection, item.Key); err != nil {
			q.log.Error().Err(err).Str("key", item.Key).Msg("drain: removing delivered item failed")
			continue
		}
		delivered++
		q.notifier.Notify(notify.Event{
			Kind:       notify.KindItemSynced,
			Collection: collection,
			ItemID:     item.Key,
			Message:    "synced successfully",
		})
	}

	q.mu.Lock()
	q.lastDrain[collection] = DrainResult{
		FinishedAt: time.Now(),
		Delivered:  delivered,
		Failed:     failed,
	}
	q.mu.Unlock()
}

// deliver sends a single item, bounded by the per-attempt timeout so
// a hung request cannot stall the sequential drain.
func (q *Queue) deliver(ctx context.Context, collection string, item store.Item) error {
	attemptCtx, cancel := context.WithTimeout(ctx, q.attemptTimeout)
	defer cancel()

	switch collection {
	case store.CollectionRSVPs:
		var rsvp models.PendingRSVP
		if err := json.Unmarshal(item.Payload, &rsvp); err != nil {
			return models.TransientError("syncqueue.deliver", fmt.Errorf("decode pending RSVP: %w", err))
		}
		return q.deliverer.SubmitRSVP(attemptCtx, rsvp)
	case store.CollectionPhotos:
		var photo models.PendingPhotoUpload
		if err := json.Unmarshal(item.Payload, &photo); err != nil {
			return models.TransientError("syncqueue.deliver", fmt.Errorf("decode pending photo: %w", err))
		}
		return q.deliverer.UploadPhoto(attemptCtx, photo)
	}
	return models.TransientError("syncqueue.deliver", fmt.Errorf("unknown collection %q", collection))
}

// recordFailure updates the item's attempt counter and dead-letters it
// once the configured limit is exhausted. With no limit configured the
// item is left completely untouched and simply retries forever.
func (q *Queue) recordFailure(ctx context.Context, collection string, item store.Item) {
	if q.maxAttempts <= 0 {
		return
	}

	attempts, payload, err := bumpAttempts(item.Payload)
	if err != nil {
		q.log.Error().Err(err).Str("key", item.Key).Msg("attempt accounting failed")
		return
	}

	if attempts < q.maxAttempts {
		if err := q.store.Put(ctx, collection, item.Key, payload); err != nil {
			q.log.Error().Err(err).Str("key", item.Key).Msg("persisting attempt count failed")
		}
		return
	}

	// Exhausted: move to the dead-letter collection, never drop silently.
	dead := store.DeadLetterCollection(collection)
	if err := q.store.Put(ctx, dead, item.Key, payload); err != nil {
		q.log.Error().Err(err).Str("key", item.Key).Msg("dead-lettering failed, item stays queued")
		return
	}
	if err := q.store.Delete(ctx, collection, item.Key); err != nil {
		q.log.Error().Err(err).Str("key", item.Key).Msg("removing dead-lettered item failed")
		return
	}
	q.log.Warn().Str("collection", collection).Str("key", item.Key).Int("attempts", attempts).Msg("item dead-lettered")
	q.notifier.Notify(notify.Event{
		Kind:       notify.KindItemDeadLetter,
		Collection: collection,
		ItemID:     item.Key,
		Message:    fmt.Sprintf("could not sync after %d attempts — needs attention", attempts),
	})
}

func bumpAttempts(payload []byte) (int, []byte, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return 0, nil, err
	}
	attempts := 0
	if raw, ok := fields["attempts"]; ok {
		if err := json.Unmarshal(raw, &attempts); err != nil {
			return 0, nil, err
		}
	}
	attempts++
	raw, err := json.Marshal(attempts)
	if err != nil {
		return 0, nil, err
	}
	fields["attempts"] = raw
	updated, err := json.Marshal(fields)
	if err != nil {
		return 0, nil, err
	}
	return attempts, updated, nil
}
