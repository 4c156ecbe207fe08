package notify

import (
	"sync"

	"github.com/rs/zerolog"
)

// Kind identifies the notification event type
type Kind string

const (
	KindBackOnline     Kind = "back_online"
	KindItemSynced     Kind = "item_synced"
	KindItemDeadLetter Kind = "item_dead_letter"
)

// Event is a user-visible notification raised by the sync machinery
type Event struct {
	Kind       Kind
	Collection string
	ItemID     string
	Message    string
}

// Notifier receives user-visible notifications. Implementations must
// not block the drain loop.
type Notifier interface {
	Notify(Event)
}

// LogNotifier writes notifications to the structured log
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier creates a notifier backed by the given logger
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: logger.With().Str("component", "notify").Logger()}
}

func (n *LogNotifier) Notify(ev Event) {
	n.log.Info().
		Str("kind", string(ev.Kind)).
		Str("collection", ev.Collection).
		Str("item_id", ev.ItemID).
		Msg(ev.Message)
}

// Recorder captures notifications for inspection in tests
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Notify(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of everything recorded so far
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
