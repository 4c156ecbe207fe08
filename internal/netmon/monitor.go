package netmon

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"wedding-guestsync/internal/models"
)

// Prober confirms the server is actually reachable, as opposed to the
// platform merely reporting a link.
type Prober interface {
	Ping(ctx context.Context) (time.Duration, error)
}

// OnlineHandler is called after a confirmed offline-to-online
// transition.
type OnlineHandler func()

// Monitor maintains a best-effort reachability assessment. The
// platform's negative signal (link down) is trusted immediately; the
// positive signal is only trusted after a successful probe.
type Monitor struct {
	prober        Prober
	probeTimeout  time.Duration
	probeInterval time.Duration
	fastThreshold time.Duration
	log           zerolog.Logger

	mu            sync.Mutex
	status        models.NetworkStatus
	onlineHandler OnlineHandler
}

// NewMonitor creates a network monitor using prober for reachability
// checks.
func NewMonitor(prober Prober, probeTimeout, probeInterval time.Duration, logger zerolog.Logger) *Monitor {
	return &Monitor{
		prober:        prober,
		probeTimeout:  probeTimeout,
		probeInterval: probeInterval,
		fastThreshold: time.Second,
		log:           logger.With().Str("component", "netmon").Logger(),
		status:        models.NetworkStatus{Quality: models.QualityUnknown},
	}
}

// SetOnlineHandler registers the callback fired on confirmed
// reconnects. Must be called before Run.
func (m *Monitor) SetOnlineHandler(h OnlineHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onlineHandler = h
}

// Status returns the current cached assessment. No side effects,
// never blocks.
func (m *Monitor) Status() models.NetworkStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// SetLinkUp feeds the platform link signal into the monitor. A down
// signal flips offline immediately with no network call; an up signal
// triggers a confirming probe and only flips online on success.
func (m *Monitor) SetLinkUp(up bool) {
	if !up {
		m.mu.Lock()
		m.status.Online = false
		m.status.Connecting = false
		m.mu.Unlock()
		m.log.Info().Msg("link down, marking offline")
		return
	}

	m.mu.Lock()
	m.status.Connecting = true
	m.mu.Unlock()

	rtt, err := m.probe()
	if err != nil {
		// Positive platform signal is not trusted without confirmation.
		m.mu.Lock()
		m.status.Connecting = false
		m.mu.Unlock()
		m.log.Warn().Err(err).Msg("link up but probe failed, staying offline")
		return
	}

	m.confirmOnline(rtt)
}

// Run drives the periodic probe until ctx is cancelled. While online,
// a probe failure flips the status offline, catching zombie links
// where the OS still reports a link but the server is unreachable.
// While offline, a probe success transitions back online through the
// same confirmed path as SetLinkUp; the agent has no platform link
// events mid-run, so the ticker is also the recovery path.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.probeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.recheck()
		}
	}
}

func (m *Monitor) recheck() {
	m.mu.Lock()
	online := m.status.Online
	m.mu.Unlock()

	if !online {
		rtt, err := m.probe()
		if err != nil {
			return
		}
		m.confirmOnline(rtt)
		return
	}

	if _, err := m.probe(); err != nil {
		m.mu.Lock()
		m.status.Online = false
		m.status.Connecting = false
		m.mu.Unlock()
		m.log.Warn().Err(err).Msg("periodic probe failed, marking offline")
		return
	}

	m.mu.Lock()
	m.status.LastConnected = time.Now()
	m.mu.Unlock()
}

func (m *Monitor) confirmOnline(rtt time.Duration) {
	m.mu.Lock()
	wasOffline := !m.status.Online
	m.status.Online = true
	m.status.Connecting = false
	m.status.LastConnected = time.Now()
	m.status.Quality = m.classify(rtt)
	handler := m.onlineHandler
	m.mu.Unlock()

	m.log.Info().Dur("rtt", rtt).Msg("reachability confirmed")
	if wasOffline && handler != nil {
		go handler()
	}
}

func (m *Monitor) probe() (time.Duration, error) {
	ctx, cancel := context.WithTimeout(context.Background(), m.probeTimeout)
	defer cancel()
	return m.prober.Ping(ctx)
}

func (m *Monitor) classify(rtt time.Duration) models.ConnectionQuality {
	if rtt < m.fastThreshold {
		return models.QualityFast
	}
	return models.QualitySlow
}
