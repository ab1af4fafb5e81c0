package app

import (
	"math"
	"sync"

	"github.com/yourusername/ytdl-go/internal/domain"
)

const subscriberBuffer = 16

// ProgressPublisher owns a task's ProgressState. The task writes into it as a
// domain.ProgressSink and any number of observers read snapshots or subscribe.
type ProgressPublisher struct {
	mu          sync.RWMutex
	state       domain.ProgressState
	finished    bool
	subscribers map[int]chan domain.ProgressState
	nextSubID   int
	done        chan struct{}
}

// NewProgressPublisher creates a publisher in the initial unknown state
func NewProgressPublisher() *ProgressPublisher {
	return &ProgressPublisher{
		state:       domain.NewProgressState(),
		subscribers: make(map[int]chan domain.ProgressState),
		done:        make(chan struct{}),
	}
}

// SetStage sets the stage message
func (p *ProgressPublisher) SetStage(stage string) {
	p.update(func(s *domain.ProgressState) { s.Stage = stage })
}

// SetPercent sets the download percentage
func (p *ProgressPublisher) SetPercent(percent float64) {
	// snapshots are served as JSON, which has no NaN or Inf
	if math.IsNaN(percent) || math.IsInf(percent, 0) {
		return
	}
	p.update(func(s *domain.ProgressState) { s.Percent = percent })
}

// SetSpeed sets the download speed
func (p *ProgressPublisher) SetSpeed(speed string) {
	p.update(func(s *domain.ProgressState) { s.Speed = speed })
}

// SetETA sets the estimated time remaining
func (p *ProgressPublisher) SetETA(eta string) {
	p.update(func(s *domain.ProgressState) { s.ETA = eta })
}

// SetTitle sets the display title. Ignored once the task finished.
func (p *ProgressPublisher) SetTitle(title string) {
	p.update(func(s *domain.ProgressState) { s.Title = title })
}

// Finish publishes the terminal state: percent 100, unknown speed and ETA, and
// the outcome's stage message. Only the first call has any effect.
func (p *ProgressPublisher) Finish(outcome domain.TerminalOutcome) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.finished {
		return
	}
	p.finished = true
	p.state.Percent = 100
	p.state.Speed = domain.UnknownValue
	p.state.ETA = domain.UnknownValue
	p.state.Stage = outcome.Message()
	p.state.Finished = true
	p.state.Outcome = &outcome

	p.broadcast()
	for id, ch := range p.subscribers {
		close(ch)
		delete(p.subscribers, id)
	}
	close(p.done)
}

// Snapshot returns a copy of the current state
func (p *ProgressPublisher) Snapshot() domain.ProgressState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot()
}

// Finished reports whether the terminal state has been published
func (p *ProgressPublisher) Finished() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.finished
}

// Done is closed once the terminal state has been published
func (p *ProgressPublisher) Done() <-chan struct{} {
	return p.done
}

// Subscribe returns a channel receiving snapshots after every change, starting
// with the current one. Slow readers miss intermediate snapshots but always
// get the terminal one, after which the channel is closed. The returned func
// unsubscribes.
func (p *ProgressPublisher) Subscribe() (<-chan domain.ProgressState, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan domain.ProgressState, subscriberBuffer)
	ch <- p.snapshot()
	if p.finished {
		close(ch)
		return ch, func() {}
	}

	id := p.nextSubID
	p.nextSubID++
	p.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if sub, ok := p.subscribers[id]; ok {
				close(sub)
				delete(p.subscribers, id)
			}
		})
	}
}

func (p *ProgressPublisher) update(apply func(*domain.ProgressState)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.finished {
		return
	}
	apply(&p.state)
	p.broadcast()
}

// broadcast must be called with mu held
func (p *ProgressPublisher) broadcast() {
	snap := p.snapshot()
	for _, ch := range p.subscribers {
		select {
		case ch <- snap:
		default:
			// drop the oldest queued snapshot to make room for the newest
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func (p *ProgressPublisher) snapshot() domain.ProgressState {
	snap := p.state
	if p.state.Outcome != nil {
		outcome := *p.state.Outcome
		snap.Outcome = &outcome
	}
	return snap
}
