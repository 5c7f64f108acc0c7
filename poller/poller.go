// Package poller keeps a session's view of the orders collection in step with
// the shared store by re-reading it on an interval.
//
// Between a write and the next poll the view is stale; that is expected and
// never reported as an error. A push subscription, when the store offers one,
// only makes the next poll happen sooner.
package poller

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"room-service/models"
	"room-service/store"
)

// Intervals used when no explicit interval is configured.
const (
	LocalInterval = 2 * time.Second
	PushInterval  = 5 * time.Second
)

const (
	EventNewOrder     = "new_order"
	EventOrderMissing = "order_missing"
)

type Event struct {
	Type    string       `json:"type"`
	OrderID string       `json:"orderId"`
	Order   models.Order `json:"order,omitempty"`
	At      time.Time    `json:"at"`
}

// OrderLister is the only store capability the poller needs.
type OrderLister interface {
	ListOrders(ctx context.Context) ([]models.Order, error)
}

// Diff compares the known id set with a fresh read. added keeps the order of
// fresh; missing is sorted.
func Diff(known map[string]struct{}, fresh []models.Order) (added []models.Order, missing []string) {
	seen := make(map[string]struct{}, len(fresh))
	for _, o := range fresh {
		seen[o.ID] = struct{}{}
		if _, ok := known[o.ID]; !ok {
			added = append(added, o)
		}
	}
	for id := range known {
		if _, ok := seen[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	return added, missing
}

type Poller struct {
	source   OrderLister
	interval time.Duration
	timeout  time.Duration

	mu        sync.RWMutex
	known     map[string]struct{}
	orders    []models.Order
	primed    bool
	lastPoll  time.Time
	lastError error

	listenMu  sync.Mutex
	listeners map[int]chan Event
	nextID    int

	trigger chan struct{}
}

// DefaultInterval is the poll interval to use when none is configured. A
// cross-process push channel makes polling a fallback, so it can run slower.
func DefaultInterval(pushEnabled bool) time.Duration {
	if pushEnabled {
		return PushInterval
	}
	return LocalInterval
}

// New builds a poller. interval <= 0 picks LocalInterval; callers with a push
// broker pass DefaultInterval(true) explicitly. An in-process store.Subscriber
// does not count as push.
func New(source OrderLister, interval, timeout time.Duration) *Poller {
	if interval <= 0 {
		interval = LocalInterval
	}
	if timeout <= 0 || timeout > interval {
		timeout = interval
	}
	return &Poller{
		source:    source,
		interval:  interval,
		timeout:   timeout,
		known:     map[string]struct{}{},
		listeners: map[int]chan Event{},
		trigger:   make(chan struct{}, 1),
	}
}

func (p *Poller) Interval() time.Duration { return p.interval }

// Poll runs one cycle. On a read error the previous view is kept and the error
// is returned for the caller to log; the next cycle simply tries again.
//
// The first successful poll only records a baseline and emits nothing.
func (p *Poller) Poll(ctx context.Context) ([]Event, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	fresh, err := p.source.ListOrders(ctx)
	if err != nil {
		p.mu.Lock()
		p.lastError = err
		p.mu.Unlock()
		return nil, err
	}

	p.mu.Lock()
	added, missing := Diff(p.known, fresh)
	primed := p.primed
	p.primed = true
	p.known = make(map[string]struct{}, len(fresh))
	for _, o := range fresh {
		p.known[o.ID] = struct{}{}
	}
	view := make([]models.Order, len(fresh))
	copy(view, fresh)
	sort.SliceStable(view, func(i, j int) bool { return view[i].Timestamp.After(view[j].Timestamp) })
	p.orders = view
	p.lastPoll = time.Now()
	p.lastError = nil
	p.mu.Unlock()

	if !primed {
		return nil, nil
	}

	now := time.Now()
	events := make([]Event, 0, len(added)+len(missing))
	for _, o := range added {
		events = append(events, Event{Type: EventNewOrder, OrderID: o.ID, Order: o, At: now})
	}
	for _, id := range missing {
		log.Warn().Str("order_id", id).Msg("order vanished from store; orders are never deleted")
		events = append(events, Event{Type: EventOrderMissing, OrderID: id, At: now})
	}
	p.broadcast(events)
	return events, nil
}

// Trigger asks for a poll before the next tick. It never blocks.
func (p *Poller) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Run polls until ctx is done. It subscribes to order inserts when the source
// supports push, and falls back to plain polling otherwise.
func (p *Poller) Run(ctx context.Context) error {
	if sub, ok := p.source.(store.Subscriber); ok {
		s, err := sub.Subscribe(ctx, store.Orders, func(ev store.Event) bool {
			return ev.Action == store.ActionInsert
		}, func(store.Event) { p.Trigger() })
		if err != nil {
			log.Warn().Err(err).Msg("push subscription unavailable; polling only")
		} else {
			defer s.Unsubscribe()
		}
	}

	log.Info().Dur("interval", p.interval).Msg("order poller started")
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			p.closeListeners()
			return nil
		case <-ticker.C:
			p.cycle(ctx)
		case <-p.trigger:
			p.cycle(ctx)
		}
	}
}

func (p *Poller) cycle(ctx context.Context) {
	if _, err := p.Poll(ctx); err != nil && ctx.Err() == nil {
		log.Warn().Err(err).Msg("poll failed; keeping previous view")
	}
}

// Orders returns the last successfully read orders, newest first.
func (p *Poller) Orders() []models.Order {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]models.Order, len(p.orders))
	copy(out, p.orders)
	return out
}

// Status reports when the view was last refreshed and the last poll error, if any.
func (p *Poller) Status() (time.Time, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastPoll, p.lastError
}

// Listen registers a listener for poll events. Slow listeners miss events
// rather than stall the poller.
func (p *Poller) Listen() (<-chan Event, func()) {
	ch := make(chan Event, 32)
	p.listenMu.Lock()
	p.nextID++
	id := p.nextID
	p.listeners[id] = ch
	p.listenMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.listenMu.Lock()
			if c, ok := p.listeners[id]; ok {
				delete(p.listeners, id)
				close(c)
			}
			p.listenMu.Unlock()
		})
	}
}

func (p *Poller) broadcast(events []Event) {
	if len(events) == 0 {
		return
	}
	p.listenMu.Lock()
	defer p.listenMu.Unlock()
	for _, ch := range p.listeners {
		for _, ev := range events {
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

func (p *Poller) closeListeners() {
	p.listenMu.Lock()
	defer p.listenMu.Unlock()
	for id, ch := range p.listeners {
		close(ch)
		delete(p.listeners, id)
	}
}
