package board

import (
	"log/slog"
	"slices"
	"strconv"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/go-community-alerts/internal/models"
)

// EventKind names the mutation an Event reports.
type EventKind string

const (
	EventAlertAdded     EventKind = "alert_added"
	EventFiltersUpdated EventKind = "filters_updated"
)

// Event describes a store mutation. Filtered is the view after the mutation
// and is shared between observers, so it must be treated as read-only.
type Event struct {
	Kind     EventKind
	Alert    *models.Alert // set for EventAlertAdded
	Criteria models.Criteria
	Filtered []models.Alert
}

// Observer is called synchronously after every store mutation.
type Observer func(Event)

type Option func(*Store)

func WithClock(c clockwork.Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSeed preloads the board. Alerts keep the given order; duplicate ids
// after the first are dropped.
func WithSeed(alerts []models.Alert) Option {
	return func(s *Store) {
		s.seed = alerts
	}
}

type observerEntry struct {
	id uint64
	fn Observer
}

// Store owns the board's canonical alert list (newest first), the active
// filter criteria and the filtered view derived from them.
//
// Observers run synchronously after every mutation, in registration order,
// and see events in the order the mutations happened. An observer may read
// from the store but must not mutate it.
type Store struct {
	mu        sync.RWMutex
	emitMu    sync.Mutex
	alerts    []models.Alert
	filtered  []models.Alert
	criteria  models.Criteria
	ids       map[string]struct{}
	lastID    int64
	observers []observerEntry
	nextObsID uint64

	seed   []models.Alert
	clock  clockwork.Clock
	logger *slog.Logger
}

func New(opts ...Option) *Store {
	s := &Store{
		criteria: models.ClearedCriteria(),
		ids:      make(map[string]struct{}),
		clock:    clockwork.NewRealClock(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.alerts = make([]models.Alert, 0, len(s.seed))
	for _, a := range s.seed {
		if _, dup := s.ids[a.ID]; dup || a.ID == "" {
			s.logger.Warn("skipping seed alert with duplicate or empty id", "id", a.ID)
			continue
		}
		if a.Upvotes < 0 {
			a.Upvotes = 0
		}
		s.ids[a.ID] = struct{}{}
		s.alerts = append(s.alerts, a)
	}
	s.seed = nil
	s.filtered = Filter(s.alerts, s.criteria)

	return s
}

// AddAlert stamps the draft with a fresh id, the current time, status active
// and zero upvotes, and places it at the head of the board. The caller is
// responsible for validating the draft (see Submit).
func (s *Store) AddAlert(d models.Draft) models.Alert {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.mu.Lock()

	alert := models.Alert{
		ID:          s.nextID(),
		Title:       d.Title,
		Description: d.Description,
		Category:    d.Category,
		Location:    d.Location,
		Timestamp:   s.clock.Now(),
		Status:      models.StatusActive,
		Severity:    d.Severity,
		Upvotes:     0,
	}
	if d.Coordinates != nil {
		c := *d.Coordinates
		alert.Coordinates = &c
	}

	s.ids[alert.ID] = struct{}{}
	s.alerts = slices.Insert(s.alerts, 0, alert)
	s.filtered = Filter(s.alerts, s.criteria)

	added := alert
	s.emit(Event{
		Kind:     EventAlertAdded,
		Alert:    &added,
		Criteria: s.criteria,
		Filtered: slices.Clone(s.filtered),
	})

	s.logger.Info("alert added", "id", alert.ID, "category", alert.Category, "severity", alert.Severity)
	return alert
}

// UpdateFilters replaces the active criteria and returns the recomputed view.
func (s *Store) UpdateFilters(c models.Criteria) []models.Alert {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.mu.Lock()

	criteria := c.Normalize()
	s.criteria = criteria
	s.filtered = Filter(s.alerts, criteria)
	view := slices.Clone(s.filtered)

	s.emit(Event{
		Kind:     EventFiltersUpdated,
		Criteria: criteria,
		Filtered: slices.Clone(view),
	})

	s.logger.Debug("filters updated", "category", criteria.Category, "severity", criteria.Severity, "status", criteria.Status, "matched", len(view))
	return view
}

// emit must be called with emitMu held and s.mu held for writing; it
// releases s.mu before notifying. Mutators take emitMu before s.mu, so
// delivery follows mutation order and observers can take read locks.
func (s *Store) emit(ev Event) {
	observers := slices.Clone(s.observers)
	s.mu.Unlock()

	for _, o := range observers {
		o.fn(ev)
	}
}

// Subscribe registers an observer and returns a function that removes it.
// The returned function is idempotent.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	s.mu.Lock()
	s.nextObsID++
	id := s.nextObsID
	s.observers = append(s.observers, observerEntry{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.observers = slices.DeleteFunc(s.observers, func(o observerEntry) bool {
				return o.id == id
			})
		})
	}
}

func (s *Store) Alerts() []models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.alerts)
}

func (s *Store) Filtered() []models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.filtered)
}

func (s *Store) Criteria() models.Criteria {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.criteria
}

func (s *Store) Get(id string) (models.Alert, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.alerts {
		if a.ID == id {
			return a, true
		}
	}
	return models.Alert{}, false
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.alerts)
}

// nextID derives an id from the clock in milliseconds, bumped past the last
// issued id and any id already on the board.
func (s *Store) nextID() string {
	n := s.clock.Now().UnixMilli()
	if n <= s.lastID {
		n = s.lastID + 1
	}
	for {
		id := strconv.FormatInt(n, 10)
		if _, taken := s.ids[id]; !taken {
			s.lastID = n
			return id
		}
		n++
	}
}
