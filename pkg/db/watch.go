package db

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/acorn-io/kids-market/pkg/model"
	"k8s.io/apimachinery/pkg/util/wait"
)

// ChildrenSnapshot is one push from a live children query: either the full
// current result set or the error that prevented reading it.
type ChildrenSnapshot struct {
	Children []model.ChildRecord
	Err      error
}

// ChildQuery selects the children linked to one admin.
type ChildQuery struct {
	db       *database
	adminUID string
}

func (d *database) WatchChildren(adminUID string) *ChildQuery {
	return &ChildQuery{db: d, adminUID: adminUID}
}

// Listen delivers an initial snapshot and then a new snapshot every time the
// result set changes. The handler is always called from the same goroutine, so
// deliveries never overlap. The returned func stops delivery; it may be called
// any number of times.
func (q *ChildQuery) Listen(handler func(ChildrenSnapshot)) func() {
	s := &subscription{
		query:   q,
		handler: handler,
		kick:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
	q.db.watchers.add(s)

	go s.run(q.db.pollInterval)

	return func() {
		q.db.watchers.remove(s)
		s.close()
	}
}

type subscription struct {
	query   *ChildQuery
	handler func(ChildrenSnapshot)
	kick    chan struct{}
	stop    chan struct{}
	once    sync.Once
	last    string
}

func (s *subscription) run(poll time.Duration) {
	if poll > 0 {
		// writes from other processes never kick us, so re-read on a timer
		go wait.JitterUntil(s.poke, poll, 0.1, true, s.stop)
	}

	s.deliver()
	for {
		select {
		case <-s.stop:
			return
		case <-s.kick:
			s.deliver()
		}
	}
}

// poke schedules a re-read. Pending pokes coalesce into one.
func (s *subscription) poke() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

func (s *subscription) deliver() {
	children, err := s.query.db.ListChildrenByAdmin(s.query.adminUID)

	var fingerprint string
	if err != nil {
		fingerprint = "error:" + err.Error()
	} else {
		fingerprint = fingerprintOf(children)
	}
	if fingerprint == s.last {
		return
	}

	select {
	case <-s.stop:
		return
	default:
	}

	s.last = fingerprint
	s.handler(ChildrenSnapshot{Children: children, Err: err})
}

func (s *subscription) close() {
	s.once.Do(func() {
		close(s.stop)
	})
}

func fingerprintOf(children []model.ChildRecord) string {
	data, err := json.Marshal(children)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

type watchHub struct {
	mu   sync.Mutex
	subs map[*subscription]struct{}
}

func newWatchHub() *watchHub {
	return &watchHub{
		subs: make(map[*subscription]struct{}),
	}
}

func (h *watchHub) add(s *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[s] = struct{}{}
}

func (h *watchHub) remove(s *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, s)
}

// kick tells every live query that the children collection changed.
func (h *watchHub) kick() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		s.poke()
	}
}

func (h *watchHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		s.close()
		delete(h.subs, s)
	}
}
