package service

import (
	"sync"

	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/domain"
)

// Board is the in-memory copy of the request collection that list and
// calendar reads are served from. Only committed writes reach it.
type Board struct {
	mu   sync.RWMutex
	reqs []domain.BookingRequest
}

func NewBoard() *Board {
	return &Board{}
}

// Load replaces the whole collection.
func (b *Board) Load(reqs []domain.BookingRequest) {
	cp := make([]domain.BookingRequest, len(reqs))
	for i, r := range reqs {
		cp[i] = r.Clone()
	}
	b.mu.Lock()
	b.reqs = cp
	b.mu.Unlock()
}

// Snapshot returns a copy callers may sort and filter freely.
func (b *Board) Snapshot() []domain.BookingRequest {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]domain.BookingRequest, len(b.reqs))
	for i, r := range b.reqs {
		out[i] = r.Clone()
	}
	return out
}

func (b *Board) Get(id string) (domain.BookingRequest, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, r := range b.reqs {
		if r.ID == id {
			return r.Clone(), true
		}
	}
	return domain.BookingRequest{}, false
}

// Put replaces the request with the same id, or prepends it when new.
func (b *Board) Put(r domain.BookingRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.reqs {
		if b.reqs[i].ID == r.ID {
			b.reqs[i] = r.Clone()
			return
		}
	}
	b.reqs = append([]domain.BookingRequest{r.Clone()}, b.reqs...)
}

func (b *Board) Remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.reqs {
		if b.reqs[i].ID == id {
			b.reqs = append(b.reqs[:i], b.reqs[i+1:]...)
			return
		}
	}
}

func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.reqs)
}
