package leads

import (
	"sort"
	"time"

	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/domain"
)

// ListState is an operator's list view: filter, sort and current page.
// Every filter change sends the view back to page one.
type ListState struct {
	criteria Criteria
	field    SortField
	dir      Direction
	page     int
	pageSize int
}

func NewListState(pageSize int) *ListState {
	if pageSize < 1 {
		pageSize = 10
	}
	return &ListState{
		criteria: Criteria{Status: domain.FilterAll},
		field:    SortCreatedAt,
		dir:      Desc,
		page:     1,
		pageSize: pageSize,
	}
}

func (s *ListState) SetStatus(f domain.StatusFilter) {
	s.criteria.Status = f
	s.page = 1
}

func (s *ListState) SetRange(from, to *time.Time) {
	s.criteria.From = from
	s.criteria.To = to
	s.page = 1
}

func (s *ListState) SetSort(field SortField, dir Direction) {
	s.field = field
	s.dir = dir
}

func (s *ListState) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	s.page = page
}

func (s *ListState) Page() int { return s.page }

func (s *ListState) Criteria() Criteria { return s.criteria }

// Apply runs filter, sort and pagination over a snapshot of the collection.
// The input slice is not modified.
func (s *ListState) Apply(reqs []domain.BookingRequest) Page {
	out := Filter(reqs, s.criteria)
	Sort(out, s.field, s.dir)
	return Paginate(out, s.page, s.pageSize)
}

// Selection is the set of request ids picked for a bulk action.
type Selection map[string]struct{}

func NewSelection(ids ...string) Selection {
	s := Selection{}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s Selection) Add(id string)    { s[id] = struct{}{} }
func (s Selection) Remove(id string) { delete(s, id) }
func (s Selection) Len() int         { return len(s) }

func (s Selection) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s Selection) Toggle(id string) {
	if s.Has(id) {
		s.Remove(id)
		return
	}
	s.Add(id)
}

func (s Selection) Clear() {
	for id := range s {
		delete(s, id)
	}
}

// IDs returns the selected ids sorted.
func (s Selection) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
