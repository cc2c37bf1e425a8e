// Package leads filters, sorts and pages the operator's request list.
package leads

import (
	"sort"
	"strings"
	"time"

	"github.com/diagnosis/demo-scheduler/services/scheduler/internal/domain"
)

type SortField string

const (
	SortName           SortField = "name"
	SortEmail          SortField = "email"
	SortStatus         SortField = "status"
	SortCreatedAt      SortField = "created_at"
	SortPreferredStart SortField = "preferred_start"
)

func ParseSortField(s string) (SortField, bool) {
	switch SortField(s) {
	case "":
		return SortCreatedAt, true
	case SortName, SortEmail, SortStatus, SortCreatedAt, SortPreferredStart:
		return SortField(s), true
	}
	return "", false
}

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(s) {
	case "":
		return Desc, true
	case string(Asc):
		return Asc, true
	case string(Desc):
		return Desc, true
	}
	return "", false
}

// Criteria is the filter half of the list query. A nil bound is open.
type Criteria struct {
	Status domain.StatusFilter
	From   *time.Time
	To     *time.Time
}

// Filter keeps requests whose status matches and whose preference window
// lies entirely inside [From, To].
func Filter(reqs []domain.BookingRequest, c Criteria) []domain.BookingRequest {
	out := make([]domain.BookingRequest, 0, len(reqs))
	for _, r := range reqs {
		if c.Status.Match(r.Status) && r.WindowWithin(c.From, c.To) {
			out = append(out, r)
		}
	}
	return out
}

// Sort orders reqs in place by one field. Equal keys keep their order.
func Sort(reqs []domain.BookingRequest, field SortField, dir Direction) {
	cmp := compareBy(field)
	sort.SliceStable(reqs, func(i, j int) bool {
		c := cmp(reqs[i], reqs[j])
		if dir == Asc {
			return c < 0
		}
		return c > 0
	})
}

func compareBy(field SortField) func(a, b domain.BookingRequest) int {
	switch field {
	case SortName:
		return func(a, b domain.BookingRequest) int {
			return strings.Compare(strings.ToLower(a.FullName), strings.ToLower(b.FullName))
		}
	case SortEmail:
		return func(a, b domain.BookingRequest) int { return strings.Compare(a.Email, b.Email) }
	case SortStatus:
		return func(a, b domain.BookingRequest) int { return strings.Compare(string(a.Status), string(b.Status)) }
	case SortPreferredStart:
		return func(a, b domain.BookingRequest) int { return a.PreferredStart.Compare(b.PreferredStart) }
	default:
		return func(a, b domain.BookingRequest) int { return a.CreatedAt.Compare(b.CreatedAt) }
	}
}

// Page is one page of a sorted, filtered list.
type Page struct {
	Items      []domain.BookingRequest `json:"items"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"page_size"`
	Total      int                     `json:"total"`
	TotalPages int                     `json:"total_pages"`
}

// Paginate slices reqs. Pages are 1-based; a page past the end is empty.
func Paginate(reqs []domain.BookingRequest, page, size int) Page {
	if size < 1 {
		size = 1
	}
	if page < 1 {
		page = 1
	}
	total := len(reqs)
	pages := total / size
	if total%size != 0 {
		pages++
	}

	p := Page{Page: page, PageSize: size, Total: total, TotalPages: pages, Items: []domain.BookingRequest{}}
	// compare pages before multiplying so a huge page number cannot overflow
	if page > pages {
		return p
	}
	start := (page - 1) * size
	end := total
	if size < total-start {
		end = start + size
	}
	p.Items = append(p.Items, reqs[start:end]...)
	return p
}
