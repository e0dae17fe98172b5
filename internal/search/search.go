// Package search filters published listings by text, dates and party size.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/diagnosis/stayease/internal/availability"
	"github.com/diagnosis/stayease/internal/domain"
)

type Query struct {
	Term     string
	CheckIn  string
	CheckOut string
	Guests   int
}

// Apply keeps the listings matching every predicate, in input order.
// unavailable is consulted only when the query carries a valid window.
func Apply(listings []domain.Listing, q Query, unavailable map[string]struct{}) []domain.Listing {
	term := strings.ToLower(strings.TrimSpace(q.Term))
	_, dated := availability.ParseWindow(q.CheckIn, q.CheckOut)

	out := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		if !matchesTerm(l, term) {
			continue
		}
		if dated {
			if _, booked := unavailable[l.ID]; booked {
				continue
			}
		}
		if q.Guests > 0 && l.Capacity != nil && *l.Capacity < q.Guests {
			continue
		}
		out = append(out, l)
	}
	return out
}

func matchesTerm(l domain.Listing, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(l.Title), term) ||
		strings.Contains(strings.ToLower(l.Location), term) ||
		strings.Contains(strings.ToLower(l.Description), term)
}

type ListingStore interface {
	ListPublished(ctx context.Context) ([]domain.Listing, error)
}

type Service struct {
	listings ListingStore
	filter   *availability.Filter
}

func NewService(listings ListingStore, filter *availability.Filter) *Service {
	return &Service{listings: listings, filter: filter}
}

func (s *Service) Search(ctx context.Context, q Query) ([]domain.Listing, error) {
	listings, err := s.listings.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list published listings: %v", domain.ErrUpstream, err)
	}

	var unavailable map[string]struct{}
	if w, ok := availability.ParseWindow(q.CheckIn, q.CheckOut); ok {
		unavailable = s.filter.Unavailable(ctx, w)
	}

	return Apply(listings, q, unavailable), nil
}
