package app

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"dealer_reviews/internal/domain"
)

// DealerService reads dealership records straight from the backend.
type DealerService struct {
	backend domain.RequestClient
}

func NewDealerService(backend domain.RequestClient) *DealerService {
	return &DealerService{backend: backend}
}

// Dealerships lists all dealers, or those in state. "" and "All" mean every state.
func (s *DealerService) Dealerships(ctx context.Context, state string) any {
	if isAllStates(state) {
		return s.backend.Get(ctx, "/fetchDealers", nil)
	}
	return s.backend.Get(ctx, "/fetchDealers/"+url.PathEscape(state), nil)
}

func (s *DealerService) Dealer(ctx context.Context, dealerID int64) any {
	return s.backend.Get(ctx, fmt.Sprintf("/fetchDealer/%d", dealerID), nil)
}

func isAllStates(state string) bool {
	state = strings.TrimSpace(state)
	return state == "" || state == "All"
}
