package services

import (
	"context"
	"fmt"
	"time"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/ports"
)

type DueService struct {
	repo ports.DueItemRepository
	options
}

func NewDueService(repo ports.DueItemRepository, opts ...Option) *DueService {
	return &DueService{repo: repo, options: buildOptions(log.ComponentDue, opts)}
}

// List returns the user's due items narrowed by filter relative to today.
func (s *DueService) List(ctx context.Context, userID string, filter core.DueFilter) ([]core.DueItem, error) {
	if userID == "" {
		return nil, core.ErrMissingUser
	}
	items, err := s.repo.ListDueItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	return core.FilterDueItems(items, filter, s.today()), nil
}

func (s *DueService) Create(ctx context.Context, d core.DueItem) (core.DueItem, error) {
	if d.UserID == "" {
		return core.DueItem{}, core.ErrMissingUser
	}
	d.ID = s.newID()
	d.Paid = false
	if err := d.Validate(); err != nil {
		return core.DueItem{}, err
	}
	if err := s.repo.CreateDueItem(ctx, d); err != nil {
		return core.DueItem{}, fmt.Errorf("save due item: %w", err)
	}
	s.logger.InfoContext(ctx, "Due item created", log.FieldUserID, d.UserID, log.FieldEntryID, d.ID)
	return d, nil
}

func (s *DueService) Update(ctx context.Context, d core.DueItem) (core.DueItem, error) {
	if err := d.Validate(); err != nil {
		return core.DueItem{}, err
	}
	if err := s.repo.UpdateDueItem(ctx, d); err != nil {
		return core.DueItem{}, err
	}
	return d, nil
}

func (s *DueService) Delete(ctx context.Context, userID, id string) error {
	return s.repo.DeleteDueItem(ctx, userID, id)
}

func (s *DueService) TogglePaid(ctx context.Context, userID, id string) (core.DueItem, error) {
	d, err := s.repo.GetDueItem(ctx, userID, id)
	if err != nil {
		return core.DueItem{}, err
	}
	d.Paid = !d.Paid
	if err := s.repo.UpdateDueItem(ctx, d); err != nil {
		return core.DueItem{}, fmt.Errorf("update due item: %w", err)
	}
	return d, nil
}

// Calendar groups one month of due items by day. A zero year selects the
// current month.
func (s *DueService) Calendar(ctx context.Context, userID string, year int, month time.Month) ([]core.CalendarDay, error) {
	if userID == "" {
		return nil, core.ErrMissingUser
	}
	if year == 0 {
		today := s.today()
		year, month = today.Year(), today.Month()
	}
	items, err := s.repo.ListDueItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	return core.Calendar(items, year, month), nil
}
