package services

import (
	"context"
	"fmt"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/ports"
)

type GoalService struct {
	repo ports.GoalRepository
	options
}

func NewGoalService(repo ports.GoalRepository, opts ...Option) *GoalService {
	return &GoalService{repo: repo, options: buildOptions(log.ComponentGoal, opts)}
}

func (s *GoalService) List(ctx context.Context, userID string) ([]core.Goal, error) {
	if userID == "" {
		return nil, core.ErrMissingUser
	}
	return s.repo.ListGoals(ctx, userID)
}

// Create starts a goal with nothing accumulated.
func (s *GoalService) Create(ctx context.Context, g core.Goal) (core.Goal, error) {
	if g.UserID == "" {
		return core.Goal{}, core.ErrMissingUser
	}
	g.ID = s.newID()
	g.Current = core.Zero
	g = g.RecomputeCompleted()
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	if err := s.repo.CreateGoal(ctx, g); err != nil {
		return core.Goal{}, fmt.Errorf("save goal: %w", err)
	}
	s.logger.InfoContext(ctx, "Goal created", log.FieldUserID, g.UserID, log.FieldEntryID, g.ID)
	return g, nil
}

// Update changes label, target and date. The accumulated amount is kept
// and completion is recomputed against the new target.
func (s *GoalService) Update(ctx context.Context, g core.Goal) (core.Goal, error) {
	old, err := s.repo.GetGoal(ctx, g.UserID, g.ID)
	if err != nil {
		return core.Goal{}, err
	}
	old.Label, old.Target, old.TargetDate = g.Label, g.Target, g.TargetDate
	updated := old.RecomputeCompleted()
	if err := updated.Validate(); err != nil {
		return core.Goal{}, err
	}
	if err := s.repo.UpdateGoal(ctx, updated); err != nil {
		return core.Goal{}, fmt.Errorf("update goal: %w", err)
	}
	return updated, nil
}

func (s *GoalService) Delete(ctx context.Context, userID, id string) error {
	return s.repo.DeleteGoal(ctx, userID, id)
}

// Accumulate adds amount, which may be negative, to the goal.
func (s *GoalService) Accumulate(ctx context.Context, userID, id string, amount core.Money) (core.Goal, error) {
	if amount.IsZero() {
		return core.Goal{}, core.ErrInvalidAmount
	}
	return s.mutate(ctx, userID, id, func(g core.Goal) core.Goal { return g.Accumulate(amount) })
}

// ToggleCompleted flips the completed flag without touching the amount.
func (s *GoalService) ToggleCompleted(ctx context.Context, userID, id string) (core.Goal, error) {
	return s.mutate(ctx, userID, id, core.Goal.ToggleCompleted)
}

func (s *GoalService) mutate(ctx context.Context, userID, id string, fn func(core.Goal) core.Goal) (core.Goal, error) {
	g, err := s.repo.GetGoal(ctx, userID, id)
	if err != nil {
		return core.Goal{}, err
	}
	g = fn(g)
	if err := s.repo.UpdateGoal(ctx, g); err != nil {
		return core.Goal{}, fmt.Errorf("update goal: %w", err)
	}
	return g, nil
}
