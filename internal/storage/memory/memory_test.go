package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/ports"
)

func TestIncomesAreScopedAndOrdered(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.CreateIncome(ctx, core.Income{ID: "a", UserID: "u1", Date: core.NewDate(2025, 1, 1)})
	s.CreateIncome(ctx, core.Income{ID: "b", UserID: "u1", Date: core.NewDate(2025, 3, 1)})
	s.CreateIncome(ctx, core.Income{ID: "c", UserID: "u1", Date: core.NewDate(2025, 1, 1)})
	s.CreateIncome(ctx, core.Income{ID: "x", UserID: "u2", Date: core.NewDate(2025, 1, 1)})

	list, _ := s.ListIncomes(ctx, "u1")
	want := []string{"b", "c", "a"}
	if len(list) != len(want) {
		t.Fatalf("expected %d incomes, got %d", len(want), len(list))
	}
	for i, id := range want {
		if list[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, list[i].ID)
		}
	}

	if err := s.UpdateIncome(ctx, core.Income{ID: "x", UserID: "u1"}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("cross-user update should be not found, got %v", err)
	}
	if err := s.DeleteIncome(ctx, "u1", "x"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("cross-user delete should be not found, got %v", err)
	}
	if err := s.DeleteIncome(ctx, "u1", "c"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, _ = s.ListIncomes(ctx, "u1")
	if len(list) != 2 {
		t.Fatalf("expected 2 incomes after delete, got %d", len(list))
	}
}

func TestUsersUniqueEmail(t *testing.T) {
	s := New()
	ctx := context.Background()
	if err := s.CreateUser(ctx, core.User{ID: "u1", Email: "a@example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateUser(ctx, core.User{ID: "u2", Email: "a@example.com"}); !errors.Is(err, core.ErrEmailInUse) {
		t.Fatalf("expected ErrEmailInUse, got %v", err)
	}
	s.CreateUser(ctx, core.User{ID: "u0", Email: "b@example.com"})
	ids, _ := s.ListUserIDs(ctx)
	if len(ids) != 2 || ids[0] != "u0" || ids[1] != "u1" {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestBalanceIncrementCreatesRow(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, err := s.GetBalance(ctx, "u1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	total, err := s.IncrementBalance(ctx, "u1", core.MustMoney("-5"))
	if err != nil || total.String() != "-5.00" {
		t.Fatalf("increment: %s %v", total, err)
	}
	b, err := s.GetBalance(ctx, "u1")
	if err != nil || b.UserID != "u1" || b.Total.String() != "-5.00" {
		t.Fatalf("get: %+v %v", b, err)
	}
}

func TestInTxSerializesUnits(t *testing.T) {
	s := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.InTx(ctx, func(ctx context.Context, tx ports.Store) error {
				total := core.Zero
				if b, err := tx.GetBalance(ctx, "u1"); err == nil {
					total = b.Total
				}
				time.Sleep(time.Millisecond)
				return tx.UpsertBalance(ctx, "u1", total.Add(core.MustMoney("1")))
			})
		}()
	}
	wg.Wait()

	b, err := s.GetBalance(ctx, "u1")
	if err != nil || b.Total.String() != "10.00" {
		t.Fatalf("expected 10.00, got %+v %v", b, err)
	}
	// nested units join the open one
	err = s.InTx(ctx, func(ctx context.Context, tx ports.Store) error {
		return tx.InTx(ctx, func(ctx context.Context, tx ports.Store) error {
			return tx.UpsertBalance(ctx, "u1", core.Zero)
		})
	})
	if err != nil {
		t.Fatalf("nested unit: %v", err)
	}
}
