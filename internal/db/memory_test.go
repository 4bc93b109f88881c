package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"eatlens-backend-go/internal/models"
)

func seedUser(t *testing.T, repos *Repositories, u models.User) {
	t.Helper()
	if err := repos.Users.Create(context.Background(), &u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func TestMemoryTransactionCommitsOnSuccess(t *testing.T) {
	store := NewMemoryStore()
	repos := store.Repositories()
	ctx := context.Background()
	seedUser(t, repos, models.User{ID: "u1", Plan: models.PlanFree})

	var reqID string
	err := repos.Accounts.RunTransaction(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := tx.GetUser("u1"); err != nil {
			return err
		}
		req := &models.UpgradeRequest{UserID: "u1", Status: models.RequestPending}
		if err := tx.CreateUpgradeRequest(req); err != nil {
			return err
		}
		reqID = req.ID
		return tx.UpdateUser("u1", models.UserPatch{Plan: models.Ptr(models.PlanPending)})
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}

	u, _ := repos.Users.GetByID(ctx, "u1")
	if u.Plan != models.PlanPending {
		t.Fatalf("expected pending, got %s", u.Plan)
	}
	if _, err := repos.Requests.GetByID(ctx, reqID); err != nil {
		t.Fatalf("request not committed: %v", err)
	}
}

func TestMemoryTransactionRollsBackOnInjectedFailure(t *testing.T) {
	store := NewMemoryStore()
	repos := store.Repositories()
	ctx := context.Background()
	seedUser(t, repos, models.User{ID: "u1", Plan: models.PlanPending})
	reqID := store.PutUpgradeRequest(models.UpgradeRequest{UserID: "u1", Status: models.RequestPending})

	boom := errors.New("write failed")
	store.FailWritesAfter(1, boom)

	err := repos.Accounts.RunTransaction(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.UpdateUpgradeRequest(reqID, models.RequestPatch{Status: models.RequestApproved}); err != nil {
			return err
		}
		return tx.UpdateUser("u1", models.UserPatch{Plan: models.Ptr(models.PlanPro)})
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected injected failure, got %v", err)
	}

	req, _ := repos.Requests.GetByID(ctx, reqID)
	u, _ := repos.Users.GetByID(ctx, "u1")
	if req.Status != models.RequestPending || u.Plan != models.PlanPending {
		t.Fatalf("partial write leaked: request=%s user=%s", req.Status, u.Plan)
	}

	// The injected failure is consumed by one transaction.
	err = repos.Accounts.RunTransaction(ctx, func(ctx context.Context, tx Tx) error {
		return tx.UpdateUser("u1", models.UserPatch{Plan: models.Ptr(models.PlanPro)})
	})
	if err != nil {
		t.Fatalf("expected next transaction to succeed, got %v", err)
	}
}

func TestMemoryTxMissingDocuments(t *testing.T) {
	store := NewMemoryStore()
	err := store.RunTransaction(context.Background(), func(ctx context.Context, tx Tx) error {
		_, err := tx.GetUser("ghost")
		return err
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryUsersCreateDuplicate(t *testing.T) {
	repos := NewMemoryStore().Repositories()
	seedUser(t, repos, models.User{ID: "u1"})
	if err := repos.Users.Create(context.Background(), &models.User{ID: "u1"}); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestMemoryListExpiredPro(t *testing.T) {
	repos := NewMemoryStore().Repositories()
	now := models.Millis(1_000_000)
	past, future := now-1, now+1
	seedUser(t, repos, models.User{ID: "expired", Plan: models.PlanPro, PlanExpiryDate: &past})
	seedUser(t, repos, models.User{ID: "active", Plan: models.PlanPro, PlanExpiryDate: &future})
	seedUser(t, repos, models.User{ID: "free", Plan: models.PlanFree})

	users, err := repos.Users.ListExpiredPro(context.Background(), now)
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 1 || users[0].ID != "expired" {
		t.Fatalf("unexpected users %+v", users)
	}

	pros, _ := repos.Users.ListByPlan(context.Background(), models.PlanPro)
	if len(pros) != 2 {
		t.Fatalf("expected 2 pro users, got %d", len(pros))
	}
}

func TestMemoryReviewsOrderingAndStatus(t *testing.T) {
	repos := NewMemoryStore().Repositories()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < 4; i++ {
		rv := &models.Review{Rating: 5, Status: models.ReviewPending, SubmittedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := repos.Reviews.Create(ctx, rv); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, rv.ID)
	}
	for _, id := range ids[1:] {
		if _, err := repos.Reviews.SetStatus(ctx, id, models.ReviewPending, models.ReviewApproved); err != nil {
			t.Fatal(err)
		}
	}

	approved, _ := repos.Reviews.ListApproved(ctx, 2)
	if len(approved) != 2 || approved[0].ID != ids[3] || approved[1].ID != ids[2] {
		t.Fatalf("expected newest two approved reviews, got %+v", approved)
	}

	current, err := repos.Reviews.SetStatus(ctx, ids[3], models.ReviewPending, models.ReviewRejected)
	if !errors.Is(err, ErrStatusConflict) {
		t.Fatalf("expected ErrStatusConflict, got %v", err)
	}
	if current.Status != models.ReviewApproved {
		t.Fatalf("expected stored status returned, got %s", current.Status)
	}
}

func TestMemoryMessagesStatus(t *testing.T) {
	repos := NewMemoryStore().Repositories()
	ctx := context.Background()
	msg := &models.ContactMessage{Name: "A", Status: models.MessageNew, SubmittedAt: time.Now()}
	if err := repos.Messages.Create(ctx, msg); err != nil {
		t.Fatal(err)
	}
	if _, err := repos.Messages.SetStatus(ctx, msg.ID, models.MessageNew, models.MessageRead); err != nil {
		t.Fatal(err)
	}
	if _, err := repos.Messages.SetStatus(ctx, "missing", models.MessageNew, models.MessageRead); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
