package repository

import (
	"fmt"
	"testing"

	"github.com/boxbinhq/boxbin/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestReplaceForUser_KeepsExactlyOneRecord(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "one@example.com")
	repo := NewSubscriptionRepository(db)

	// N sequential checkouts must leave exactly one row, matching the last.
	for i := 1; i <= 4; i++ {
		sub := &models.Subscription{
			PlanID:               fmt.Sprintf("price_%d", i),
			Status:               models.SubscriptionStatusActive,
			StripeSubscriptionID: fmt.Sprintf("sub_%d", i),
			StripeCustomerID:     "cus_1",
			OriginalPrice:        2999,
			FinalPrice:           2999,
		}
		require.NoError(t, repo.ReplaceForUser(user.ID, sub))
	}

	count, err := repo.CountForUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	got, err := repo.GetByUserID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "price_4", got.PlanID)
	assert.Equal(t, "sub_4", got.StripeSubscriptionID)
}

func TestReplaceForUser_NoPriorRecords(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "fresh@example.com")
	repo := NewSubscriptionRepository(db)

	// Cleanup against zero existing rows must not error.
	sub := &models.Subscription{
		PlanID:               "price_basic",
		Status:               models.SubscriptionStatusActive,
		StripeSubscriptionID: "sub_abc",
		StripeCustomerID:     "cus_abc",
	}
	require.NoError(t, repo.ReplaceForUser(user.ID, sub))

	count, err := repo.CountForUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestDeleteAllForUser_ZeroRowsIsNoop(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "empty@example.com")
	repo := NewSubscriptionRepository(db)

	deleted, err := repo.DeleteAllForUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}

func TestDeleteAllForUser_RemovesDuplicates(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "dupes@example.com")
	repo := NewSubscriptionRepository(db)

	// Two rows can exist transiently when two checkouts race (accepted
	// weak-consistency design); the next cleanup removes both as one batch.
	for i := 0; i < 2; i++ {
		require.NoError(t, db.Create(&models.Subscription{
			UserID:               user.ID,
			PlanID:               "price_basic",
			Status:               models.SubscriptionStatusActive,
			StripeSubscriptionID: fmt.Sprintf("sub_race_%d", i),
			StripeCustomerID:     "cus_1",
		}).Error)
	}

	deleted, err := repo.DeleteAllForUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	_, err = repo.GetByUserID(user.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGetActiveByUserID(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "active@example.com")
	repo := NewSubscriptionRepository(db)

	require.NoError(t, db.Create(&models.Subscription{
		UserID:               user.ID,
		PlanID:               "price_pro",
		Status:               models.SubscriptionStatusCanceled,
		StripeSubscriptionID: "sub_old",
		StripeCustomerID:     "cus_1",
	}).Error)

	_, err := repo.GetActiveByUserID(user.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, db.Create(&models.Subscription{
		UserID:               user.ID,
		PlanID:               "price_pro",
		Status:               models.SubscriptionStatusActive,
		StripeSubscriptionID: "sub_new",
		StripeCustomerID:     "cus_1",
	}).Error)

	got, err := repo.GetActiveByUserID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "sub_new", got.StripeSubscriptionID)
}

func TestUpdatePlan(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "upgrade@example.com")
	repo := NewSubscriptionRepository(db)

	sub := &models.Subscription{
		UserID:               user.ID,
		PlanID:               "price_basic",
		Status:               models.SubscriptionStatusActive,
		StripeSubscriptionID: "sub_up",
		StripeCustomerID:     "cus_1",
	}
	require.NoError(t, db.Create(sub).Error)

	require.NoError(t, repo.UpdatePlan(sub.ID, "price_pro"))

	got, err := repo.GetByUserID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "price_pro", got.PlanID)
}
