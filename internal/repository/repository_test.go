package repository_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boxoffice/internal/entities"
	"boxoffice/internal/repository"
)

var (
	testDB    *sqlx.DB
	getDBOnce sync.Once
)

func getDB(t *testing.T) *sqlx.DB {
	url := os.Getenv("POSTGRES_URL")
	if url == "" {
		t.Skip("POSTGRES_URL not set")
	}

	getDBOnce.Do(func() {
		var err error
		testDB, err = sqlx.Open("postgres", url)
		if err != nil {
			panic(err)
		}
		if err := repository.InitializeDBSchema(testDB); err != nil {
			panic(err)
		}
	})
	return testDB
}

func createTestShow(t *testing.T, repo *repository.ShowsRepo) uuid.UUID {
	id, err := repo.CreateShow(context.Background(), entities.Show{
		Title:            "Integration Show",
		Venue:            "Test Hall",
		Date:             time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC),
		Time:             "19:30",
		SaleStatus:       entities.SaleStatusOnSale,
		AutoUpdateStatus: true,
	})
	require.NoError(t, err)
	return id
}

func createTestClass(t *testing.T, repo *repository.TicketClassesRepo, showID uuid.UUID, available int) uuid.UUID {
	classID := uuid.New()
	err := repo.UpsertTicketClass(context.Background(), entities.TicketClass{
		ID:                classID,
		ShowID:            showID,
		Type:              "standard",
		Price:             decimal.NewFromInt(42),
		Capacity:          available,
		AvailableQuantity: available,
	})
	require.NoError(t, err)
	return classID
}

func TestInvoicesRepo_Integration(t *testing.T) {
	db := getDB(t)
	ctx := context.Background()

	repo := repository.NewInvoicesRepo(db, trmsqlx.DefaultCtxGetter)

	newInvoice := func() entities.Invoice {
		return entities.Invoice{
			ID:        uuid.New(),
			PaymentID: uuid.NewString(),
			Status:    entities.InvoiceStatusWaitingPayment,
			ExpiresAt: time.Now().Add(15 * time.Minute),
			TicketDetails: entities.TicketDetails{
				{TicketClassID: uuid.New(), Quantity: 2},
			},
			CreatedBy: "integration-test",
		}
	}

	t.Run("create and get", func(t *testing.T) {
		invoice := newInvoice()
		require.NoError(t, repo.CreateInvoice(ctx, invoice))

		got, err := repo.GetInvoice(ctx, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, invoice.ID, got.ID)
		assert.Equal(t, entities.InvoiceStatusWaitingPayment, got.Status)
		assert.Equal(t, invoice.TicketDetails, got.TicketDetails)
		assert.Equal(t, 0, got.Version)
	})

	t.Run("get unknown", func(t *testing.T) {
		_, err := repo.GetInvoice(ctx, uuid.New())
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("transition is guarded by terminality", func(t *testing.T) {
		invoice := newInvoice()
		require.NoError(t, repo.CreateInvoice(ctx, invoice))

		require.NoError(t, repo.TransitionStatus(ctx, invoice.ID, entities.InvoiceStatusPaymentSuccess))

		err := repo.TransitionStatus(ctx, invoice.ID, entities.InvoiceStatusPaymentFailed)
		assert.ErrorIs(t, err, entities.ErrInvalidTransition)

		got, err := repo.GetInvoice(ctx, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, entities.InvoiceStatusPaymentSuccess, got.Status)
		assert.Equal(t, 1, got.Version)
	})

	t.Run("mark expired returns only transitioned ids", func(t *testing.T) {
		overdue := newInvoice()
		overdue.ExpiresAt = time.Now().Add(-time.Minute)
		require.NoError(t, repo.CreateInvoice(ctx, overdue))

		paid := newInvoice()
		paid.ExpiresAt = time.Now().Add(-time.Minute)
		require.NoError(t, repo.CreateInvoice(ctx, paid))
		require.NoError(t, repo.TransitionStatus(ctx, paid.ID, entities.InvoiceStatusPaymentSuccess))

		transitioned, err := repo.MarkExpired(ctx, []uuid.UUID{overdue.ID, paid.ID})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{overdue.ID}, transitioned)

		again, err := repo.MarkExpired(ctx, []uuid.UUID{overdue.ID, paid.ID})
		require.NoError(t, err)
		assert.Empty(t, again)
	})

	t.Run("release log deduplicates", func(t *testing.T) {
		invoice := newInvoice()
		require.NoError(t, repo.CreateInvoice(ctx, invoice))

		first, err := repo.LogRelease(ctx, invoice.ID)
		require.NoError(t, err)
		assert.True(t, first)

		second, err := repo.LogRelease(ctx, invoice.ID)
		require.NoError(t, err)
		assert.False(t, second)
	})
}

func TestTicketClassesRepo_Integration(t *testing.T) {
	db := getDB(t)
	ctx := context.Background()

	showsRepo := repository.NewShowsRepo(db, trmsqlx.DefaultCtxGetter)
	repo := repository.NewTicketClassesRepo(db, trmsqlx.DefaultCtxGetter)
	showID := createTestShow(t, showsRepo)

	t.Run("decrement guarded by version", func(t *testing.T) {
		classID := createTestClass(t, repo, showID, 10)

		class, err := repo.GetTicketClass(ctx, classID)
		require.NoError(t, err)

		require.NoError(t, repo.DecrementAvailable(ctx, classID, 3, class.Version))

		// a second writer holding the stale version must conflict
		err = repo.DecrementAvailable(ctx, classID, 3, class.Version)
		assert.ErrorIs(t, err, entities.ErrConflict)

		got, err := repo.GetTicketClass(ctx, classID)
		require.NoError(t, err)
		assert.Equal(t, 7, got.AvailableQuantity)
	})

	t.Run("decrement below zero conflicts", func(t *testing.T) {
		classID := createTestClass(t, repo, showID, 2)

		class, err := repo.GetTicketClass(ctx, classID)
		require.NoError(t, err)

		err = repo.DecrementAvailable(ctx, classID, 3, class.Version)
		assert.ErrorIs(t, err, entities.ErrConflict)
	})

	t.Run("credit restores quantity", func(t *testing.T) {
		classID := createTestClass(t, repo, showID, 5)

		class, err := repo.GetTicketClass(ctx, classID)
		require.NoError(t, err)
		require.NoError(t, repo.DecrementAvailable(ctx, classID, 5, class.Version))

		require.NoError(t, repo.CreditAvailable(ctx, classID, 5))

		got, err := repo.GetTicketClass(ctx, classID)
		require.NoError(t, err)
		assert.Equal(t, 5, got.AvailableQuantity)
	})

	t.Run("upsert updates existing class", func(t *testing.T) {
		classID := createTestClass(t, repo, showID, 5)

		err := repo.UpsertTicketClass(ctx, entities.TicketClass{
			ID:                classID,
			ShowID:            showID,
			Type:              "premium",
			Price:             decimal.NewFromInt(99),
			Capacity:          20,
			AvailableQuantity: 20,
		})
		require.NoError(t, err)

		got, err := repo.GetTicketClass(ctx, classID)
		require.NoError(t, err)
		assert.Equal(t, "premium", got.Type)
		assert.Equal(t, 20, got.Capacity)
		assert.Equal(t, 1, got.Version)
	})
}

func TestShowsRepo_Integration(t *testing.T) {
	db := getDB(t)
	ctx := context.Background()

	repo := repository.NewShowsRepo(db, trmsqlx.DefaultCtxGetter)

	t.Run("sale status update guarded by read status", func(t *testing.T) {
		showID := createTestShow(t, repo)

		require.NoError(t, repo.UpdateSaleStatus(ctx, showID, entities.SaleStatusOnSale, entities.SaleStatusSoldOut))

		err := repo.UpdateSaleStatus(ctx, showID, entities.SaleStatusOnSale, entities.SaleStatusEnded)
		assert.ErrorIs(t, err, entities.ErrConflict)
	})

	t.Run("mark ended skips manually managed shows", func(t *testing.T) {
		auto := createTestShow(t, repo)

		manualID, err := repo.CreateShow(ctx, entities.Show{
			Title:            "Manual Show",
			Venue:            "Test Hall",
			Date:             time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC),
			Time:             "19:30",
			SaleStatus:       entities.SaleStatusOnSale,
			AutoUpdateStatus: false,
		})
		require.NoError(t, err)

		ended, err := repo.MarkEnded(ctx, []uuid.UUID{auto, manualID})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{auto}, ended)

		manual, err := repo.GetShow(ctx, manualID)
		require.NoError(t, err)
		assert.Equal(t, entities.SaleStatusOnSale, manual.SaleStatus)
	})
}
