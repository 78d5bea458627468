package orders

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodcart-backend/pkg/config"
	"github.com/angelmondragon/foodcart-backend/pkg/db"
	"github.com/angelmondragon/foodcart-backend/pkg/db/models"
	"github.com/angelmondragon/foodcart-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodcart-backend/pkg/errors"
	"github.com/angelmondragon/foodcart-backend/pkg/migrate"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	client, err := db.New(context.Background(), config.DBConfig{Driver: "sqlite", DSN: dsn, MaxOpenConns: 1}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.DB().DB()
	require.NoError(t, err)
	require.NoError(t, migrate.Up(context.Background(), sqlDB, "sqlite"))
	return client.DB()
}

func sampleOrder(sessionID string, createdAt time.Time) *models.Order {
	return &models.Order{
		SessionID:        sessionID,
		Status:           enums.OrderStatusPlaced,
		Fulfillment:      enums.FulfillmentDelivery,
		Currency:         enums.CurrencyUSD,
		SubtotalCents:    4297,
		DeliveryFeeCents: 0,
		TaxCents:         381,
		TotalCents:       4678,
		ItemCount:        3,
		CustomerName:     "Ada",
		CustomerEmail:    "ada@example.com",
		CreatedAt:        createdAt,
		Lines: []models.OrderLine{
			{ItemID: "margherita", Name: "Margherita Pizza", UnitPriceCents: 1699, Quantity: 1, LineTotalCents: 1699},
			{ItemID: "caesar", Name: "Caesar Salad", UnitPriceCents: 1299, Quantity: 2, LineTotalCents: 2598},
		},
	}
}

func TestCreateAndFindByIDAndSession(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	ctx := context.Background()

	order := sampleOrder("session-a", time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, order))
	require.NotEqual(t, uuid.Nil, order.ID)

	found, err := repo.FindByIDAndSession(ctx, order.ID, "session-a")
	require.NoError(t, err)
	assert.Equal(t, int64(4678), found.TotalCents)
	assert.Equal(t, enums.FulfillmentDelivery, found.Fulfillment)
	require.Len(t, found.Lines, 2)
	assert.Equal(t, "margherita", found.Lines[0].ItemID)
	assert.Equal(t, 0, found.Lines[0].Position)
	assert.Equal(t, "caesar", found.Lines[1].ItemID)
	assert.Equal(t, order.ID, found.Lines[1].OrderID)
}

func TestFindByIDAndSessionHidesOtherSessions(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	ctx := context.Background()

	order := sampleOrder("session-a", time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, order))

	_, err := repo.FindByIDAndSession(ctx, order.ID, "session-b")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = repo.FindByIDAndSession(ctx, uuid.New(), "session-a")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCreateDuplicateIDIsConflict(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	ctx := context.Background()

	first := sampleOrder("session-a", time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, first))

	dup := sampleOrder("session-a", time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	dup.ID = first.ID
	err := repo.Create(ctx, dup)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestCreateRejectsNil(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	err := repo.Create(context.Background(), nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListBySessionNewestFirst(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, sampleOrder("session-a", base.Add(time.Duration(i)*time.Hour))))
	}
	require.NoError(t, repo.Create(ctx, sampleOrder("session-b", base)))

	list, err := repo.ListBySession(ctx, "session-a", 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].CreatedAt.After(list[1].CreatedAt))
	assert.Empty(t, list[0].Lines)

	all, err := repo.ListBySession(ctx, "session-a", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDeleteOlderThan(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	old := sampleOrder("session-a", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	recent := sampleOrder("session-a", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, old))
	require.NoError(t, repo.Create(ctx, recent))

	deleted, err := repo.DeleteOlderThan(ctx, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.FindByIDAndSession(ctx, old.ID, "session-a")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	var orphanLines int64
	require.NoError(t, conn.Model(&models.OrderLine{}).Where("order_id = ?", old.ID).Count(&orphanLines).Error)
	assert.Zero(t, orphanLines)

	kept, err := repo.FindByIDAndSession(ctx, recent.ID, "session-a")
	require.NoError(t, err)
	assert.Len(t, kept.Lines, 2)
}

func TestWithTxRollsBack(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	order := sampleOrder("session-a", time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	err := db.NewFromConn(conn).WithTx(ctx, func(tx *gorm.DB) error {
		if err := repo.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		return fmt.Errorf("abort")
	})
	require.Error(t, err)

	_, err = repo.FindByIDAndSession(ctx, order.ID, "session-a")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
