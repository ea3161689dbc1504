package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"cafe-pos-api/controllers"
	"cafe-pos-api/models"
	"cafe-pos-api/notify"
	notifymocks "cafe-pos-api/notify/mocks"
	"cafe-pos-api/services"
	"cafe-pos-api/testutil"
)

func TestAlertFromAdjustment(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	inv := controllers.NewInventoryController(db)
	alerts := controllers.NewAlertsController(db)
	pub := notifymocks.NewMockPublisher(gomock.NewController(t))
	svc := services.NewAlertService(alerts, pub, discardLogger())

	name, stock, minimum := "Oat Milk", money("8"), money("6")
	item, err := inv.Create(ctx, controllers.InventoryInput{Name: &name, CurrentStock: &stock, MinimumStock: &minimum})
	require.NoError(t, err)

	// Still above the minimum: nothing to raise.
	delta := money("-1")
	res, err := inv.Adjust(ctx, item.ID, controllers.AdjustInput{Adjustment: &delta})
	require.NoError(t, err)
	alert, err := svc.FromAdjustment(ctx, res)
	require.NoError(t, err)
	assert.Nil(t, alert)

	pub.EXPECT().Publish(gomock.Any(), "inventory.low_stock", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, ev notify.Event) error {
			assert.Equal(t, item.ID, ev.EntityID)
			payload, ok := ev.Payload.(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "Oat Milk", payload["name"])
			return nil
		})
	delta = money("-2")
	res, err = inv.Adjust(ctx, item.ID, controllers.AdjustInput{Adjustment: &delta})
	require.NoError(t, err)
	alert, err = svc.FromAdjustment(ctx, res)
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.Equal(t, models.AlertLowStock, alert.AlertType)
	assert.True(t, alert.NotificationSent)

	stored, err := alerts.Get(ctx, alert.ID)
	require.NoError(t, err)
	assert.True(t, stored.NotificationSent)
	assert.Equal(t, "log", stored.NotificationMethod)

	// A broker failure keeps the alert but leaves it unsent.
	pub.EXPECT().Publish(gomock.Any(), "inventory.out_of_stock", gomock.Any()).Return(errors.New("broker down"))
	delta = money("-5")
	res, err = inv.Adjust(ctx, item.ID, controllers.AdjustInput{Adjustment: &delta})
	require.NoError(t, err)
	alert, err = svc.FromAdjustment(ctx, res)
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.Equal(t, models.AlertOutOfStock, alert.AlertType)
	assert.False(t, alert.NotificationSent)
}
