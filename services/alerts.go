package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"cafe-pos-api/controllers"
	"cafe-pos-api/models"
	"cafe-pos-api/notify"
)

var alertForStatus = map[models.InventoryStatus]models.AlertType{
	models.StockLow: models.AlertLowStock,
	models.StockOut: models.AlertOutOfStock,
}

// AlertService raises stock alerts and fans them out to the publisher.
type AlertService struct {
	alerts    *controllers.AlertsController
	publisher notify.Publisher
	log       *logrus.Entry
}

func NewAlertService(alerts *controllers.AlertsController, publisher notify.Publisher, log *logrus.Logger) *AlertService {
	return &AlertService{alerts: alerts, publisher: publisher, log: log.WithField("component", "alerts")}
}

// FromAdjustment records an alert when an adjustment pushed an item into low
// or out of stock. It returns nil when no threshold was crossed. Publishing
// failures are logged and leave notificationSent false.
func (s *AlertService) FromAdjustment(ctx context.Context, res *controllers.AdjustResult) (*models.Alert, error) {
	kind, ok := alertForStatus[res.Crossed]
	if !ok {
		return nil, nil
	}
	itemID := res.Inventory.ID
	alert, err := s.alerts.Create(ctx, controllers.AlertInput{InventoryItemID: &itemID, AlertType: &kind})
	if err != nil {
		return nil, err
	}
	ev := notify.Event{
		Type:     string(kind),
		EntityID: itemID,
		Payload: map[string]any{
			"alertId":      alert.ID,
			"name":         res.Inventory.Name,
			"currentStock": res.Inventory.CurrentStock,
			"minimumStock": res.Inventory.MinimumStock,
			"unit":         res.Inventory.Unit,
		},
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, "inventory."+string(kind), ev); err != nil {
		s.log.WithError(err).WithField("alert_id", alert.ID).Warn("alert not published")
		return alert, nil
	}
	method := notify.Method(s.publisher)
	if err := s.alerts.MarkNotified(ctx, alert.ID, method); err != nil {
		s.log.WithError(err).WithField("alert_id", alert.ID).Warn("alert notification not recorded")
		return alert, nil
	}
	alert.NotificationSent = true
	alert.NotificationMethod = method
	return alert, nil
}
