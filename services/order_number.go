package services

import (
	"strings"
	"time"

	"cafe-pos-api/models"
)

// OrderNumber builds "ORD-YYMMDD-XXXXXXXX" from the order id and the sale date.
// The same pair always yields the same label; uniqueness is not guaranteed.
func OrderNumber(orderID string, at time.Time) string {
	hex := strings.ToUpper(strings.ReplaceAll(orderID, "-", ""))
	if len(hex) > 8 {
		hex = hex[:8]
	}
	n := "ORD-" + at.UTC().Format("060102") + "-" + hex
	if len(n) > models.OrderNumberMaxLen {
		n = n[:models.OrderNumberMaxLen]
	}
	return n
}
