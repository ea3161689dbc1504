package printer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafe-pos-api/config"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func sampleReceipt(method string) Receipt {
	return Receipt{
		OrderNumber: "ORD-250101-ABCDEF12",
		CreatedAt:   time.Date(2025, 1, 1, 9, 30, 0, 0, time.UTC),
		Cashier:     "Jane Doe",
		Lines: []Line{{
			Name: "Latte", Size: "Large", Quantity: 2,
			UnitPrice: decimal.RequireFromString("3.00"), LineTotal: decimal.RequireFromString("6.00"),
		}},
		Subtotal:      decimal.RequireFromString("6.00"),
		Tax:           decimal.RequireFromString("0.48"),
		Total:         decimal.RequireFromString("6.48"),
		PaymentMethod: method,
		CashReceived:  decimal.NewNullDecimal(decimal.RequireFromString("10.00")),
		Change:        decimal.NewNullDecimal(decimal.RequireFromString("3.52")),
	}
}

var biz = config.Business{Name: "CafePOS", Address: "1 Bean St", Phone: "555"}

func TestRenderCashReceipt(t *testing.T) {
	out := Render(sampleReceipt("cash"), biz, 32, false)

	assert.Contains(t, string(out), "Latte (Large)")
	assert.Contains(t, string(out), "6.48")
	assert.Contains(t, string(out), "Change:")
	assert.True(t, bytes.HasSuffix(out, cmdDrawerKick), "cash sale opens the drawer")
	assert.NotContains(t, string(out), "REPRINT")
}

func TestRenderCardReprint(t *testing.T) {
	out := Render(sampleReceipt("card"), biz, 32, true)

	assert.Contains(t, string(out), "*** REPRINT ***")
	assert.NotContains(t, string(out), "Cash received:")
	assert.False(t, bytes.Contains(out, cmdDrawerKick))
}

func TestPairKeepsWidth(t *testing.T) {
	line := pair("Subtotal:", "6.00", 32)
	assert.Len(t, line, 33)
	long := pair("A very long item description that overflows", "12.00", 32)
	assert.Len(t, long, 33)
}

func TestPrintToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "receipt.txt")
	svc := New(config.Printer{Type: "file", Enabled: true, FilePath: path, Width: 32}, biz, quietLogger())

	res := svc.Print(context.Background(), sampleReceipt("card"), false)

	assert.True(t, res.Success)
	assert.True(t, res.Printed)
	assert.False(t, res.Mock)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ORD-250101-ABCDEF12")
}

type brokenSink struct{}

func (brokenSink) Name() string { return "broken" }
func (brokenSink) Write(context.Context, []byte) error { return errors.New("paper jam") }
func (brokenSink) Check(context.Context) error { return errors.New("paper jam") }

func TestPrintDegradesToMock(t *testing.T) {
	svc := NewWithSink(brokenSink{}, 32, biz, quietLogger())

	res := svc.Print(context.Background(), sampleReceipt("cash"), false)
	assert.True(t, res.Success)
	assert.True(t, res.Mock)
	assert.False(t, res.Printed)
	assert.Equal(t, "paper jam", res.Reason)

	_, err := svc.Test(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, svc.Status(context.Background()).Available)
}

func TestDisabledPrinterIsMock(t *testing.T) {
	svc := New(config.Printer{Type: "file", Enabled: false, FilePath: "unused"}, biz, quietLogger())
	res := svc.Print(context.Background(), sampleReceipt("cash"), false)
	assert.Equal(t, Result{Success: true, Mock: true, Reason: "printer disabled"}, res)
}
