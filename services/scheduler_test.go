package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"cafe-pos-api/notify"
	notifymocks "cafe-pos-api/notify/mocks"
	"cafe-pos-api/services"
	"cafe-pos-api/services/mocks"
)

func TestSchedulerSendsYesterdayOncePerDay(t *testing.T) {
	ctrl := gomock.NewController(t)
	sender := mocks.NewMockDailySender(ctrl)

	clock := time.Date(2026, 5, 4, 6, 59, 30, 0, time.UTC)
	s := services.NewScheduler(sender, "07:00", "UTC", discardLogger()).
		WithClock(func() time.Time { return clock })

	assert.False(t, s.Tick(context.Background()), "not yet time")

	sender.EXPECT().SendDailySummary(gomock.Any(), "2026-05-03", gomock.Nil()).
		Return(&services.DailySummaryResult{Date: "2026-05-03"}, nil).Times(1)
	clock = clock.Add(30 * time.Second)
	assert.True(t, s.Tick(context.Background()))

	clock = clock.Add(30 * time.Second)
	assert.False(t, s.Tick(context.Background()), "same minute, no second send")
}

func TestSchedulerUsesLocalZoneAndSurvivesErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	sender := mocks.NewMockDailySender(ctrl)

	// 05:30 UTC is 07:30 in Berlin during summer time.
	clock := time.Date(2026, 7, 1, 5, 30, 0, 0, time.UTC)
	s := services.NewScheduler(sender, "07:30", "Europe/Berlin", discardLogger()).
		WithClock(func() time.Time { return clock })

	sender.EXPECT().SendDailySummary(gomock.Any(), "2026-06-30", gomock.Nil()).
		Return(nil, errors.New("smtp down"))
	assert.True(t, s.Tick(context.Background()))
}

func TestSchedulerFallsBackOnBadConfig(t *testing.T) {
	s := services.NewScheduler(nil, "7am", "Mars/Olympus", discardLogger())
	assert.Equal(t, "07:00", s.At())
}

func sampleReport() *services.DailySales {
	return &services.DailySales{
		Date: "2026-05-03",
		Summary: services.DailySummary{
			TotalRevenue:      decimal.RequireFromString("120.50"),
			TotalTransactions: 10,
			AverageOrderValue: decimal.RequireFromString("12.05"),
			TaxCollected:      decimal.RequireFromString("9.64"),
			PaymentMethods: services.PaymentSplit{
				Cash: decimal.RequireFromString("20.50"),
				Card: decimal.RequireFromString("100.00"),
			},
		},
		TopSellingItems: []services.TopItem{
			{Name: "Latte", QuantitySold: 12, Revenue: decimal.RequireFromString("42.00")},
		},
		StaffPerformance: []services.StaffPerformance{
			{Name: "Front Counter", Transactions: 10, Revenue: decimal.RequireFromString("120.50"), AverageOrderValue: decimal.RequireFromString("12.05")},
		},
	}
}

func TestReportMailerSendsRenderedSummary(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockDailyReportSource(ctrl)
	mailer := notifymocks.NewMockMailer(ctrl)
	rm := services.NewReportMailer(source, mailer, services.NewReportRenderer("CafePOS"), []string{"boss@cafe.test"}, discardLogger())

	source.EXPECT().DailySales(gomock.Any(), "2026-05-03").Return(sampleReport(), nil)
	mailer.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, m notify.Message) (notify.SendResult, error) {
			assert.Equal(t, []string{"boss@cafe.test"}, m.To)
			assert.Equal(t, services.DailySubject("2026-05-03"), m.Subject)
			assert.Contains(t, m.HTMLBody, "120.50")
			assert.Contains(t, m.TextBody, "Latte")
			assert.True(t, strings.Contains(m.TextBody, "Front Counter"))
			return notify.SendResult{Sent: m.To}, nil
		})

	res, err := rm.SendDailySummary(context.Background(), "2026-05-03", nil)
	require.NoError(t, err)
	assert.Equal(t, "2026-05-03", res.Date)
	assert.Equal(t, []string{"boss@cafe.test"}, res.Delivery.Sent)
}

func TestReportMailerErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockDailyReportSource(ctrl)
	mailer := notifymocks.NewMockMailer(ctrl)

	noRecipients := services.NewReportMailer(source, mailer, services.NewReportRenderer("CafePOS"), nil, discardLogger())
	_, err := noRecipients.SendDailySummary(context.Background(), "", nil)
	require.Error(t, err)

	rm := services.NewReportMailer(source, mailer, services.NewReportRenderer("CafePOS"), nil, discardLogger())
	source.EXPECT().DailySales(gomock.Any(), "").Return(sampleReport(), nil)
	mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(notify.SendResult{}, errors.New("all recipients failed"))
	_, err = rm.SendDailySummary(context.Background(), "", []string{"a@cafe.test"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INTERNAL_ERROR")
}
