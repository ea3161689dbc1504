package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"cafe-pos-api/apperr"
	"cafe-pos-api/notify"
)

const currencySymbol = "€"

var reportFuncs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return currencySymbol + d.StringFixed(2) },
	"count": func(n int64) string { return humanize.Comma(n) },
	"share": func(part, total decimal.Decimal) string { return fmt.Sprintf("%.1f%%", share(part, total)) },
}

var dailyHTML = template.Must(template.New("daily").Funcs(reportFuncs).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Daily Sales Summary</title>
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.header { background: #8B4513; color: white; padding: 20px; text-align: center; }
.content { padding: 20px; }
.summary-box { background: #f9f9f9; border-radius: 8px; padding: 15px; margin-bottom: 20px; }
.metric { display: inline-block; width: 45%; text-align: center; margin: 5px 0; }
.metric-value { font-size: 22px; font-weight: bold; color: #8B4513; }
.metric-label { font-size: 12px; color: #666; }
table { width: 100%; border-collapse: collapse; }
th, td { padding: 8px; border-bottom: 1px solid #ddd; text-align: left; }
.negative { color: #dc3545; }
.footer { padding: 15px; text-align: center; font-size: 12px; color: #666; }
</style>
</head>
<body>
<div class="header">
<h1>{{.Business}} Daily Sales Summary</h1>
<p>{{.Report.Date}}</p>
</div>
<div class="content">
{{with .Report.Summary}}
<div class="summary-box">
<h2>Key Metrics</h2>
<div class="metric"><div class="metric-value">{{money .TotalRevenue}}</div><div class="metric-label">Total Revenue</div></div>
<div class="metric"><div class="metric-value">{{count .TotalTransactions}}</div><div class="metric-label">Total Transactions</div></div>
<div class="metric"><div class="metric-value">{{money .AverageOrderValue}}</div><div class="metric-label">Average Order Value</div></div>
<div class="metric"><div class="metric-value">{{money .TaxCollected}}</div><div class="metric-label">Tax Collected</div></div>
</div>
<div class="summary-box">
<h2>Payment Methods</h2>
<table>
<tr><th>Payment Method</th><th>Amount</th><th>Percentage</th></tr>
<tr><td>Cash</td><td>{{money .PaymentMethods.Cash}}</td><td>{{share .PaymentMethods.Cash .TotalRevenue}}</td></tr>
<tr><td>Card</td><td>{{money .PaymentMethods.Card}}</td><td>{{share .PaymentMethods.Card .TotalRevenue}}</td></tr>
</table>
</div>
{{end}}
{{if .Report.TopSellingItems}}
<div class="summary-box">
<h2>Top Selling Items</h2>
<table>
<tr><th>Item</th><th>Quantity Sold</th><th>Revenue</th></tr>
{{range .Report.TopSellingItems}}<tr><td>{{.Name}}</td><td>{{count .QuantitySold}}</td><td>{{money .Revenue}}</td></tr>
{{end}}</table>
</div>
{{end}}
{{if .Report.StaffPerformance}}
<div class="summary-box">
<h2>Staff Performance</h2>
<table>
<tr><th>Staff Member</th><th>Transactions</th><th>Revenue</th><th>Avg Order Value</th></tr>
{{range .Report.StaffPerformance}}<tr><td>{{.Name}}</td><td>{{count .Transactions}}</td><td>{{money .Revenue}}</td><td>{{money .AverageOrderValue}}</td></tr>
{{end}}</table>
</div>
{{end}}
{{if .HasAdjustments}}{{with .Report.Summary}}
<div class="summary-box">
<h2>Adjustments</h2>
<div class="metric"><div class="metric-value negative">{{money .DiscountsGiven}}</div><div class="metric-label">Discounts Given</div></div>
<div class="metric"><div class="metric-value negative">{{money .RefundsProcessed}}</div><div class="metric-label">Refunds Processed</div></div>
</div>
{{end}}{{end}}
</div>
<div class="footer">
<p>Generated automatically by {{.Business}} at {{.Generated}}</p>
<p>This is an automated email - please do not reply</p>
</div>
</body>
</html>
`))

var resetHTML = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Password Reset</title></head>
<body style="font-family: Arial, sans-serif; color: #333;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
<div style="background: #8B4513; color: white; padding: 20px; text-align: center;">
<h1>{{.Business}}</h1>
<p>Password Reset Request</p>
</div>
<div style="padding: 20px; background: #f9f9f9;">
<h2>Reset Your Password</h2>
<p>You have requested to reset your password for your {{.Business}} account.</p>
<p style="text-align: center; margin: 30px 0;"><a href="{{.Link}}" style="padding: 12px 24px; background: #8B4513; color: white; text-decoration: none; border-radius: 5px;">Reset Password</a></p>
<p><strong>Security Notice:</strong> this link expires in {{.Expires}}. If you did not request this reset, ignore this email.</p>
<p>If the button does not work, paste this link into your browser:</p>
<p style="word-break: break-all;">{{.Link}}</p>
</div>
</div>
</body>
</html>
`))

// ReportRenderer turns report data into email bodies.
type ReportRenderer struct {
	Business string
	now      func() time.Time
}

func NewReportRenderer(business string) *ReportRenderer {
	return &ReportRenderer{Business: business, now: func() time.Time { return time.Now().UTC() }}
}

// DailySubject is the subject line of the daily summary email.
func DailySubject(date string) string {
	return "CafePOS Daily Sales Summary - " + date
}

func (r *ReportRenderer) Daily(report *DailySales) (notify.Message, error) {
	generated := r.now().Format("2006-01-02 15:04:05 UTC")
	sum := report.Summary
	var html bytes.Buffer
	err := dailyHTML.Execute(&html, map[string]any{
		"Business":       r.Business,
		"Report":         report,
		"Generated":      generated,
		"HasAdjustments": sum.DiscountsGiven.IsPositive() || sum.RefundsProcessed.IsPositive(),
	})
	if err != nil {
		return notify.Message{}, fmt.Errorf("render daily html: %w", err)
	}
	text, err := r.dailyText(report, generated)
	if err != nil {
		return notify.Message{}, err
	}
	return notify.Message{Subject: DailySubject(report.Date), HTMLBody: html.String(), TextBody: text}, nil
}

func (r *ReportRenderer) dailyText(report *DailySales, generated string) (string, error) {
	sum := report.Summary
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n\n", DailySubject(report.Date), strings.Repeat("=", 50))
	fmt.Fprintln(&b, "KEY METRICS:")
	metrics := tablewriter.NewWriter(&b)
	metrics.Header("Metric", "Value")
	rows := [][]string{
		{"Total Revenue", currencySymbol + sum.TotalRevenue.StringFixed(2)},
		{"Total Transactions", humanize.Comma(sum.TotalTransactions)},
		{"Average Order Value", currencySymbol + sum.AverageOrderValue.StringFixed(2)},
		{"Tax Collected", currencySymbol + sum.TaxCollected.StringFixed(2)},
		{"Cash", currencySymbol + sum.PaymentMethods.Cash.StringFixed(2)},
		{"Card", currencySymbol + sum.PaymentMethods.Card.StringFixed(2)},
	}
	if sum.DiscountsGiven.IsPositive() || sum.RefundsProcessed.IsPositive() {
		rows = append(rows,
			[]string{"Discounts Given", currencySymbol + sum.DiscountsGiven.StringFixed(2)},
			[]string{"Refunds Processed", currencySymbol + sum.RefundsProcessed.StringFixed(2)},
		)
	}
	for _, row := range rows {
		if err := metrics.Append(row); err != nil {
			return "", err
		}
	}
	if err := metrics.Render(); err != nil {
		return "", fmt.Errorf("render metrics table: %w", err)
	}

	if len(report.TopSellingItems) > 0 {
		fmt.Fprintln(&b, "\nTOP SELLING ITEMS:")
		top := tablewriter.NewWriter(&b)
		top.Header("Item", "Sold", "Revenue")
		for _, it := range report.TopSellingItems {
			if err := top.Append([]string{it.Name, humanize.Comma(it.QuantitySold), currencySymbol + it.Revenue.StringFixed(2)}); err != nil {
				return "", err
			}
		}
		if err := top.Render(); err != nil {
			return "", fmt.Errorf("render top items table: %w", err)
		}
	}
	if len(report.StaffPerformance) > 0 {
		fmt.Fprintln(&b, "\nSTAFF PERFORMANCE:")
		staff := tablewriter.NewWriter(&b)
		staff.Header("Staff", "Transactions", "Revenue", "Avg")
		for _, s := range report.StaffPerformance {
			err := staff.Append([]string{s.Name, humanize.Comma(s.Transactions),
				currencySymbol + s.Revenue.StringFixed(2), currencySymbol + s.AverageOrderValue.StringFixed(2)})
			if err != nil {
				return "", err
			}
		}
		if err := staff.Render(); err != nil {
			return "", fmt.Errorf("render staff table: %w", err)
		}
	}
	fmt.Fprintf(&b, "\nGenerated at: %s\n", generated)
	return b.String(), nil
}

// PasswordReset renders the reset email for a link that expires after ttl.
func (r *ReportRenderer) PasswordReset(link string, ttl time.Duration) (notify.Message, error) {
	expires := fmt.Sprintf("%d minutes", int(ttl.Minutes()))
	if ttl%time.Hour == 0 {
		expires = fmt.Sprintf("%d hour(s)", int(ttl.Hours()))
	}
	var html bytes.Buffer
	if err := resetHTML.Execute(&html, map[string]string{"Business": r.Business, "Link": link, "Expires": expires}); err != nil {
		return notify.Message{}, fmt.Errorf("render reset html: %w", err)
	}
	text := fmt.Sprintf("%s - Password Reset Request\n\nReset your password by visiting this link:\n%s\n\n"+
		"This link will expire in %s. If you didn't request this reset, ignore this email.\n", r.Business, link, expires)
	return notify.Message{
		Subject:  "CafePOS - Password Reset Request",
		HTMLBody: html.String(),
		TextBody: text,
	}, nil
}

// DailyReportSource is the slice of SalesService the report mailer reads.
type DailyReportSource interface {
	DailySales(ctx context.Context, date string) (*DailySales, error)
}

// ReportMailer assembles and sends the daily summary.
type ReportMailer struct {
	sales      DailyReportSource
	mailer     notify.Mailer
	renderer   *ReportRenderer
	recipients []string
	log        *logrus.Entry
}

func NewReportMailer(sales DailyReportSource, mailer notify.Mailer, renderer *ReportRenderer, recipients []string, log *logrus.Logger) *ReportMailer {
	return &ReportMailer{
		sales:      sales,
		mailer:     mailer,
		renderer:   renderer,
		recipients: recipients,
		log:        log.WithField("component", "report-mailer"),
	}
}

type DailySummaryResult struct {
	Date       string            `json:"date"`
	Recipients []string          `json:"recipients"`
	Delivery   notify.SendResult `json:"delivery"`
}

// SendDailySummary mails the report for date (empty means today) to the
// given recipients, or the configured list when none are given.
func (m *ReportMailer) SendDailySummary(ctx context.Context, date string, recipients []string) (*DailySummaryResult, error) {
	if len(recipients) == 0 {
		recipients = m.recipients
	}
	if len(recipients) == 0 {
		return nil, apperr.Validation("No recipients provided and none configured")
	}
	report, err := m.sales.DailySales(ctx, date)
	if err != nil {
		return nil, err
	}
	msg, err := m.renderer.Daily(report)
	if err != nil {
		return nil, err
	}
	msg.To = recipients
	res, err := m.mailer.Send(ctx, msg)
	if err != nil {
		m.log.WithError(err).WithField("date", report.Date).Error("daily summary not delivered")
		return nil, apperr.Internal("Failed to send daily summary: " + err.Error())
	}
	m.log.WithFields(logrus.Fields{"date": report.Date, "sent": len(res.Sent)}).Info("daily summary sent")
	return &DailySummaryResult{Date: report.Date, Recipients: recipients, Delivery: res}, nil
}
