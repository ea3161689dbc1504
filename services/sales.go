package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"cafe-pos-api/apperr"
	"cafe-pos-api/models"
)

const (
	topLimit         = 5
	uncategorized    = "Uncategorized"
	defaultColor     = "#808080"
	paymentFilterAll = "all"
)

var categoryColors = map[string]string{
	"Coffee":    "#8B4513",
	"Tea":       "#228B22",
	"Pastries":  "#DAA520",
	"Food":      "#FF6347",
	"Beverages": "#4682B4",
	"Desserts":  "#DB7093",
	"General":   "#6A5ACD",
}

// CategoryColor returns the chart color for a category.
func CategoryColor(category string) string {
	if c, ok := categoryColors[category]; ok {
		return c
	}
	return defaultColor
}

type DashboardQuery struct {
	StartDate     string `form:"start_date"`
	EndDate       string `form:"end_date"`
	PaymentMethod string `form:"payment_method"`
	Category      string `form:"category"`
}

type DashboardMetrics struct {
	TotalRevenue       decimal.Decimal `json:"totalRevenue"`
	DailyRevenue       decimal.Decimal `json:"dailyRevenue"`
	WeeklyRevenue      decimal.Decimal `json:"weeklyRevenue"`
	MonthlyRevenue     decimal.Decimal `json:"monthlyRevenue"`
	TotalTransactions  int64           `json:"totalTransactions"`
	DailyTransactions  int64           `json:"dailyTransactions"`
	AverageOrderValue  decimal.Decimal `json:"averageOrderValue"`
	TotalCustomers     int64           `json:"totalCustomers"`
	ReturningCustomers int64           `json:"returningCustomers"`
	NewCustomers       int64           `json:"newCustomers"`
}

type ChartPoint struct {
	Date              string          `json:"date"`
	Revenue           decimal.Decimal `json:"revenue"`
	Transactions      int64           `json:"transactions"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
}

type TopProduct struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	QuantitySold int64           `json:"quantitySold"`
	Revenue      decimal.Decimal `json:"revenue"`
	// ProfitMargin stays null until menu items are linked to ingredient costs.
	ProfitMargin *float64 `json:"profitMargin"`
}

type CategoryShare struct {
	Category          string          `json:"category"`
	Revenue           decimal.Decimal `json:"revenue"`
	Percentage        float64         `json:"percentage"`
	Transactions      int64           `json:"transactions"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
	Color             string          `json:"color"`
}

type HourBucket struct {
	Hour              int             `json:"hour"`
	Label             string          `json:"label"`
	Revenue           decimal.Decimal `json:"revenue"`
	Transactions      int64           `json:"transactions"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
}

type PeriodTotals struct {
	Revenue           decimal.Decimal `json:"revenue"`
	Transactions      int64           `json:"transactions"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
}

type PercentageChange struct {
	Revenue           float64 `json:"revenue"`
	Transactions      float64 `json:"transactions"`
	AverageOrderValue float64 `json:"averageOrderValue"`
}

type Comparison struct {
	PreviousPeriod   PeriodTotals     `json:"previousPeriod"`
	PercentageChange PercentageChange `json:"percentageChange"`
}

type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type Dashboard struct {
	Period            Period           `json:"period"`
	Metrics           DashboardMetrics `json:"metrics"`
	ChartData         []ChartPoint     `json:"chartData"`
	TopProducts       []TopProduct     `json:"topProducts"`
	CategoryBreakdown []CategoryShare  `json:"categoryBreakdown"`
	HourlyBreakdown   []HourBucket     `json:"hourlyBreakdown"`
	ComparisonData    Comparison       `json:"comparisonData"`
	// Warnings names sections that could not be computed and were left empty.
	Warnings []string `json:"warnings"`
}

type PaymentSplit struct {
	Cash decimal.Decimal `json:"cash"`
	Card decimal.Decimal `json:"card"`
}

type DailySummary struct {
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	TotalTransactions int64           `json:"totalTransactions"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
	TaxCollected      decimal.Decimal `json:"taxCollected"`
	DiscountsGiven    decimal.Decimal `json:"discountsGiven"`
	RefundsProcessed  decimal.Decimal `json:"refundsProcessed"`
	RefundCount       int64           `json:"refundCount"`
	PaymentMethods    PaymentSplit    `json:"paymentMethods"`
}

type TopItem struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	QuantitySold int64           `json:"quantitySold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

type StaffPerformance struct {
	UserID            string          `json:"userId"`
	Name              string          `json:"name"`
	Transactions      int64           `json:"transactions"`
	Revenue           decimal.Decimal `json:"revenue"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
}

type DailySales struct {
	Date             string             `json:"date"`
	Summary          DailySummary       `json:"summary"`
	HourlyBreakdown  []HourBucket       `json:"hourlyBreakdown"`
	TopSellingItems  []TopItem          `json:"topSellingItems"`
	StaffPerformance []StaffPerformance `json:"staffPerformance"`
	Warnings         []string           `json:"warnings"`
}

// SalesService is the read-only reporting path over orders and order items.
type SalesService struct {
	db  *gorm.DB
	log *logrus.Entry
	now func() time.Time
}

func NewSalesService(db *gorm.DB, log *logrus.Logger) *SalesService {
	return &SalesService{
		db:  db,
		log: log.WithField("component", "sales"),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// window selects completed orders in [from, to] (or [from, to) when open).
type window struct {
	from, to      time.Time
	openEnd       bool
	paymentMethod string
	category      string
}

// orders scopes a query on the orders table aliased as o.
func (w window) orders(q *gorm.DB) *gorm.DB {
	q = q.Where("o.status = ?", models.StatusCompleted).Where("o.created_at >= ?", w.from)
	if w.openEnd {
		q = q.Where("o.created_at < ?", w.to)
	} else {
		q = q.Where("o.created_at <= ?", w.to)
	}
	if w.paymentMethod != "" && w.paymentMethod != paymentFilterAll {
		q = q.Where("o.payment_method = ?", w.paymentMethod)
	}
	if w.category != "" {
		q = q.Where("EXISTS (SELECT 1 FROM order_items ci JOIN menu_items cm ON cm.id = ci.menu_item_id WHERE ci.order_id = o.id AND cm.category = ?)", w.category)
	}
	return q
}

// items scopes a join of order_items (oi) to orders (o) and menu_items (mi).
func (w window) items(q *gorm.DB) *gorm.DB {
	q = q.Table("order_items AS oi").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Joins("LEFT JOIN menu_items mi ON mi.id = oi.menu_item_id")
	q = w.orders(q)
	if w.category != "" {
		q = q.Where("mi.category = ?", w.category)
	}
	return q
}

type totalsRow struct {
	Revenue      decimal.Decimal
	Transactions int64
}

func (s *SalesService) totals(ctx context.Context, w window) (totalsRow, error) {
	var row totalsRow
	err := s.db.WithContext(ctx).Table("orders AS o").Scopes(w.orders).
		Select("COALESCE(SUM(o.total_amount), 0) AS revenue, COUNT(*) AS transactions").
		Scan(&row).Error
	row.Revenue = row.Revenue.Round(2)
	return row, err
}

// sections runs each named job concurrently. A failing job is logged and
// reported in the returned warnings; it never fails the others.
func (s *SalesService) sections(ctx context.Context, jobs map[string]func(context.Context) error) []string {
	var (
		mu       sync.Mutex
		warnings = []string{}
	)
	g, gctx := errgroup.WithContext(ctx)
	for name, job := range jobs {
		g.Go(func() error {
			if err := job(gctx); err != nil {
				s.log.WithError(err).WithField("section", name).Warn("report section degraded")
				mu.Lock()
				warnings = append(warnings, name)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	sort.Strings(warnings)
	return warnings
}

// Dashboard computes all dashboard sections for the requested range.
func (s *SalesService) Dashboard(ctx context.Context, q DashboardQuery) (*Dashboard, error) {
	r, err := ParseRange(q.StartDate, q.EndDate)
	if err != nil {
		return nil, err
	}
	if q.PaymentMethod != "" && q.PaymentMethod != paymentFilterAll && !models.PaymentMethod(q.PaymentMethod).Valid() {
		return nil, apperr.Validation("payment_method must be one of [all cash card]")
	}
	w := window{from: r.Start, to: r.End, paymentMethod: q.PaymentMethod, category: q.Category}
	now := s.now()

	d := &Dashboard{
		Period:            Period{Start: r.Start, End: r.End},
		ChartData:         emptyChart(r),
		TopProducts:       []TopProduct{},
		CategoryBreakdown: []CategoryShare{},
		HourlyBreakdown:   []HourBucket{},
	}
	var (
		metrics  DashboardMetrics
		chart    []ChartPoint
		hourly   []HourBucket
		top      []TopProduct
		cats     []CategoryShare
		previous PeriodTotals
		current  totalsRow
	)
	d.Warnings = s.sections(ctx, map[string]func(context.Context) error{
		"metrics": func(ctx context.Context) error {
			var err error
			metrics, current, err = s.metrics(ctx, w, now)
			return err
		},
		"timeline": func(ctx context.Context) error {
			var err error
			chart, hourly, err = s.timeline(ctx, w, r)
			return err
		},
		"topProducts": func(ctx context.Context) error {
			var err error
			top, err = s.topProducts(ctx, w)
			return err
		},
		"categoryBreakdown": func(ctx context.Context) error {
			var err error
			cats, err = s.categoryBreakdown(ctx, w)
			return err
		},
		"comparison": func(ctx context.Context) error {
			pw := w
			pw.from, pw.to = r.Previous()
			pw.openEnd = true
			row, err := s.totals(ctx, pw)
			if err != nil {
				return err
			}
			previous = PeriodTotals{Revenue: row.Revenue, Transactions: row.Transactions, AverageOrderValue: average(row.Revenue, row.Transactions)}
			return nil
		},
	})

	if !contains(d.Warnings, "metrics") {
		d.Metrics = metrics
	}
	if !contains(d.Warnings, "timeline") {
		d.ChartData, d.HourlyBreakdown = chart, hourly
	}
	if !contains(d.Warnings, "topProducts") && top != nil {
		d.TopProducts = top
	}
	if !contains(d.Warnings, "categoryBreakdown") && cats != nil {
		d.CategoryBreakdown = cats
	}
	if !contains(d.Warnings, "comparison") && !contains(d.Warnings, "metrics") {
		d.ComparisonData = Comparison{
			PreviousPeriod: previous,
			PercentageChange: PercentageChange{
				Revenue:           percentChange(current.Revenue, previous.Revenue),
				Transactions:      percentChange(decimal.NewFromInt(current.Transactions), decimal.NewFromInt(previous.Transactions)),
				AverageOrderValue: percentChange(d.Metrics.AverageOrderValue, previous.AverageOrderValue),
			},
		}
	} else {
		d.ComparisonData = Comparison{PreviousPeriod: PeriodTotals{Revenue: decimal.Zero, AverageOrderValue: decimal.Zero}}
	}
	return d, nil
}

func (s *SalesService) metrics(ctx context.Context, w window, now time.Time) (DashboardMetrics, totalsRow, error) {
	var m DashboardMetrics
	cur, err := s.totals(ctx, w)
	if err != nil {
		return m, cur, err
	}
	m.TotalRevenue = cur.Revenue
	m.TotalTransactions = cur.Transactions
	m.AverageOrderValue = average(cur.Revenue, cur.Transactions)

	cal := calendar(now)
	relative := func(from time.Time) window {
		rw := w
		rw.from, rw.to, rw.openEnd = from, now, false
		return rw
	}
	day, err := s.totals(ctx, relative(cal.BeginningOfDay()))
	if err != nil {
		return m, cur, err
	}
	week, err := s.totals(ctx, relative(cal.BeginningOfWeek()))
	if err != nil {
		return m, cur, err
	}
	month, err := s.totals(ctx, relative(cal.BeginningOfMonth()))
	if err != nil {
		return m, cur, err
	}
	m.DailyRevenue, m.DailyTransactions = day.Revenue, day.Transactions
	m.WeeklyRevenue = week.Revenue
	m.MonthlyRevenue = month.Revenue

	var emails []string
	err = s.db.WithContext(ctx).Table("orders AS o").Scopes(w.orders).
		Where("o.customer_email <> ''").Distinct("o.customer_email").
		Pluck("o.customer_email", &emails).Error
	if err != nil {
		return m, cur, err
	}
	m.TotalCustomers = int64(len(emails))
	if len(emails) > 0 {
		err = s.db.WithContext(ctx).Table("orders AS o").
			Where("o.status = ? AND o.created_at < ? AND o.customer_email IN ?", models.StatusCompleted, w.from, emails).
			Distinct("o.customer_email").Count(&m.ReturningCustomers).Error
		if err != nil {
			return m, cur, err
		}
	}
	m.NewCustomers = m.TotalCustomers - m.ReturningCustomers
	return m, cur, nil
}

func emptyChart(r Range) []ChartPoint {
	days := r.Days()
	out := make([]ChartPoint, len(days))
	for i, day := range days {
		out[i] = ChartPoint{Date: day, Revenue: decimal.Zero, AverageOrderValue: decimal.Zero}
	}
	return out
}

// timeline buckets the range's orders by day and by hour of day (UTC).
func (s *SalesService) timeline(ctx context.Context, w window, r Range) ([]ChartPoint, []HourBucket, error) {
	var rows []models.Order
	err := s.db.WithContext(ctx).Table("orders AS o").Scopes(w.orders).
		Select("o.created_at", "o.total_amount").Find(&rows).Error
	if err != nil {
		return nil, nil, err
	}

	chart := emptyChart(r)
	index := make(map[string]int, len(chart))
	for i, p := range chart {
		index[p.Date] = i
	}
	hours := map[int]*HourBucket{}
	for _, o := range rows {
		t := o.CreatedAt.UTC()
		if i, ok := index[t.Format(dateLayout)]; ok {
			chart[i].Revenue = chart[i].Revenue.Add(o.TotalAmount)
			chart[i].Transactions++
		}
		h, ok := hours[t.Hour()]
		if !ok {
			h = &HourBucket{Hour: t.Hour(), Label: fmt.Sprintf("%02d:00", t.Hour()), Revenue: decimal.Zero}
			hours[t.Hour()] = h
		}
		h.Revenue = h.Revenue.Add(o.TotalAmount)
		h.Transactions++
	}
	for i := range chart {
		chart[i].Revenue = chart[i].Revenue.Round(2)
		chart[i].AverageOrderValue = average(chart[i].Revenue, chart[i].Transactions)
	}
	hourly := make([]HourBucket, 0, len(hours))
	for hour := 0; hour < 24; hour++ {
		if h, ok := hours[hour]; ok {
			h.Revenue = h.Revenue.Round(2)
			h.AverageOrderValue = average(h.Revenue, h.Transactions)
			hourly = append(hourly, *h)
		}
	}
	return chart, hourly, nil
}

type productRow struct {
	ID           *string
	Name         string
	Category     string
	QuantitySold int64
	Revenue      decimal.Decimal
}

func (s *SalesService) productRows(ctx context.Context, w window) ([]productRow, error) {
	var rows []productRow
	err := s.db.WithContext(ctx).Scopes(w.items).
		Select("oi.menu_item_id AS id, oi.menu_item_name AS name, COALESCE(mi.category, ?) AS category, "+
			"COALESCE(SUM(oi.quantity), 0) AS quantity_sold, COALESCE(SUM(oi.line_total), 0) AS revenue", uncategorized).
		Group("oi.menu_item_id, oi.menu_item_name, mi.category").
		Order("quantity_sold DESC, revenue DESC").
		Limit(topLimit).
		Scan(&rows).Error
	return rows, err
}

func (s *SalesService) topProducts(ctx context.Context, w window) ([]TopProduct, error) {
	rows, err := s.productRows(ctx, w)
	if err != nil {
		return nil, err
	}
	out := make([]TopProduct, 0, len(rows))
	for _, r := range rows {
		out = append(out, TopProduct{
			ID:           deref(r.ID),
			Name:         r.Name,
			Category:     r.Category,
			QuantitySold: r.QuantitySold,
			Revenue:      r.Revenue.Round(2),
		})
	}
	return out, nil
}

func (s *SalesService) categoryBreakdown(ctx context.Context, w window) ([]CategoryShare, error) {
	var rows []struct {
		Category     string
		Revenue      decimal.Decimal
		Transactions int64
	}
	err := s.db.WithContext(ctx).Scopes(w.items).
		Select("COALESCE(mi.category, ?) AS category, COALESCE(SUM(oi.line_total), 0) AS revenue, "+
			"COUNT(DISTINCT o.id) AS transactions", uncategorized).
		Group("category").
		Order("revenue DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Revenue)
	}
	out := make([]CategoryShare, 0, len(rows))
	for _, r := range rows {
		out = append(out, CategoryShare{
			Category:          r.Category,
			Revenue:           r.Revenue.Round(2),
			Percentage:        share(r.Revenue, total),
			Transactions:      r.Transactions,
			AverageOrderValue: average(r.Revenue, r.Transactions),
			Color:             CategoryColor(r.Category),
		})
	}
	return out, nil
}

// DailySales reports one UTC calendar day. An empty date means today.
func (s *SalesService) DailySales(ctx context.Context, date string) (*DailySales, error) {
	from, to, err := ParseDay(date, s.now())
	if err != nil {
		return nil, err
	}
	w := window{from: from, to: to, openEnd: true}
	out := &DailySales{
		Date: from.Format(dateLayout),
		Summary: DailySummary{
			TotalRevenue: decimal.Zero, AverageOrderValue: decimal.Zero, TaxCollected: decimal.Zero,
			DiscountsGiven: decimal.Zero, RefundsProcessed: decimal.Zero,
			PaymentMethods: PaymentSplit{Cash: decimal.Zero, Card: decimal.Zero},
		},
		HourlyBreakdown:  []HourBucket{},
		TopSellingItems:  []TopItem{},
		StaffPerformance: []StaffPerformance{},
	}

	var (
		summary DailySummary
		hourly  []HourBucket
		top     []TopItem
		staff   []StaffPerformance
	)
	out.Warnings = s.sections(ctx, map[string]func(context.Context) error{
		"summary": func(ctx context.Context) error {
			var err error
			summary, err = s.dailySummary(ctx, w)
			return err
		},
		"hourlyBreakdown": func(ctx context.Context) error {
			var err error
			_, hourly, err = s.timeline(ctx, w, Range{Start: from, End: from})
			return err
		},
		"topSellingItems": func(ctx context.Context) error {
			rows, err := s.productRows(ctx, w)
			if err != nil {
				return err
			}
			top = make([]TopItem, 0, len(rows))
			for _, r := range rows {
				top = append(top, TopItem{ID: deref(r.ID), Name: r.Name, QuantitySold: r.QuantitySold, Revenue: r.Revenue.Round(2)})
			}
			return nil
		},
		"staffPerformance": func(ctx context.Context) error {
			var err error
			staff, err = s.staffPerformance(ctx, w)
			return err
		},
	})
	if !contains(out.Warnings, "summary") {
		out.Summary = summary
	}
	if !contains(out.Warnings, "hourlyBreakdown") && hourly != nil {
		out.HourlyBreakdown = hourly
	}
	if !contains(out.Warnings, "topSellingItems") && top != nil {
		out.TopSellingItems = top
	}
	if !contains(out.Warnings, "staffPerformance") && staff != nil {
		out.StaffPerformance = staff
	}
	return out, nil
}

func (s *SalesService) dailySummary(ctx context.Context, w window) (DailySummary, error) {
	var sum DailySummary
	var row struct {
		Revenue      decimal.Decimal
		Transactions int64
		Tax          decimal.Decimal
		Discounts    decimal.Decimal
	}
	db := s.db.WithContext(ctx)
	err := db.Table("orders AS o").Scopes(w.orders).
		Select("COALESCE(SUM(o.total_amount), 0) AS revenue, COUNT(*) AS transactions, " +
			"COALESCE(SUM(o.tax_amount), 0) AS tax, COALESCE(SUM(o.discount_amount), 0) AS discounts").
		Scan(&row).Error
	if err != nil {
		return sum, err
	}
	sum.TotalRevenue = row.Revenue.Round(2)
	sum.TotalTransactions = row.Transactions
	sum.AverageOrderValue = average(row.Revenue, row.Transactions)
	sum.TaxCollected = row.Tax.Round(2)
	sum.DiscountsGiven = row.Discounts.Round(2)

	var methods []struct {
		PaymentMethod string
		Revenue       decimal.Decimal
	}
	err = db.Table("orders AS o").Scopes(w.orders).
		Select("o.payment_method AS payment_method, COALESCE(SUM(o.total_amount), 0) AS revenue").
		Group("o.payment_method").Scan(&methods).Error
	if err != nil {
		return sum, err
	}
	sum.PaymentMethods = PaymentSplit{Cash: decimal.Zero, Card: decimal.Zero}
	for _, m := range methods {
		switch models.PaymentMethod(m.PaymentMethod) {
		case models.PaymentCash:
			sum.PaymentMethods.Cash = m.Revenue.Round(2)
		case models.PaymentCard:
			sum.PaymentMethods.Card = m.Revenue.Round(2)
		}
	}

	// Refunds count on the day they happened, not the day of the sale.
	var refunds struct {
		Amount decimal.Decimal
		Count  int64
	}
	err = db.Table("order_status_histories AS h").
		Joins("JOIN orders o ON o.id = h.order_id").
		Where("h.to_status = ? AND h.created_at >= ? AND h.created_at < ?", models.StatusRefunded, w.from, w.to).
		Select("COALESCE(SUM(o.total_amount), 0) AS amount, COUNT(*) AS count").
		Scan(&refunds).Error
	if err != nil {
		return sum, err
	}
	sum.RefundsProcessed = refunds.Amount.Round(2)
	sum.RefundCount = refunds.Count
	return sum, nil
}

func (s *SalesService) staffPerformance(ctx context.Context, w window) ([]StaffPerformance, error) {
	var rows []struct {
		StaffID      string
		Username     *string
		FirstName    *string
		LastName     *string
		Transactions int64
		Revenue      decimal.Decimal
	}
	err := s.db.WithContext(ctx).Table("orders AS o").Scopes(w.orders).
		Joins("LEFT JOIN users u ON u.id = o.staff_id").
		Select("o.staff_id AS staff_id, u.username AS username, u.first_name AS first_name, u.last_name AS last_name, " +
			"COUNT(*) AS transactions, COALESCE(SUM(o.total_amount), 0) AS revenue").
		Group("o.staff_id, u.username, u.first_name, u.last_name").
		Order("revenue DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]StaffPerformance, 0, len(rows))
	for _, r := range rows {
		u := models.User{Username: deref(r.Username), FirstName: deref(r.FirstName), LastName: deref(r.LastName)}
		name := u.FullName()
		if name == "" {
			name = r.StaffID
		}
		out = append(out, StaffPerformance{
			UserID:            r.StaffID,
			Name:              name,
			Transactions:      r.Transactions,
			Revenue:           r.Revenue.Round(2),
			AverageOrderValue: average(r.Revenue, r.Transactions),
		})
	}
	return out, nil
}

func average(total decimal.Decimal, n int64) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(n)).Round(2)
}

// percentChange is 0 when there is no baseline.
func percentChange(cur, prev decimal.Decimal) float64 {
	if prev.IsZero() {
		return 0
	}
	f, _ := cur.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).Round(1).Float64()
	return f
}

func share(part, total decimal.Decimal) float64 {
	if total.IsZero() {
		return 0
	}
	f, _ := part.Div(total).Mul(decimal.NewFromInt(100)).Round(1).Float64()
	if math.IsNaN(f) {
		return 0
	}
	return f
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
