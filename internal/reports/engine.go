package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sangambaral17/TradeMaster/pkg/db/models"
)

// Ranking sizes per report.
const (
	DailyTopProducts    = 5
	WeeklyTopProducts   = 10
	MonthlyTopProducts  = 15
	MonthlyTopCustomers = 10
	RangeTopProducts    = 10
	RangeSalesCap       = 100
)

const unknownCustomer = "Unknown"

// Engine aggregates ledger snapshots. Calendar days and hours are taken in loc.
// It never mutates its input and returns zero-valued reports for empty input.
type Engine struct {
	loc *time.Location
}

func NewEngine(loc *time.Location) Engine {
	if loc == nil {
		loc = time.UTC
	}
	return Engine{loc: loc}
}

// Location reports the zone used for calendar bucketing.
func (e Engine) Location() *time.Location {
	return e.loc
}

// StartOfDay returns midnight of t's calendar day in the engine's zone.
func (e Engine) StartOfDay(t time.Time) time.Time {
	local := t.In(e.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, e.loc)
}

// StartOfMonth returns midnight on the first of the month.
func (e Engine) StartOfMonth(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, e.loc)
}

func (e Engine) Daily(sales []models.Sale, date time.Time) DailyReport {
	day := e.StartOfDay(date)
	matched := between(sales, day, day.AddDate(0, 0, 1))

	report := DailyReport{
		ReportDate:         day,
		Totals:             totals(matched),
		ItemsSold:          itemsSold(matched),
		TopSellingProducts: topProducts(matched, DailyTopProducts),
	}
	for i := range report.HourlySales {
		report.HourlySales[i] = decimal.Zero
	}
	for _, sale := range matched {
		hour := sale.SaleDate.In(e.loc).Hour()
		report.HourlySales[hour] = report.HourlySales[hour].Add(sale.TotalAmount)
	}
	return report
}

// Weekly covers seven days from weekStart's calendar day, whatever weekday that is.
func (e Engine) Weekly(sales []models.Sale, weekStart time.Time) WeeklyReport {
	start := e.StartOfDay(weekStart)
	end := start.AddDate(0, 0, 7)
	matched := between(sales, start, end)

	breakdown := make([]DaySummary, 0, 7)
	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i)
		daySales := between(matched, day, day.AddDate(0, 0, 1))
		breakdown = append(breakdown, DaySummary{
			Date:       day,
			DayName:    day.Weekday().String(),
			SalesCount: len(daySales),
			Revenue:    revenue(daySales),
		})
	}

	return WeeklyReport{
		WeekStart:          start,
		WeekEnd:            end.AddDate(0, 0, -1),
		Totals:             totals(matched),
		DailyBreakdown:     breakdown,
		TopSellingProducts: topProducts(matched, WeeklyTopProducts),
	}
}

// Monthly splits the month into 7-day windows from the 1st; the final window
// stops at month end.
func (e Engine) Monthly(sales []models.Sale, year int, month time.Month) MonthlyReport {
	start := e.StartOfMonth(year, month)
	end := start.AddDate(0, 1, 0)
	matched := between(sales, start, end)

	var weeks []WeekSummary
	for windowStart, n := start, 1; windowStart.Before(end); n++ {
		windowEnd := windowStart.AddDate(0, 0, 7)
		if windowEnd.After(end) {
			windowEnd = end
		}
		windowSales := between(matched, windowStart, windowEnd)
		weeks = append(weeks, WeekSummary{
			WeekNumber: n,
			StartDate:  windowStart,
			EndDate:    windowEnd.AddDate(0, 0, -1),
			SalesCount: len(windowSales),
			Revenue:    revenue(windowSales),
		})
		windowStart = windowEnd
	}

	return MonthlyReport{
		Month:              int(start.Month()),
		Year:               start.Year(),
		MonthName:          start.Month().String(),
		Totals:             totals(matched),
		WeeklyBreakdown:    weeks,
		TopSellingProducts: topProducts(matched, MonthlyTopProducts),
		TopCustomers:       topCustomers(matched, MonthlyTopCustomers),
	}
}

// Range includes both the start and the end calendar day.
func (e Engine) Range(sales []models.Sale, start, end time.Time) RangeReport {
	from := e.StartOfDay(start)
	to := e.StartOfDay(end).AddDate(0, 0, 1)
	matched := between(sales, from, to)

	customers := make(map[int64]struct{})
	for _, sale := range matched {
		if sale.CustomerID != nil {
			customers[*sale.CustomerID] = struct{}{}
		}
	}

	recent := append(make([]models.Sale, 0, len(matched)), matched...)
	sortNewestFirst(recent)
	if len(recent) > RangeSalesCap {
		recent = recent[:RangeSalesCap]
	}

	return RangeReport{
		StartDate:       from,
		EndDate:         e.StartOfDay(end),
		Totals:          totals(matched),
		TotalItemsSold:  itemsSold(matched),
		UniqueCustomers: len(customers),
		TopProducts:     topProducts(matched, RangeTopProducts),
		Sales:           recent,
	}
}

// TopProducts ranks products sold between from and to, both instants inclusive.
func (e Engine) TopProducts(sales []models.Sale, from, to time.Time, n int) []TopProduct {
	var matched []models.Sale
	for _, sale := range sales {
		if !sale.SaleDate.Before(from) && !sale.SaleDate.After(to) {
			matched = append(matched, sale)
		}
	}
	return topProducts(matched, n)
}

// CustomerHistory summarizes the sales that reference customer, newest first.
func (e Engine) CustomerHistory(customer models.Customer, sales []models.Sale) CustomerHistory {
	var own []models.Sale
	for _, sale := range sales {
		if sale.CustomerID != nil && *sale.CustomerID == customer.ID {
			own = append(own, sale)
		}
	}
	sortNewestFirst(own)

	t := totals(own)
	history := CustomerHistory{
		Customer:          customer,
		TotalPurchases:    t.TotalSales,
		TotalSpent:        t.TotalRevenue,
		AverageOrderValue: t.AverageOrderValue,
		Purchases:         make([]PurchaseSummary, 0, len(own)),
	}
	for _, sale := range own {
		history.Purchases = append(history.Purchases, PurchaseSummary{
			SaleID:      sale.ID,
			Date:        sale.SaleDate,
			TotalAmount: sale.TotalAmount,
			ItemCount:   sale.ItemCount(),
		})
	}
	if len(own) > 0 {
		last := own[0].SaleDate
		first := own[len(own)-1].SaleDate
		history.LastPurchase = &last
		history.FirstPurchase = &first
	}
	return history
}

// between keeps sales with from <= date < to.
func between(sales []models.Sale, from, to time.Time) []models.Sale {
	var out []models.Sale
	for _, sale := range sales {
		if !sale.SaleDate.Before(from) && sale.SaleDate.Before(to) {
			out = append(out, sale)
		}
	}
	return out
}

func revenue(sales []models.Sale) decimal.Decimal {
	sum := decimal.Zero
	for _, sale := range sales {
		sum = sum.Add(sale.TotalAmount)
	}
	return sum
}

func totals(sales []models.Sale) Totals {
	t := Totals{
		TotalSales:        len(sales),
		TotalRevenue:      revenue(sales),
		AverageOrderValue: decimal.Zero,
	}
	if t.TotalSales > 0 {
		// cents, half away from zero; revenue itself stays exact
		t.AverageOrderValue = t.TotalRevenue.Div(decimal.NewFromInt(int64(t.TotalSales))).Round(2)
	}
	return t
}

func itemsSold(sales []models.Sale) int {
	total := 0
	for _, sale := range sales {
		total += sale.ItemCount()
	}
	return total
}

type productKey struct {
	id   int64
	name string
}

// topProducts groups items by product id and name snapshot. Ties on quantity
// fall back to ascending product id, then name.
func topProducts(sales []models.Sale, n int) []TopProduct {
	groups := make(map[productKey]*TopProduct)
	for _, sale := range sales {
		for _, item := range sale.Items {
			key := productKey{id: item.ProductID, name: item.ProductName}
			group, ok := groups[key]
			if !ok {
				group = &TopProduct{ProductID: item.ProductID, ProductName: item.ProductName, TotalRevenue: decimal.Zero}
				groups[key] = group
			}
			group.QuantitySold += item.Quantity
			group.TotalRevenue = group.TotalRevenue.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}

	ranked := make([]TopProduct, 0, len(groups))
	for _, group := range groups {
		ranked = append(ranked, *group)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].QuantitySold != ranked[j].QuantitySold {
			return ranked[i].QuantitySold > ranked[j].QuantitySold
		}
		if ranked[i].ProductID != ranked[j].ProductID {
			return ranked[i].ProductID < ranked[j].ProductID
		}
		return ranked[i].ProductName < ranked[j].ProductName
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// topCustomers ranks by spend then ascending customer id. Anonymous sales are skipped.
func topCustomers(sales []models.Sale, n int) []TopCustomer {
	groups := make(map[int64]*TopCustomer)
	for _, sale := range sales {
		if sale.CustomerID == nil {
			continue
		}
		id := *sale.CustomerID
		group, ok := groups[id]
		if !ok {
			group = &TopCustomer{CustomerID: id, CustomerName: unknownCustomer, TotalSpent: decimal.Zero}
			groups[id] = group
		}
		if sale.Customer != nil && sale.Customer.Name != "" {
			group.CustomerName = sale.Customer.Name
		} else if group.CustomerName == unknownCustomer && sale.CustomerName != nil && *sale.CustomerName != "" {
			group.CustomerName = *sale.CustomerName
		}
		group.TotalSpent = group.TotalSpent.Add(sale.TotalAmount)
		group.OrderCount++
	}

	ranked := make([]TopCustomer, 0, len(groups))
	for _, group := range groups {
		ranked = append(ranked, *group)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if c := ranked[i].TotalSpent.Cmp(ranked[j].TotalSpent); c != 0 {
			return c > 0
		}
		return ranked[i].CustomerID < ranked[j].CustomerID
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func sortNewestFirst(sales []models.Sale) {
	sort.SliceStable(sales, func(i, j int) bool {
		if !sales[i].SaleDate.Equal(sales[j].SaleDate) {
			return sales[i].SaleDate.After(sales[j].SaleDate)
		}
		return sales[i].ID > sales[j].ID
	})
}
