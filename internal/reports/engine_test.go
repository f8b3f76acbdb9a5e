package reports

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sangambaral17/TradeMaster/pkg/db/models"
	"github.com/sangambaral17/TradeMaster/pkg/enums"
)

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func item(productID int64, name string, qty int, price string) models.SaleItem {
	unit := dec(price)
	return models.SaleItem{
		ProductID:   productID,
		ProductName: name,
		Quantity:    qty,
		UnitPrice:   unit,
		TotalPrice:  unit.Mul(decimal.NewFromInt(int64(qty))),
	}
}

func sale(id int64, at time.Time, customerID *int64, items ...models.SaleItem) models.Sale {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.TotalPrice)
	}
	return models.Sale{
		ID:            id,
		SaleDate:      at,
		TotalAmount:   total,
		CustomerID:    customerID,
		PaymentMethod: enums.PaymentMethodCash,
		Items:         items,
	}
}

func id(v int64) *int64 { return &v }

func at(day, hour int) time.Time {
	return time.Date(2025, time.March, day, hour, 15, 0, 0, time.UTC)
}

func TestDailyThreeSales(t *testing.T) {
	engine := NewEngine(time.UTC)
	sales := []models.Sale{
		sale(1, at(10, 9), nil, item(1, "Laptop", 1, "100.00")),
		sale(2, at(10, 9), nil, item(2, "Phone", 2, "100.00")),
		sale(3, at(10, 17), nil, item(3, "Rice", 3, "100.00")),
		sale(4, at(11, 0), nil, item(1, "Laptop", 9, "100.00")),
	}

	report := engine.Daily(sales, at(10, 0))
	if report.TotalSales != 3 {
		t.Fatalf("expected 3 sales, got %d", report.TotalSales)
	}
	if !report.TotalRevenue.Equal(dec("600.00")) || !report.AverageOrderValue.Equal(dec("200.00")) {
		t.Fatalf("unexpected totals %s / %s", report.TotalRevenue, report.AverageOrderValue)
	}
	if report.ItemsSold != 6 {
		t.Fatalf("expected 6 items, got %d", report.ItemsSold)
	}
	if !report.HourlySales[9].Equal(dec("300.00")) || !report.HourlySales[17].Equal(dec("300.00")) || !report.HourlySales[0].IsZero() {
		t.Fatalf("unexpected hourly buckets %v", report.HourlySales)
	}
	if report.TopSellingProducts[0].ProductName != "Rice" {
		t.Fatalf("expected Rice on top, got %+v", report.TopSellingProducts)
	}
}

func TestAverageOrderValueRoundsToCents(t *testing.T) {
	engine := NewEngine(time.UTC)
	sales := []models.Sale{
		sale(1, at(12, 10), nil, item(1, "Tea", 1, "10.00")),
		sale(2, at(12, 11), nil, item(2, "Sugar", 1, "10.00")),
		sale(3, at(12, 12), nil, item(3, "Salt", 1, "10.01")),
	}

	report := engine.Daily(sales, at(12, 0))
	if !report.TotalRevenue.Equal(dec("30.01")) {
		t.Fatalf("expected exact revenue 30.01, got %s", report.TotalRevenue)
	}
	// 30.01 / 3 = 10.00333...
	if !report.AverageOrderValue.Equal(dec("10.00")) {
		t.Fatalf("expected average 10.00, got %s", report.AverageOrderValue)
	}
}

func TestDailyEmptyIsZero(t *testing.T) {
	report := NewEngine(time.UTC).Daily(nil, at(1, 0))
	if report.TotalSales != 0 || !report.TotalRevenue.IsZero() || !report.AverageOrderValue.IsZero() {
		t.Fatalf("expected zero report, got %+v", report.Totals)
	}
	if report.TopSellingProducts == nil || len(report.TopSellingProducts) != 0 {
		t.Fatalf("expected empty, non-nil ranking")
	}
}

func TestDailyUsesReportingZone(t *testing.T) {
	kathmandu := time.FixedZone("NPT", 5*3600+45*60)
	engine := NewEngine(kathmandu)
	// 20:00 UTC on the 9th is 01:45 on the 10th in Kathmandu
	sales := []models.Sale{sale(1, time.Date(2025, 3, 9, 20, 0, 0, 0, time.UTC), nil, item(1, "Tea", 1, "50.00"))}

	report := engine.Daily(sales, time.Date(2025, 3, 10, 12, 0, 0, 0, kathmandu))
	if report.TotalSales != 1 || !report.HourlySales[1].Equal(dec("50.00")) {
		t.Fatalf("expected sale bucketed at local hour 1, got %+v", report.HourlySales)
	}
}

func TestTopProductsTieBreakByID(t *testing.T) {
	engine := NewEngine(time.UTC)
	sales := []models.Sale{
		sale(1, at(10, 9), nil, item(7, "Pen", 2, "1.00"), item(3, "Ink", 2, "4.00")),
		sale(2, at(10, 10), nil, item(5, "Pad", 2, "2.00"), item(9, "Clip", 5, "0.10")),
	}
	report := engine.Daily(sales, at(10, 0))
	got := []int64{}
	for _, p := range report.TopSellingProducts {
		got = append(got, p.ProductID)
	}
	want := []int64{9, 3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
	if !report.TopSellingProducts[1].TotalRevenue.Equal(dec("8.00")) {
		t.Fatalf("expected Ink revenue 8.00, got %s", report.TopSellingProducts[1].TotalRevenue)
	}
}

func TestTopProductsCappedAtFive(t *testing.T) {
	var items []models.SaleItem
	for i := int64(1); i <= 8; i++ {
		items = append(items, item(i, "p", int(i), "1.00"))
	}
	report := NewEngine(time.UTC).Daily([]models.Sale{sale(1, at(10, 9), nil, items...)}, at(10, 0))
	if len(report.TopSellingProducts) != DailyTopProducts || report.TopSellingProducts[0].ProductID != 8 {
		t.Fatalf("unexpected ranking %+v", report.TopSellingProducts)
	}
}

func TestWeeklyAnchorsAtStart(t *testing.T) {
	engine := NewEngine(time.UTC)
	// the 12th of March 2025 is a Wednesday
	sales := []models.Sale{
		sale(1, at(11, 23), nil, item(1, "A", 1, "10.00")),
		sale(2, at(12, 8), nil, item(1, "A", 1, "10.00")),
		sale(3, at(18, 22), nil, item(1, "A", 2, "10.00")),
		sale(4, at(19, 0), nil, item(1, "A", 1, "10.00")),
	}
	report := engine.Weekly(sales, at(12, 13))
	if len(report.DailyBreakdown) != 7 {
		t.Fatalf("expected 7 days, got %d", len(report.DailyBreakdown))
	}
	if report.DailyBreakdown[0].DayName != "Wednesday" || report.DailyBreakdown[6].DayName != "Tuesday" {
		t.Fatalf("unexpected day names %s..%s", report.DailyBreakdown[0].DayName, report.DailyBreakdown[6].DayName)
	}
	if report.TotalSales != 2 || !report.TotalRevenue.Equal(dec("30.00")) {
		t.Fatalf("expected 2 sales / 30.00, got %d / %s", report.TotalSales, report.TotalRevenue)
	}
	if !report.WeekEnd.Equal(time.Date(2025, 3, 18, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected week end %s", report.WeekEnd)
	}
	if report.DailyBreakdown[6].SalesCount != 1 || !report.DailyBreakdown[6].Revenue.Equal(dec("20.00")) {
		t.Fatalf("unexpected last day %+v", report.DailyBreakdown[6])
	}
}

func TestMonthlyWindowsAndCustomers(t *testing.T) {
	engine := NewEngine(time.UTC)
	customer := func(cid int64, name string) *models.Customer { return &models.Customer{ID: cid, Name: name} }

	s1 := sale(1, time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC), id(1), item(1, "A", 1, "50.00"))
	s1.Customer = customer(1, "John")
	s2 := sale(2, time.Date(2025, 2, 8, 10, 0, 0, 0, time.UTC), id(2), item(1, "A", 1, "50.00"))
	s2.CustomerName = strPtr("Jane (deleted)")
	s3 := sale(3, time.Date(2025, 2, 28, 23, 0, 0, 0, time.UTC), nil, item(2, "B", 4, "100.00"))
	s4 := sale(4, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), id(3), item(2, "B", 1, "999.00"))

	report := engine.Monthly([]models.Sale{s1, s2, s3, s4}, 2025, time.February)
	if report.MonthName != "February" || report.Month != 2 || report.Year != 2025 {
		t.Fatalf("unexpected header %+v", report)
	}
	if len(report.WeeklyBreakdown) != 4 {
		t.Fatalf("expected 4 windows for a 28-day month, got %d", len(report.WeeklyBreakdown))
	}
	if report.WeeklyBreakdown[1].SalesCount != 1 || report.WeeklyBreakdown[3].SalesCount != 1 {
		t.Fatalf("unexpected window counts %+v", report.WeeklyBreakdown)
	}
	if !report.TotalRevenue.Equal(dec("500.00")) {
		t.Fatalf("expected March sale excluded, got %s", report.TotalRevenue)
	}
	if len(report.TopCustomers) != 2 {
		t.Fatalf("expected anonymous sale excluded, got %+v", report.TopCustomers)
	}
	if report.TopCustomers[0].CustomerName != "John" || report.TopCustomers[1].CustomerName != "Jane (deleted)" {
		t.Fatalf("unexpected customer names %+v", report.TopCustomers)
	}

	march := engine.Monthly(nil, 2025, time.March)
	last := march.WeeklyBreakdown[len(march.WeeklyBreakdown)-1]
	if len(march.WeeklyBreakdown) != 5 || last.StartDate.Day() != 29 || last.EndDate.Day() != 31 {
		t.Fatalf("expected truncated final window 29..31, got %+v", last)
	}
}

func TestRangeInclusiveBoundaries(t *testing.T) {
	engine := NewEngine(time.UTC)
	sales := []models.Sale{
		sale(1, time.Date(2025, 3, 9, 23, 59, 59, 0, time.UTC), id(1), item(1, "A", 1, "1.00")),
		sale(2, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), id(1), item(1, "A", 1, "10.00")),
		sale(3, time.Date(2025, 3, 12, 23, 59, 59, 0, time.UTC), id(2), item(1, "A", 2, "20.00")),
		sale(4, time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC), nil, item(1, "A", 1, "100.00")),
	}
	report := engine.Range(sales, at(10, 0), at(12, 0))
	if report.TotalSales != 2 || !report.TotalRevenue.Equal(dec("50.00")) {
		t.Fatalf("expected boundary days included only, got %d / %s", report.TotalSales, report.TotalRevenue)
	}
	if report.UniqueCustomers != 2 || report.TotalItemsSold != 3 {
		t.Fatalf("unexpected customers/items %d/%d", report.UniqueCustomers, report.TotalItemsSold)
	}
	if report.Sales[0].ID != 3 {
		t.Fatalf("expected newest sale first, got %d", report.Sales[0].ID)
	}
}

func TestRangeCapsSales(t *testing.T) {
	var sales []models.Sale
	for i := 0; i < 130; i++ {
		sales = append(sales, sale(int64(i+1), at(10, 0).Add(time.Duration(i)*time.Minute), nil, item(1, "A", 1, "1.00")))
	}
	report := NewEngine(time.UTC).Range(sales, at(10, 0), at(10, 0))
	if report.TotalSales != 130 || len(report.Sales) != RangeSalesCap || report.Sales[0].ID != 130 {
		t.Fatalf("unexpected cap: total=%d listed=%d first=%d", report.TotalSales, len(report.Sales), report.Sales[0].ID)
	}
}

func TestReportsAreIdempotent(t *testing.T) {
	engine := NewEngine(time.UTC)
	sales := []models.Sale{
		sale(1, at(3, 9), id(1), item(1, "A", 2, "3.33"), item(2, "B", 2, "1.00")),
		sale(2, at(4, 9), id(2), item(2, "B", 2, "1.00"), item(1, "A", 2, "3.33")),
		sale(3, at(5, 9), id(1), item(3, "C", 1, "7.77")),
	}
	first, _ := json.Marshal(engine.Monthly(sales, 2025, time.March))
	reversed := []models.Sale{sales[2], sales[1], sales[0]}
	second, _ := json.Marshal(engine.Monthly(reversed, 2025, time.March))
	if string(first) != string(second) {
		t.Fatalf("expected identical output\n%s\n%s", first, second)
	}
}

func TestCustomerHistory(t *testing.T) {
	engine := NewEngine(time.UTC)
	customer := models.Customer{ID: 4, Name: "John"}
	sales := []models.Sale{
		sale(1, at(1, 9), id(4), item(1, "A", 1, "10.00")),
		sale(2, at(2, 9), id(5), item(1, "A", 1, "99.00")),
		sale(3, at(3, 9), id(4), item(1, "A", 3, "10.00")),
	}
	history := engine.CustomerHistory(customer, sales)
	if history.TotalPurchases != 2 || !history.TotalSpent.Equal(dec("40.00")) || !history.AverageOrderValue.Equal(dec("20.00")) {
		t.Fatalf("unexpected totals %+v", history)
	}
	if history.Purchases[0].SaleID != 3 || history.Purchases[0].ItemCount != 3 {
		t.Fatalf("expected newest purchase first, got %+v", history.Purchases[0])
	}
	if !history.FirstPurchase.Equal(at(1, 9)) || !history.LastPurchase.Equal(at(3, 9)) {
		t.Fatalf("unexpected first/last %v %v", history.FirstPurchase, history.LastPurchase)
	}

	empty := engine.CustomerHistory(models.Customer{ID: 99}, sales)
	if empty.TotalPurchases != 0 || empty.FirstPurchase != nil || !empty.AverageOrderValue.IsZero() {
		t.Fatalf("expected empty history, got %+v", empty)
	}
}

func strPtr(v string) *string { return &v }
