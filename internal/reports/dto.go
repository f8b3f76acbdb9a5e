package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sangambaral17/TradeMaster/pkg/db/models"
)

// Totals are the aggregate figures shared by every period report.
type Totals struct {
	TotalSales        int             `json:"total_sales"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

// TopProduct ranks a product by units sold.
type TopProduct struct {
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	QuantitySold int             `json:"quantity_sold"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

// TopCustomer ranks a customer by spend.
type TopCustomer struct {
	CustomerID   int64           `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	TotalSpent   decimal.Decimal `json:"total_spent"`
	OrderCount   int             `json:"order_count"`
}

type DailyReport struct {
	ReportDate time.Time `json:"report_date"`
	Totals
	ItemsSold          int                 `json:"items_sold"`
	TopSellingProducts []TopProduct        `json:"top_selling_products"`
	HourlySales        [24]decimal.Decimal `json:"hourly_sales"`
}

// DaySummary is one day inside a weekly report.
type DaySummary struct {
	Date       time.Time       `json:"date"`
	DayName    string          `json:"day_name"`
	SalesCount int             `json:"sales_count"`
	Revenue    decimal.Decimal `json:"revenue"`
}

type WeeklyReport struct {
	WeekStart time.Time `json:"week_start"`
	WeekEnd   time.Time `json:"week_end"`
	Totals
	DailyBreakdown     []DaySummary `json:"daily_breakdown"`
	TopSellingProducts []TopProduct `json:"top_selling_products"`
}

// WeekSummary is one 7-day window inside a monthly report; the last one may be shorter.
type WeekSummary struct {
	WeekNumber int             `json:"week_number"`
	StartDate  time.Time       `json:"start_date"`
	EndDate    time.Time       `json:"end_date"`
	SalesCount int             `json:"sales_count"`
	Revenue    decimal.Decimal `json:"revenue"`
}

type MonthlyReport struct {
	Month     int    `json:"month"`
	Year      int    `json:"year"`
	MonthName string `json:"month_name"`
	Totals
	WeeklyBreakdown    []WeekSummary `json:"weekly_breakdown"`
	TopSellingProducts []TopProduct  `json:"top_selling_products"`
	TopCustomers       []TopCustomer `json:"top_customers"`
}

type RangeReport struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Totals
	TotalItemsSold  int           `json:"total_items_sold"`
	UniqueCustomers int           `json:"unique_customers"`
	TopProducts     []TopProduct  `json:"top_products"`
	Sales           []models.Sale `json:"sales"`
}

// PurchaseSummary is one line in a customer's purchase history.
type PurchaseSummary struct {
	SaleID      int64           `json:"sale_id"`
	Date        time.Time       `json:"date"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ItemCount   int             `json:"item_count"`
}

type CustomerHistory struct {
	Customer          models.Customer   `json:"customer"`
	TotalPurchases    int               `json:"total_purchases"`
	TotalSpent        decimal.Decimal   `json:"total_spent"`
	AverageOrderValue decimal.Decimal   `json:"average_order_value"`
	FirstPurchase     *time.Time        `json:"first_purchase,omitempty"`
	LastPurchase      *time.Time        `json:"last_purchase,omitempty"`
	Purchases         []PurchaseSummary `json:"purchases"`
}
