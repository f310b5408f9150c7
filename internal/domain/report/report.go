// Package report derives dashboard figures from sales and catalog snapshots.
package report

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/bodega-pos/internal/domain/cart"
	"github.com/xenking/bodega-pos/internal/domain/product"
	"github.com/xenking/bodega-pos/internal/domain/sale"
)

// DefaultLowStock is the stock level below which a product is flagged.
const DefaultLowStock = 10

// costRatio estimates unit cost for lines sold without a recorded cost.
var costRatio = decimal.RequireFromString("0.70")

// Day aggregates the sales of one calendar day.
type Day struct {
	Date    time.Time
	Revenue decimal.Decimal
	Cost    decimal.Decimal
	Profit  decimal.Decimal
}

// Summary aggregates a set of sales.
type Summary struct {
	Revenue decimal.Decimal
	Cost    decimal.Decimal
	Profit  decimal.Decimal
	// Today is the revenue of sales created on now's calendar day.
	Today decimal.Decimal
	// Receivable is the total of the summarized credit sales still pending.
	Receivable decimal.Decimal
	// Days holds the trailing days ending today, oldest first.
	Days []Day
}

// LineCost returns the cost of a sold line, estimating 70% of the sale price
// when the line carries no cost.
func LineCost(item cart.Line) decimal.Decimal {
	unit := item.Cost
	if unit.IsZero() {
		unit = item.Price.Mul(costRatio)
	}
	return unit.Mul(item.Quantity)
}

// Summarize computes revenue, cost and profit over sales, plus per-day buckets
// for the last days days in now's location.
func Summarize(sales []sale.Sale, now time.Time, days int) Summary {
	if days < 1 {
		days = 1
	}
	today := startOfDay(now)

	s := Summary{
		Revenue:    decimal.Zero,
		Cost:       decimal.Zero,
		Today:      decimal.Zero,
		Receivable: decimal.Zero,
		Days:       make([]Day, days),
	}
	for i := range s.Days {
		s.Days[i] = Day{
			Date:    today.AddDate(0, 0, i-days+1),
			Revenue: decimal.Zero,
			Cost:    decimal.Zero,
			Profit:  decimal.Zero,
		}
	}

	for _, sl := range sales {
		cost := decimal.Zero
		for _, item := range sl.Items {
			cost = cost.Add(LineCost(item))
		}

		s.Revenue = s.Revenue.Add(sl.Total)
		s.Cost = s.Cost.Add(cost)

		day := startOfDay(sl.CreatedAt.In(now.Location()))
		if day.Equal(today) {
			s.Today = s.Today.Add(sl.Total)
		}
		if i := slices.IndexFunc(s.Days, func(d Day) bool { return d.Date.Equal(day) }); i >= 0 {
			b := &s.Days[i]
			b.Revenue = b.Revenue.Add(sl.Total)
			b.Cost = b.Cost.Add(cost)
			b.Profit = b.Revenue.Sub(b.Cost)
		}
	}
	s.Profit = s.Revenue.Sub(s.Cost)
	s.Receivable = Receivable(sales)

	return s
}

// Receivable sums the totals of pending credit sales.
func Receivable(sales []sale.Sale) decimal.Decimal {
	sum := decimal.Zero
	for _, sl := range sales {
		if sl.PaymentMethod == sale.PaymentCredit && sl.Status == sale.StatusPending {
			sum = sum.Add(sl.Total)
		}
	}
	return sum
}

// WindowStart returns the first instant of the oldest day in a window of
// days calendar days ending on now's day.
func WindowStart(now time.Time, days int) time.Time {
	return startOfDay(now).AddDate(0, 0, 1-max(days, 1))
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Stock summarizes the catalog's inventory investment.
type Stock struct {
	// Value is Σ cost × stock.
	Value    decimal.Decimal
	LowStock []product.Product
}

// Inventory values the catalog and lists products whose stock is below
// threshold, lowest stock first.
func Inventory(products []product.Product, threshold decimal.Decimal) Stock {
	st := Stock{Value: decimal.Zero}
	for _, p := range products {
		st.Value = st.Value.Add(p.Cost.Mul(p.Stock))
		if p.Stock.LessThan(threshold) {
			st.LowStock = append(st.LowStock, p)
		}
	}
	slices.SortStableFunc(st.LowStock, func(a, b product.Product) int {
		return a.Stock.Cmp(b.Stock)
	})
	return st
}
