package domain

import "github.com/shopspring/decimal"

func init() {
	// money goes out as JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true
}

func LineTotal(price float64, quantity int) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(quantity)))
}

// SumItems is the order total: sum of price*quantity over the items.
func SumItems(items []OrderItem) float64 {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(LineTotal(item.Price, item.Quantity))
	}
	return total.InexactFloat64()
}

// SumEntries stays in decimal so it equals the sum of per-restaurant subtotals.
func SumEntries(entries []CartEntry) decimal.Decimal {
	total := decimal.Zero
	for _, entry := range entries {
		total = total.Add(LineTotal(entry.Price, entry.Quantity))
	}
	return total
}

func SumRevenue(orders []Order) float64 {
	total := decimal.Zero
	for _, order := range orders {
		total = total.Add(decimal.NewFromFloat(order.TotalAmount))
	}
	return total.InexactFloat64()
}
