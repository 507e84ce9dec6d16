package report

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestConsolidate(t *testing.T) {
	rng := ResolveRange("this_month", refNow)
	d := func(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

	src := ConsolidatedSources{
		Sales: []Record{
			sale("s1", refNow, 1000, "cash"),
			sale("s2", refNow, 500, "card"),
			sale("old", refNow.AddDate(0, -2, 0), 9999, "cash"),
		},
		Expenses: []Record{
			NewRecord("e1", refNow).WithAmount("amount", d(200)).WithLabel("category", "rent"),
			NewRecord("e2", refNow).WithAmount("amount", d(100)).WithLabel("category", "utilities"),
		},
		Trips: []Record{
			NewRecord("t1", refNow).WithAmount("revenue", d(400)).WithAmount("fuel_cost", d(150)),
		},
		Payroll: []Record{
			NewRecord("p1", refNow).WithAmount("net_pay", d(300)).WithAmount("gross_pay", d(350)),
		},
	}

	c := Consolidate(rng, src)

	assert.True(t, c.SalesRevenue.Equal(d(1500)))
	assert.True(t, c.TransportRevenue.Equal(d(400)))
	assert.True(t, c.TotalRevenue.Equal(d(1900)))
	assert.True(t, c.TotalCosts.Equal(d(750)))
	assert.True(t, c.NetProfit.Equal(d(1150)))
	assert.True(t, c.ProfitMargin.Equal(decimal.RequireFromString("60.53")))
	assert.Equal(t, 2, c.SalesCount)
	assert.Equal(t, "rent", c.ExpenseBreakdown[0].Label)
}

func TestConsolidate_NoRevenueHasZeroMargin(t *testing.T) {
	c := Consolidate(ResolveRange("today", refNow), ConsolidatedSources{})
	assert.True(t, c.ProfitMargin.IsZero())
	assert.True(t, c.NetProfit.IsZero())
}
