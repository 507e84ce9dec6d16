package report

import (
	"github.com/shopspring/decimal"
)

// ConsolidatedLine is one labelled amount of the consolidated statement
type ConsolidatedLine struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// ConsolidatedSummary is a profit-and-loss style view across entity families
type ConsolidatedSummary struct {
	Range            DateRange          `json:"range"`
	SalesRevenue     decimal.Decimal    `json:"sales_revenue"`
	TransportRevenue decimal.Decimal    `json:"transport_revenue"`
	TotalRevenue     decimal.Decimal    `json:"total_revenue"`
	Expenses         decimal.Decimal    `json:"expenses"`
	Payroll          decimal.Decimal    `json:"payroll"`
	FuelCost         decimal.Decimal    `json:"fuel_cost"`
	TotalCosts       decimal.Decimal    `json:"total_costs"`
	NetProfit        decimal.Decimal    `json:"net_profit"`
	ProfitMargin     decimal.Decimal    `json:"profit_margin"`
	SalesCount       int                `json:"sales_count"`
	TripCount        int                `json:"trip_count"`
	Revenue          []ConsolidatedLine `json:"revenue"`
	Costs            []ConsolidatedLine `json:"costs"`
	ExpenseBreakdown []CategoryTotal    `json:"expense_breakdown"`
}

// ConsolidatedSources groups the raw records a consolidated summary reads
type ConsolidatedSources struct {
	Sales    []Record
	Expenses []Record
	Trips    []Record
	Payroll  []Record
}

// Consolidate reduces every source with the same aggregation used by the
// single-entity reports, then derives revenue, costs and net profit.
func Consolidate(rng DateRange, src ConsolidatedSources) ConsolidatedSummary {
	sales := aggregateFor(ReportSales, src.Sales, rng, "none")
	expenses := aggregateFor(ReportExpenses, src.Expenses, rng, "category")
	trips := aggregateFor(ReportTransport, src.Trips, rng, "none")
	payroll := aggregateFor(ReportPayroll, src.Payroll, rng, "none")

	c := ConsolidatedSummary{
		Range:            rng,
		SalesRevenue:     sales.Primary,
		TransportRevenue: trips.Totals["revenue"],
		Expenses:         expenses.Primary,
		Payroll:          payroll.Totals["net_pay"],
		FuelCost:         trips.Totals["fuel_cost"],
		SalesCount:       sales.Count,
		TripCount:        trips.Count,
		ExpenseBreakdown: expenses.Breakdown,
	}
	c.TotalRevenue = c.SalesRevenue.Add(c.TransportRevenue)
	c.TotalCosts = c.Expenses.Add(c.Payroll).Add(c.FuelCost)
	c.NetProfit = c.TotalRevenue.Sub(c.TotalCosts)
	c.ProfitMargin = Percentage(c.NetProfit, c.TotalRevenue)

	c.Revenue = []ConsolidatedLine{
		{Label: "Sales", Amount: c.SalesRevenue},
		{Label: "Transport", Amount: c.TransportRevenue},
	}
	c.Costs = []ConsolidatedLine{
		{Label: "Operating Expenses", Amount: c.Expenses},
		{Label: "Payroll", Amount: c.Payroll},
		{Label: "Fuel", Amount: c.FuelCost},
	}
	return c
}

func aggregateFor(t ReportType, records []Record, rng DateRange, groupBy string) Summary {
	def, _ := Definition(t)
	spec, err := def.Spec(groupBy)
	if err != nil {
		spec = AggregationSpec{AmountFields: def.AmountFields, PrimaryAmount: def.PrimaryAmount}
	}
	return Aggregate(records, rng, spec)
}
