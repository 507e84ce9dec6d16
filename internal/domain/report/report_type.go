package report

import (
	"fmt"
	"strings"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/shared"
)

// ReportType selects the entity and fields a report aggregates
type ReportType string

const (
	ReportSales        ReportType = "sales"
	ReportExpenses     ReportType = "expenses"
	ReportTransport    ReportType = "transport"
	ReportPayroll      ReportType = "payroll"
	ReportCustomers    ReportType = "customers"
	ReportPurchases    ReportType = "purchases"
	ReportConsolidated ReportType = "consolidated"
)

// ColumnKind controls how a column value is formatted
type ColumnKind string

const (
	ColumnText  ColumnKind = "text"
	ColumnDate  ColumnKind = "date"
	ColumnMoney ColumnKind = "money"
)

// Column describes one tabular column of a report
type Column struct {
	Key    string     `json:"key"`
	Title  string     `json:"title"`
	Kind   ColumnKind `json:"kind"`
	Weight float64    `json:"weight"`
}

// ReportDefinition parameterizes the single aggregation path per report type
type ReportDefinition struct {
	Type           ReportType
	Entity         EntityKind
	Title          string
	AmountFields   []string
	PrimaryAmount  string
	DefaultGroupBy string
	GroupFields    []string
	Columns        []Column
}

// Spec builds the aggregation spec for this definition. An empty groupBy uses
// the default group field.
func (d ReportDefinition) Spec(groupBy string) (AggregationSpec, error) {
	if groupBy == "" {
		groupBy = d.DefaultGroupBy
	}
	if groupBy != "none" && !contains(d.GroupFields, groupBy) {
		return AggregationSpec{}, shared.InvalidInput(fmt.Sprintf(
			"cannot group %s by %q (allowed: %s)", d.Type, groupBy, strings.Join(d.GroupFields, ", ")))
	}
	if groupBy == "none" {
		groupBy = ""
	}
	return AggregationSpec{
		AmountFields:  d.AmountFields,
		PrimaryAmount: d.PrimaryAmount,
		GroupBy:       groupBy,
	}, nil
}

var definitions = map[ReportType]ReportDefinition{
	ReportSales: {
		Type:           ReportSales,
		Entity:         EntitySale,
		Title:          "Sales Report",
		AmountFields:   []string{"total_amount", "discount", "tax"},
		PrimaryAmount:  "total_amount",
		DefaultGroupBy: "payment_method",
		GroupFields:    []string{"payment_method", "customer_name", "sale_type", "location"},
		Columns: []Column{
			{Key: "sale_number", Title: "Sale #", Kind: ColumnText, Weight: 1.2},
			{Key: "date", Title: "Date", Kind: ColumnDate, Weight: 1},
			{Key: "customer_name", Title: "Customer", Kind: ColumnText, Weight: 2},
			{Key: "payment_method", Title: "Payment", Kind: ColumnText, Weight: 1.2},
			{Key: "total_amount", Title: "Amount", Kind: ColumnMoney, Weight: 1.4},
		},
	},
	ReportExpenses: {
		Type:           ReportExpenses,
		Entity:         EntityExpense,
		Title:          "Expense Report",
		AmountFields:   []string{"amount"},
		PrimaryAmount:  "amount",
		DefaultGroupBy: "category",
		GroupFields:    []string{"category", "payment_method", "vendor"},
		Columns: []Column{
			{Key: "date", Title: "Date", Kind: ColumnDate, Weight: 1},
			{Key: "category", Title: "Category", Kind: ColumnText, Weight: 1.3},
			{Key: "description", Title: "Description", Kind: ColumnText, Weight: 2.5},
			{Key: "vendor", Title: "Vendor", Kind: ColumnText, Weight: 1.3},
			{Key: "amount", Title: "Amount", Kind: ColumnMoney, Weight: 1.3},
		},
	},
	ReportTransport: {
		Type:           ReportTransport,
		Entity:         EntityTrip,
		Title:          "Transport Report",
		AmountFields:   []string{"revenue", "fuel_cost", "passengers"},
		PrimaryAmount:  "revenue",
		DefaultGroupBy: "route",
		GroupFields:    []string{"route", "vehicle", "driver_name"},
		Columns: []Column{
			{Key: "date", Title: "Date", Kind: ColumnDate, Weight: 1},
			{Key: "route", Title: "Route", Kind: ColumnText, Weight: 2},
			{Key: "vehicle", Title: "Vehicle", Kind: ColumnText, Weight: 1.2},
			{Key: "driver_name", Title: "Driver", Kind: ColumnText, Weight: 1.4},
			{Key: "revenue", Title: "Revenue", Kind: ColumnMoney, Weight: 1.3},
			{Key: "fuel_cost", Title: "Fuel", Kind: ColumnMoney, Weight: 1.2},
		},
	},
	ReportPayroll: {
		Type:           ReportPayroll,
		Entity:         EntityPayroll,
		Title:          "Payroll Report",
		AmountFields:   []string{"gross_pay", "total_deductions", "net_pay"},
		PrimaryAmount:  "net_pay",
		DefaultGroupBy: "department",
		GroupFields:    []string{"department", "position", "status"},
		Columns: []Column{
			{Key: "employee_name", Title: "Employee", Kind: ColumnText, Weight: 2},
			{Key: "department", Title: "Department", Kind: ColumnText, Weight: 1.4},
			{Key: "gross_pay", Title: "Gross", Kind: ColumnMoney, Weight: 1.3},
			{Key: "total_deductions", Title: "Deductions", Kind: ColumnMoney, Weight: 1.3},
			{Key: "net_pay", Title: "Net Pay", Kind: ColumnMoney, Weight: 1.3},
		},
	},
	ReportCustomers: {
		Type:           ReportCustomers,
		Entity:         EntityCustomer,
		Title:          "Customer Report",
		AmountFields:   []string{"total_spent"},
		PrimaryAmount:  "total_spent",
		DefaultGroupBy: "segment",
		GroupFields:    []string{"segment", "city", "status"},
		Columns: []Column{
			{Key: "name", Title: "Customer", Kind: ColumnText, Weight: 2},
			{Key: "segment", Title: "Segment", Kind: ColumnText, Weight: 1.2},
			{Key: "phone", Title: "Phone", Kind: ColumnText, Weight: 1.4},
			{Key: "date", Title: "Since", Kind: ColumnDate, Weight: 1},
			{Key: "total_spent", Title: "Total Spent", Kind: ColumnMoney, Weight: 1.4},
		},
	},
	ReportPurchases: {
		Type:           ReportPurchases,
		Entity:         EntityPurchaseOrder,
		Title:          "Purchase Report",
		AmountFields:   []string{"total_amount"},
		PrimaryAmount:  "total_amount",
		DefaultGroupBy: "supplier_name",
		GroupFields:    []string{"supplier_name", "status"},
		Columns: []Column{
			{Key: "po_number", Title: "PO #", Kind: ColumnText, Weight: 1.2},
			{Key: "date", Title: "Date", Kind: ColumnDate, Weight: 1},
			{Key: "supplier_name", Title: "Supplier", Kind: ColumnText, Weight: 2},
			{Key: "status", Title: "Status", Kind: ColumnText, Weight: 1},
			{Key: "total_amount", Title: "Amount", Kind: ColumnMoney, Weight: 1.4},
		},
	},
}

// Definition returns the definition for a tabular report type.
// ReportConsolidated has no single-entity definition.
func Definition(t ReportType) (ReportDefinition, bool) {
	d, ok := definitions[t]
	return d, ok
}

// ParseReportType validates a report type name
func ParseReportType(s string) (ReportType, error) {
	t := ReportType(strings.ToLower(strings.TrimSpace(s)))
	if t == ReportConsolidated {
		return t, nil
	}
	if _, ok := definitions[t]; !ok {
		return "", shared.InvalidInput(fmt.Sprintf("unknown report type %q", s))
	}
	return t, nil
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
