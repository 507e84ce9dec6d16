package report

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntityKind identifies a family of externally owned business records
type EntityKind string

const (
	EntitySale          EntityKind = "sale"
	EntityExpense       EntityKind = "expense"
	EntityTrip          EntityKind = "trip"
	EntityPayroll       EntityKind = "payroll"
	EntityCustomer      EntityKind = "customer"
	EntityPurchaseOrder EntityKind = "purchase_order"
)

// Record is the aggregator's view of an entity: a date, numeric amounts and
// categorical labels. Records are read-only here.
type Record struct {
	ID      string                     `json:"id"`
	Date    time.Time                  `json:"date"`
	Amounts map[string]decimal.Decimal `json:"amounts"`
	Labels  map[string]string          `json:"labels"`
}

// NewRecord creates a record with empty amount and label maps
func NewRecord(id string, date time.Time) Record {
	return Record{
		ID:      id,
		Date:    date,
		Amounts: make(map[string]decimal.Decimal),
		Labels:  make(map[string]string),
	}
}

// WithAmount sets a numeric field and returns the record for chaining
func (r Record) WithAmount(field string, v decimal.Decimal) Record {
	r.Amounts[field] = v
	return r
}

// WithLabel sets a categorical field and returns the record for chaining
func (r Record) WithLabel(field, v string) Record {
	r.Labels[field] = v
	return r
}

// Amount returns the named amount, zero when absent
func (r Record) Amount(field string) decimal.Decimal {
	if v, ok := r.Amounts[field]; ok {
		return v
	}
	return decimal.Zero
}

// Label returns the named label, empty when absent
func (r Record) Label(field string) string {
	return r.Labels[field]
}
