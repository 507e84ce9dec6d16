package report

import (
	"sort"

	"github.com/shopspring/decimal"
)

// UncategorizedLabel is used for records with an empty group label
const UncategorizedLabel = "Uncategorized"

// AggregationSpec tells Aggregate which fields to sum and group by
type AggregationSpec struct {
	AmountFields  []string
	PrimaryAmount string
	GroupBy       string
}

// CategoryTotal is one entry of a ranked breakdown
type CategoryTotal struct {
	Label string          `json:"label"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
	Share decimal.Decimal `json:"share"` // percentage of the primary total
}

// Summary is the result of aggregating records over a range
type Summary struct {
	Range     DateRange                  `json:"range"`
	Count     int                        `json:"count"`
	Totals    map[string]decimal.Decimal `json:"totals"`
	Primary   decimal.Decimal            `json:"primary_total"`
	Average   decimal.Decimal            `json:"average"`
	GroupBy   string                     `json:"group_by,omitempty"`
	Breakdown []CategoryTotal            `json:"breakdown,omitempty"`
	Records   []Record                   `json:"records,omitempty"`
}

// Aggregate filters records to rng (inclusive at both ends), sums the
// configured amount fields and, when spec.GroupBy is set, group-sums the
// primary amount into a breakdown ordered highest to lowest. Equal totals keep
// the order in which their labels were first seen.
func Aggregate(records []Record, rng DateRange, spec AggregationSpec) Summary {
	s := Summary{
		Range:   rng,
		Totals:  make(map[string]decimal.Decimal, len(spec.AmountFields)),
		Primary: decimal.Zero,
		Average: decimal.Zero,
		GroupBy: spec.GroupBy,
	}
	for _, f := range spec.AmountFields {
		s.Totals[f] = decimal.Zero
	}

	index := make(map[string]int)
	for _, r := range records {
		if !rng.Contains(r.Date) {
			continue
		}
		s.Count++
		s.Records = append(s.Records, r)
		for _, f := range spec.AmountFields {
			s.Totals[f] = s.Totals[f].Add(r.Amount(f))
		}
		primary := r.Amount(spec.PrimaryAmount)
		s.Primary = s.Primary.Add(primary)

		if spec.GroupBy == "" {
			continue
		}
		label := r.Label(spec.GroupBy)
		if label == "" {
			label = UncategorizedLabel
		}
		i, ok := index[label]
		if !ok {
			i = len(s.Breakdown)
			index[label] = i
			s.Breakdown = append(s.Breakdown, CategoryTotal{Label: label, Total: decimal.Zero})
		}
		s.Breakdown[i].Total = s.Breakdown[i].Total.Add(primary)
		s.Breakdown[i].Count++
	}

	s.Average = SafeDivide(s.Primary, decimal.NewFromInt(int64(s.Count)))
	for i := range s.Breakdown {
		s.Breakdown[i].Share = Percentage(s.Breakdown[i].Total, s.Primary)
	}
	RankDescending(s.Breakdown)
	return s
}

// RankDescending orders a breakdown highest to lowest, stable on ties
func RankDescending(items []CategoryTotal) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Total.GreaterThan(items[j].Total)
	})
}

// SafeDivide returns a/b, or zero when b is zero
func SafeDivide(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.DivRound(b, 4)
}

// Percentage returns part/whole*100 rounded to two places, zero for an empty whole
func Percentage(part, whole decimal.Decimal) decimal.Decimal {
	return SafeDivide(part.Mul(decimal.NewFromInt(100)), whole).Round(2)
}
