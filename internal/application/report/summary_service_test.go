package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/report"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/shared"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/rendering"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSummaryService_Summary(t *testing.T) {
	source := new(MockRecordSource)
	tenantID := uuid.New()
	source.On("Records", mock.Anything, tenantID, report.EntityExpense, mock.Anything).Return(expenseRecords(), nil)

	svc := newTestSummaryService(source)
	s, err := svc.Summary(context.Background(), tenantID, SummaryQuery{
		ReportType:  report.ReportExpenses,
		RangeFilter: report.RangeFilter{DateRange: "this_month"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, s.Count)
	assert.True(t, dec("3750000").Equal(s.Primary))
	assert.Equal(t, "category", s.GroupBy)
	require.Len(t, s.Breakdown, 2)
	assert.Equal(t, "Rent", s.Breakdown[0].Label)
	assert.Equal(t, "Fuel", s.Breakdown[1].Label)
	source.AssertExpectations(t)
}

func TestSummaryService_InvalidGroupBy(t *testing.T) {
	svc := newTestSummaryService(new(MockRecordSource))

	_, err := svc.Summary(context.Background(), uuid.New(), SummaryQuery{
		ReportType: report.ReportExpenses,
		GroupBy:    "colour",
	})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestSummaryService_InvalidCustomRange(t *testing.T) {
	svc := newTestSummaryService(new(MockRecordSource))

	_, err := svc.Summary(context.Background(), uuid.New(), SummaryQuery{
		ReportType:  report.ReportSales,
		RangeFilter: report.RangeFilter{StartDate: "2026-10-10", EndDate: "2026-10-01"},
	})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestSummaryService_SourceError(t *testing.T) {
	source := new(MockRecordSource)
	source.On("Records", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	svc := newTestSummaryService(source)
	_, err := svc.Summary(context.Background(), uuid.New(), SummaryQuery{ReportType: report.ReportSales})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestSummaryService_CachesSummary(t *testing.T) {
	source := new(MockRecordSource)
	cache := new(MockSummaryCache)
	tenantID := uuid.New()

	source.On("Records", mock.Anything, tenantID, report.EntityExpense, mock.Anything).Return(expenseRecords(), nil).Once()
	cache.On("Get", mock.Anything, mock.MatchedBy(func(k string) bool {
		return strings.HasPrefix(k, "report:summary:"+tenantID.String()+":expenses:")
	}), mock.Anything).Return(false, nil).Once()
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything, DefaultSummaryTTL).Return(nil).Once()

	svc := newTestSummaryService(source, WithSummaryCache(cache, 0))
	_, err := svc.Summary(context.Background(), tenantID, SummaryQuery{ReportType: report.ReportExpenses})
	require.NoError(t, err)

	source.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestSummaryService_CacheHitSkipsSource(t *testing.T) {
	source := new(MockRecordSource)
	cache := new(MockSummaryCache)
	cache.On("Get", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			dest := args.Get(2).(*report.Summary)
			dest.Count = 42
			dest.Primary = dec("100")
		}).
		Return(true, nil)

	svc := newTestSummaryService(source, WithSummaryCache(cache, 0))
	s, err := svc.Summary(context.Background(), uuid.New(), SummaryQuery{ReportType: report.ReportSales})
	require.NoError(t, err)

	assert.Equal(t, 42, s.Count)
	source.AssertNotCalled(t, "Records", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSummaryService_CacheErrorFallsBackToSource(t *testing.T) {
	source := new(MockRecordSource)
	cache := new(MockSummaryCache)
	source.On("Records", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(expenseRecords(), nil)
	cache.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("redis timeout"))
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis timeout"))

	svc := newTestSummaryService(source, WithSummaryCache(cache, 0))
	s, err := svc.Summary(context.Background(), uuid.New(), SummaryQuery{ReportType: report.ReportExpenses})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Count)
}

func TestSummaryService_Consolidated(t *testing.T) {
	source := new(MockRecordSource)
	tenantID := uuid.New()
	source.On("Records", mock.Anything, tenantID, report.EntitySale, mock.Anything).Return([]report.Record{
		report.NewRecord("s1", day(2026, 10, 3)).WithAmount("total_amount", dec("5000000")),
	}, nil)
	source.On("Records", mock.Anything, tenantID, report.EntityExpense, mock.Anything).Return(expenseRecords(), nil)
	source.On("Records", mock.Anything, tenantID, report.EntityTrip, mock.Anything).Return([]report.Record{
		report.NewRecord("t1", day(2026, 10, 4)).
			WithAmount("revenue", dec("800000")).
			WithAmount("fuel_cost", dec("300000")),
	}, nil)
	source.On("Records", mock.Anything, tenantID, report.EntityPayroll, mock.Anything).Return([]report.Record{}, nil)

	svc := newTestSummaryService(source)
	c, err := svc.Consolidated(context.Background(), tenantID, report.RangeFilter{DateRange: "this_month"})
	require.NoError(t, err)

	assert.True(t, dec("5800000").Equal(c.TotalRevenue))
	assert.True(t, dec("4050000").Equal(c.TotalCosts))
	assert.True(t, dec("1750000").Equal(c.NetProfit))
	source.AssertExpectations(t)
}

func TestSummaryService_ExportCSV(t *testing.T) {
	source := new(MockRecordSource)
	source.On("Records", mock.Anything, mock.Anything, report.EntityExpense, mock.Anything).Return(expenseRecords(), nil)

	svc := newTestSummaryService(source)
	a, err := svc.Export(context.Background(), uuid.New(), SummaryQuery{
		ReportType:  report.ReportExpenses,
		RangeFilter: report.RangeFilter{DateRange: "this_month"},
	}, rendering.FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "Expense_Report-2026-10-01_2026-10-31.csv", a.Filename)
	lines := strings.Split(strings.TrimSuffix(string(a.Data), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, `"Date","Category","Description","Vendor","Amount"`, lines[0])
	assert.Equal(t, `"2026-10-02","Fuel","Diesel","NP","1250000"`, lines[1])
	assert.Equal(t, `"2026-10-05","Rent","Office, Wilberforce","Landlord","2500000"`, lines[2])
	assert.Equal(t, `"TOTAL","","","","3750000"`, lines[3])
}

func TestSummaryService_ExportCSVMatchesAggregate(t *testing.T) {
	types := []report.ReportType{
		report.ReportSales, report.ReportExpenses, report.ReportTransport,
		report.ReportPayroll, report.ReportCustomers, report.ReportPurchases,
	}
	from := day(2026, 9, 1)
	to := day(2026, 11, 30)

	for seed := uint64(1); seed <= 5; seed++ {
		for _, rt := range types {
			t.Run(fmt.Sprintf("%s/seed-%d", rt, seed), func(t *testing.T) {
				def, ok := report.Definition(rt)
				require.True(t, ok)
				records := fakeRecords(gofakeit.New(seed), def, 40, from, to)

				source := new(MockRecordSource)
				source.On("Records", mock.Anything, mock.Anything, def.Entity, mock.Anything).Return(records, nil)
				svc := newTestSummaryService(source)

				query := SummaryQuery{ReportType: rt, RangeFilter: report.RangeFilter{DateRange: "this_month"}}
				a, err := svc.Export(context.Background(), uuid.New(), query, rendering.FormatCSV)
				require.NoError(t, err)

				spec, err := def.Spec("")
				require.NoError(t, err)
				want := report.Aggregate(records, report.ResolveRange("this_month", testNow), spec)

				rows, err := csv.NewReader(bytes.NewReader(a.Data)).ReadAll()
				require.NoError(t, err)
				require.Len(t, rows, want.Count+2, "header, one row per record, totals")

				col := -1
				for i, c := range def.Columns {
					if c.Key == def.PrimaryAmount {
						col = i
					}
				}
				require.GreaterOrEqual(t, col, 0)

				sum := decimal.Zero
				for _, row := range rows[1 : len(rows)-1] {
					sum = sum.Add(decimal.RequireFromString(row[col]))
				}
				totals := rows[len(rows)-1]
				assert.Equal(t, "TOTAL", totals[0])
				assert.True(t, want.Primary.Equal(decimal.RequireFromString(totals[col])), "total %s, aggregate %s", totals[col], want.Primary)
				assert.True(t, want.Primary.Equal(sum), "rows sum %s, aggregate %s", sum, want.Primary)
			})
		}
	}
}

// fakeRecords builds n records spread over [from, to] carrying every amount
// and label the definition reads. Labels may contain commas and quotes.
func fakeRecords(faker *gofakeit.Faker, def report.ReportDefinition, n int, from, to time.Time) []report.Record {
	records := make([]report.Record, 0, n)
	for i := 0; i < n; i++ {
		r := report.NewRecord(faker.UUID(), faker.DateRange(from, to))
		for _, f := range def.AmountFields {
			r = r.WithAmount(f, decimal.NewFromFloat(faker.Price(1, 2500000)).Round(2))
		}
		for _, c := range def.Columns {
			if c.Kind == report.ColumnText {
				r = r.WithLabel(c.Key, faker.Company()+", "+faker.Sentence(3)+` "x"`)
			}
		}
		for _, f := range def.GroupFields {
			if r.Label(f) == "" {
				r = r.WithLabel(f, faker.RandomString([]string{"North", "South", "East", "West"}))
			}
		}
		records = append(records, r)
	}
	return records
}

func TestSummaryService_ExportPDF(t *testing.T) {
	source := new(MockRecordSource)
	source.On("Records", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]report.Record{}, nil)

	svc := newTestSummaryService(source)
	a, err := svc.Export(context.Background(), uuid.New(), SummaryQuery{
		ReportType: report.ReportConsolidated,
		Title:      "Q4 P&L",
	}, rendering.FormatPDF)
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", a.ContentType)
	assert.Contains(t, string(a.Data), "NET PROFIT")
	assert.Equal(t, 1, a.PageCount)
}

func TestDocumentBuilder_SummaryTables(t *testing.T) {
	def, _ := report.Definition(report.ReportExpenses)
	rng := report.ResolveRange("this_month", testNow)
	s := report.Aggregate(expenseRecords(), rng, report.AggregationSpec{
		AmountFields: def.AmountFields, PrimaryAmount: def.PrimaryAmount, GroupBy: "category",
	})

	doc := testDocumentBuilder().Summary(def, s, "", testNow)

	assert.Equal(t, "Expense Report", doc.Title)
	assert.Equal(t, "01 Oct 2026 - 31 Oct 2026", doc.Subtitle)
	tbl, ok := doc.PrimaryTable()
	require.True(t, ok)
	assert.Equal(t, []string{"02 Oct 2026", "Fuel", "Diesel", "NP", "SLE 1,250,000"}, tbl.Rows[0])
	assert.Equal(t, []string{"TOTAL", "", "", "", "SLE 3,750,000"}, tbl.Total)

	var tables int
	for _, b := range doc.Blocks {
		if _, ok := b.(interface{ HasTotal() bool }); ok {
			tables++
		}
	}
	assert.Equal(t, 2, tables)
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "Payment Method", humanize("payment_method"))
	assert.Equal(t, "Category", humanize("category"))
	assert.Equal(t, "", humanize(""))
}
