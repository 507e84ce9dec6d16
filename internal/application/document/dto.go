package document

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	domain "github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/document"
	"github.com/shopspring/decimal"
)

// Date accepts "2006-01-02", RFC3339 or null in payloads
type Date struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == nil || strings.TrimSpace(*s) == "" {
		d.Time = time.Time{}
		return nil
	}
	v := strings.TrimSpace(*s)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", v)
}

// GenerateRequest is the body of the generateDocumentPDF function
type GenerateRequest struct {
	DocumentType string          `json:"documentType"`
	Data         json.RawMessage `json:"data"`
}

// GenerateResult is a rendered document ready for download
type GenerateResult struct {
	Filename    string
	ContentType string
	Data        []byte
	PageCount   int
	ArchiveKey  string
}

// LineItem is one product line of a receipt or invoice
type LineItem struct {
	ProductName string          `json:"product_name" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// LineTotal returns Total, or Quantity*UnitPrice when Total is zero
func (i LineItem) LineTotal() decimal.Decimal {
	if !i.Total.IsZero() {
		return i.Total
	}
	return i.Quantity.Mul(i.UnitPrice)
}

// ReceiptPayload is the data of a sale receipt
type ReceiptPayload struct {
	SaleNumber    string               `json:"sale_number" validate:"required"`
	Date          Date                 `json:"created_date,omitempty"`
	CustomerName  string               `json:"customer_name,omitempty"`
	CashierName   string               `json:"employee_name,omitempty"`
	Location      string               `json:"location,omitempty"`
	Items         []LineItem           `json:"items" validate:"dive"`
	Subtotal      decimal.Decimal      `json:"subtotal"`
	Discount      decimal.Decimal      `json:"discount"`
	Tax           decimal.Decimal      `json:"tax"`
	TotalAmount   decimal.Decimal      `json:"total_amount"`
	AmountPaid    decimal.Decimal      `json:"amount_paid"`
	ChangeGiven   decimal.Decimal      `json:"change_given"`
	PaymentMethod string               `json:"payment_method,omitempty"`
	Organisation  *domain.Organisation `json:"organisation,omitempty"`
	Notes         string               `json:"notes,omitempty"`
}

// InvoicePayload is the data of a customer invoice
type InvoicePayload struct {
	InvoiceNumber   string               `json:"invoice_number" validate:"required"`
	Date            Date                 `json:"date,omitempty"`
	DueDate         Date                 `json:"due_date,omitempty"`
	Status          string               `json:"status,omitempty"`
	CustomerName    string               `json:"customer_name" validate:"required"`
	CustomerEmail   string               `json:"customer_email,omitempty" validate:"omitempty,email"`
	CustomerPhone   string               `json:"customer_phone,omitempty"`
	CustomerAddress string               `json:"customer_address,omitempty"`
	Items           []LineItem           `json:"items" validate:"dive"`
	Subtotal        decimal.Decimal      `json:"subtotal"`
	Discount        decimal.Decimal      `json:"discount"`
	Tax             decimal.Decimal      `json:"tax"`
	TotalAmount     decimal.Decimal      `json:"total_amount"`
	AmountPaid      decimal.Decimal      `json:"amount_paid"`
	Organisation    *domain.Organisation `json:"organisation,omitempty"`
	Notes           string               `json:"notes,omitempty"`
}

// PayItem is a named allowance or deduction
type PayItem struct {
	Name   string          `json:"name" validate:"required"`
	Amount decimal.Decimal `json:"amount"`
}

// PayslipPayload is the data of an employee payslip
type PayslipPayload struct {
	EmployeeName    string               `json:"employee_name" validate:"required"`
	EmployeeCode    string               `json:"employee_code,omitempty"`
	Department      string               `json:"department,omitempty"`
	Position        string               `json:"position,omitempty"`
	Period          string               `json:"period,omitempty"`
	PeriodStart     Date                 `json:"period_start,omitempty"`
	PeriodEnd       Date                 `json:"period_end,omitempty"`
	PaymentDate     Date                 `json:"payment_date,omitempty"`
	BaseSalary      decimal.Decimal      `json:"base_salary"`
	Allowances      []PayItem            `json:"allowances" validate:"dive"`
	Deductions      []PayItem            `json:"deductions" validate:"dive"`
	GrossPay        decimal.Decimal      `json:"gross_pay"`
	TotalDeductions decimal.Decimal      `json:"total_deductions"`
	NetPay          decimal.Decimal      `json:"net_pay"`
	Organisation    *domain.Organisation `json:"organisation,omitempty"`
	Notes           string               `json:"notes,omitempty"`
}

// ReportColumn declares one column of a free-form report
type ReportColumn struct {
	Key   string `json:"key" validate:"required"`
	Label string `json:"label,omitempty"`
	// Type is text, money, number or date
	Type   string  `json:"type,omitempty" validate:"omitempty,oneof=text money number date"`
	Weight float64 `json:"weight,omitempty" validate:"gte=0"`
}

// SummaryItem is one headline figure of a report
type SummaryItem struct {
	Label string `json:"label" validate:"required"`
	Value any    `json:"value"`
	Money bool   `json:"money,omitempty"`
}

// ReportPayload is a free-form tabular report
type ReportPayload struct {
	Title        string               `json:"title" validate:"required"`
	Subtitle     string               `json:"subtitle,omitempty"`
	Period       string               `json:"period,omitempty"`
	Summary      []SummaryItem        `json:"summary" validate:"dive"`
	Columns      []ReportColumn       `json:"columns" validate:"dive"`
	Rows         []map[string]any     `json:"rows"`
	ShowTotals   *bool                `json:"show_totals,omitempty"`
	Organisation *domain.Organisation `json:"organisation,omitempty"`
	Notes        string               `json:"notes,omitempty"`
}
