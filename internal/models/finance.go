package models

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// CompanyOverview is the attribute table returned by a company lookup.
// Attributes keep the provider's field order.
type CompanyOverview struct {
	Symbol     string      `json:"symbol"`
	Attributes []Attribute `json:"attributes"`
}

// Attribute is one key/value row of a company overview.
type Attribute struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Get returns the value of the attribute with the given key.
func (c *CompanyOverview) Get(key string) (string, bool) {
	for _, a := range c.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// StatementKind identifies a financial statement.
type StatementKind string

const (
	StatementBalanceSheet StatementKind = "balance"
	StatementIncome       StatementKind = "income"
	StatementRatio        StatementKind = "ratio"
)

// ParseStatementKind maps user input to a StatementKind.
func ParseStatementKind(s string) (StatementKind, bool) {
	switch s {
	case "balance", "balance_sheet", "balancesheet":
		return StatementBalanceSheet, true
	case "income", "income_statement", "incomestatement":
		return StatementIncome, true
	case "ratio", "ratios", "financialratio":
		return StatementRatio, true
	}
	return "", false
}

// FinancialStatement is a period-indexed table of reported values.
type FinancialStatement struct {
	Symbol  string         `json:"symbol"`
	Kind    StatementKind  `json:"kind"`
	Period  string         `json:"period"` // quarter, year
	Lang    string         `json:"lang"`
	Columns []Column       `json:"columns"`
	Rows    []FinancialRow `json:"rows"`
}

// Column describes one value column of a statement.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// FinancialRow holds one reporting period of a statement.
// Values missing upstream are absent from the map.
type FinancialRow struct {
	Year    int                        `json:"year"`
	Quarter int                        `json:"quarter"`
	Values  map[string]decimal.Decimal `json:"values"`
}

// PeriodLabel is "Q3/2024" for quarterly rows and "2024" for yearly rows.
func (r FinancialRow) PeriodLabel() string {
	if r.Quarter <= 0 {
		return strconv.Itoa(r.Year)
	}
	return "Q" + strconv.Itoa(r.Quarter) + "/" + strconv.Itoa(r.Year)
}

// Head returns a copy of the statement limited to the first n rows.
func (f *FinancialStatement) Head(n int) *FinancialStatement {
	out := *f
	if n >= 0 && n < len(f.Rows) {
		out.Rows = f.Rows[:n]
	}
	return &out
}
