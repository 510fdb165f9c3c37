package core

// FinancialSummary aggregates income and expenses over the whole history
// plus the current calendar month.
type FinancialSummary struct {
	TotalIncome     Money
	TotalExpenses   Money
	Balance         int64 // cents; can be negative
	MonthlyIncome   Money
	MonthlyExpenses Money
}

// TransactionFilters narrows a transaction listing. Zero values mean "all".
type TransactionFilters struct {
	Search     string
	CategoryID string
	Type       TransactionType
	StartDate  Date
	EndDate    Date
}
