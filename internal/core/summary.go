package core

// Status is the severity bucket of a budget usage percentage.
type Status string

const (
	StatusGood    Status = "good"
	StatusWarning Status = "warning"
	StatusDanger  Status = "danger"
)

// Summary holds income/expense totals over a set of transactions.
type Summary struct {
	Income  Money `json:"income"`
	Expense Money `json:"expense"`
	Balance Money `json:"balance"`
}

// Usage is how much of a budget has been consumed.
type Usage struct {
	Spent      Money   `json:"spent"`
	Percentage float64 `json:"percentage"` // 0-100
	Status     Status  `json:"status"`
}

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	CategoryID string `json:"categoryId"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	Amount     Money  `json:"amount"`
}

// DayTotals is one bar of the daily income/expense series.
type DayTotals struct {
	Date    Date  `json:"date"`
	Income  Money `json:"income"`
	Expense Money `json:"expense"`
}

// BudgetView joins a budget with its category and current usage.
type BudgetView struct {
	Budget   Budget   `json:"budget"`
	Category Category `json:"category"`
	Usage    Usage    `json:"usage"`
}
