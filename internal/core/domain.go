package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

const (
	BudgetAlert     NotificationType = "BUDGET_ALERT"
	PaymentReminder NotificationType = "PAYMENT_REMINDER"
	Tip             NotificationType = "TIP"
	Trend           NotificationType = "TREND"
	Update          NotificationType = "UPDATE"
)

// Display defaults applied when a category document lacks them.
const (
	DefaultIcon  = "more_horiz"
	DefaultColor = "#000000"
)

type (
	// Kind distinguishes income from expense for transactions and categories.
	Kind string

	// Period is the recurrence label of a budget.
	Period string

	NotificationType string

	Transaction struct {
		ID          string    `json:"id"`
		OwnerID     string    `json:"userId"`
		Amount      Money     `json:"amount"`
		Description string    `json:"description"`
		CategoryID  string    `json:"categoryId"`
		Kind        Kind      `json:"type"`
		Date        Date      `json:"date"`
		CreatedAt   time.Time `json:"createdAt"`
	}

	Category struct {
		ID        string    `json:"id"`
		OwnerID   string    `json:"userId,omitempty"`
		Name      string    `json:"name"`
		Icon      string    `json:"icon"`
		Color     string    `json:"color"`
		Kind      Kind      `json:"type"`
		CreatedAt time.Time `json:"createdAt"`
	}

	Budget struct {
		ID         string    `json:"id"`
		OwnerID    string    `json:"userId"`
		CategoryID string    `json:"categoryId"`
		Amount     Money     `json:"amount"`
		Period     Period    `json:"period"`
		StartDate  Date      `json:"startDate"`
		EndDate    Date      `json:"endDate"`
		CreatedAt  time.Time `json:"createdAt"`
	}

	Notification struct {
		ID        string           `json:"id"`
		OwnerID   string           `json:"userId"`
		Title     string           `json:"title"`
		Message   string           `json:"message"`
		Type      NotificationType `json:"type"`
		CreatedAt time.Time        `json:"createdAt"`
		IsRead    bool             `json:"isRead"`
		Link      string           `json:"link,omitempty"`
		Data      map[string]any   `json:"data,omitempty"`
	}

	User struct {
		ID           string    `json:"uid"`
		Email        string    `json:"email"`
		DisplayName  string    `json:"displayName,omitempty"`
		PasswordHash string    `json:"-"`
		DarkMode     bool      `json:"darkMode"`
		CreatedAt    time.Time `json:"createdAt"`
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyDescription  = errors.New("empty description")
	ErrEmptyCategory     = errors.New("empty category")
	ErrEmptyName         = errors.New("empty name")
	ErrInvalidKind       = errors.New("invalid kind")
	ErrInvalidPeriod     = errors.New("invalid period")
	ErrInvalidDate       = errors.New("invalid date")
	ErrEndBeforeStart    = errors.New("end date before start date")
	ErrMissingID         = errors.New("missing identifier")
	ErrNotFound          = errors.New("not found")
	ErrDuplicateCategory = errors.New("category with the same name and type already exists")
	ErrCategoryInUse     = errors.New("category is referenced by transactions or budgets")
	ErrNotExpenseKind    = errors.New("budget category must be an expense category")
	ErrUnauthenticated   = errors.New("not authenticated")
)

// IsValid reports whether k is one of the known kinds.
func (k Kind) IsValid() bool {
	return k == Income || k == Expense
}

func (p Period) IsValid() bool {
	switch p {
	case Daily, Weekly, Monthly, Yearly:
		return true
	default:
		return false
	}
}

func (t NotificationType) IsValid() bool {
	switch t {
	case BudgetAlert, PaymentReminder, Tip, Trend, Update:
		return true
	default:
		return false
	}
}

func (t Transaction) Validate() error {
	var v ValidationError
	if len(strings.TrimSpace(t.Description)) == 0 {
		v.Add("description", ErrEmptyDescription)
	} else if len(t.Description) > 200 {
		v.Add("description", errors.New("description too long (max 200 characters)"))
	}
	if err := t.Amount.Validate(); err != nil {
		v.Add("amount", err)
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		v.Add("categoryId", ErrEmptyCategory)
	}
	if !t.Kind.IsValid() {
		v.Add("type", ErrInvalidKind)
	}
	if err := t.Date.Validate(); err != nil {
		v.Add("date", err)
	}
	return v.OrNil()
}

func (c Category) Validate() error {
	var v ValidationError
	if strings.TrimSpace(c.Name) == "" {
		v.Add("name", ErrEmptyName)
	}
	if !c.Kind.IsValid() {
		v.Add("type", ErrInvalidKind)
	}
	return v.OrNil()
}

// WithDefaults fills missing display attributes.
func (c Category) WithDefaults() Category {
	if strings.TrimSpace(c.Icon) == "" {
		c.Icon = DefaultIcon
	}
	if strings.TrimSpace(c.Color) == "" {
		c.Color = DefaultColor
	}
	return c
}

func (b Budget) Validate() error {
	var v ValidationError
	if strings.TrimSpace(b.CategoryID) == "" {
		v.Add("categoryId", ErrEmptyCategory)
	}
	if err := b.Amount.Validate(); err != nil {
		v.Add("amount", err)
	}
	if !b.Period.IsValid() {
		v.Add("period", ErrInvalidPeriod)
	}
	startErr := b.StartDate.Validate()
	if startErr != nil {
		v.Add("startDate", startErr)
	}
	if err := b.EndDate.Validate(); err != nil {
		v.Add("endDate", err)
	} else if startErr == nil && b.EndDate.Before(b.StartDate.Time) {
		v.Add("endDate", ErrEndBeforeStart)
	}
	return v.OrNil()
}

// Contains reports whether d falls inside the budget window, both ends inclusive.
func (b Budget) Contains(d Date) bool {
	return !d.Before(b.StartDate.Time) && !d.After(b.EndDate.Time)
}
