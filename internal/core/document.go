package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Document is a loosely typed record as persisted by a storage backend.
// Parse* functions turn documents into validated records, applying the
// defaults the application has always used for missing fields.
type Document map[string]any

// ParseTransaction converts a document into a Transaction.
// Missing amount becomes 0, missing type becomes expense.
func ParseTransaction(doc Document) (Transaction, error) {
	id := doc.String("id")
	if id == "" {
		return Transaction{}, fmt.Errorf("transaction: %w", ErrMissingID)
	}
	kind := Kind(doc.String("type"))
	if kind == "" {
		kind = Expense
	}
	return Transaction{
		ID:          id,
		OwnerID:     doc.String("userId"),
		Amount:      doc.Money("amount"),
		Description: doc.String("description"),
		CategoryID:  doc.String("categoryId"),
		Kind:        kind,
		Date:        doc.Date("date"),
		CreatedAt:   doc.Time("createdAt"),
	}, nil
}

func (t Transaction) ToDocument() Document {
	return Document{
		"id":          t.ID,
		"userId":      t.OwnerID,
		"amount":      t.Amount.String(),
		"description": t.Description,
		"categoryId":  t.CategoryID,
		"type":        string(t.Kind),
		"date":        t.Date.String(),
		"createdAt":   t.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// ParseCategory converts a document into a Category with display defaults.
func ParseCategory(doc Document) (Category, error) {
	id := doc.String("id")
	if id == "" {
		return Category{}, fmt.Errorf("category: %w", ErrMissingID)
	}
	kind := Kind(doc.String("type"))
	if kind == "" {
		kind = Expense
	}
	c := Category{
		ID:        id,
		OwnerID:   doc.String("userId"),
		Name:      doc.String("name"),
		Icon:      doc.String("icon"),
		Color:     doc.String("color"),
		Kind:      kind,
		CreatedAt: doc.Time("createdAt"),
	}
	return c.WithDefaults(), nil
}

func (c Category) ToDocument() Document {
	return Document{
		"id":        c.ID,
		"userId":    c.OwnerID,
		"name":      c.Name,
		"icon":      c.Icon,
		"color":     c.Color,
		"type":      string(c.Kind),
		"createdAt": c.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// ParseBudget converts a document into a Budget. A missing period falls back
// to monthly, the default offered when a budget is created.
func ParseBudget(doc Document) (Budget, error) {
	id := doc.String("id")
	if id == "" {
		return Budget{}, fmt.Errorf("budget: %w", ErrMissingID)
	}
	period := Period(doc.String("period"))
	if period == "" {
		period = Monthly
	}
	return Budget{
		ID:         id,
		OwnerID:    doc.String("userId"),
		CategoryID: doc.String("categoryId"),
		Amount:     doc.Money("amount"),
		Period:     period,
		StartDate:  doc.Date("startDate"),
		EndDate:    doc.Date("endDate"),
		CreatedAt:  doc.Time("createdAt"),
	}, nil
}

func (b Budget) ToDocument() Document {
	return Document{
		"id":         b.ID,
		"userId":     b.OwnerID,
		"categoryId": b.CategoryID,
		"amount":     b.Amount.String(),
		"period":     string(b.Period),
		"startDate":  b.StartDate.String(),
		"endDate":    b.EndDate.String(),
		"createdAt":  b.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func ParseNotification(doc Document) (Notification, error) {
	id := doc.String("id")
	if id == "" {
		return Notification{}, fmt.Errorf("notification: %w", ErrMissingID)
	}
	n := Notification{
		ID:        id,
		OwnerID:   doc.String("userId"),
		Title:     doc.String("title"),
		Message:   doc.String("message"),
		Type:      NotificationType(doc.String("type")),
		CreatedAt: doc.Time("createdAt"),
		IsRead:    doc.Bool("isRead"),
		Link:      doc.String("link"),
	}
	if data, ok := doc["data"].(map[string]any); ok {
		n.Data = data
	}
	return n, nil
}

func (n Notification) ToDocument() Document {
	doc := Document{
		"id":        n.ID,
		"userId":    n.OwnerID,
		"title":     n.Title,
		"message":   n.Message,
		"type":      string(n.Type),
		"createdAt": n.CreatedAt.UTC().Format(time.RFC3339Nano),
		"isRead":    n.IsRead,
	}
	if n.Link != "" {
		doc["link"] = n.Link
	}
	if len(n.Data) > 0 {
		doc["data"] = n.Data
	}
	return doc
}

// String returns the field as a trimmed string, or "" when absent.
func (d Document) String(key string) string {
	switch v := d[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// Money returns the field as an amount; anything unparseable is 0.
func (d Document) Money(key string) Money {
	switch v := d[key].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Zero
		}
		return Money{Amount: decimal.NewFromFloat(v)}
	case int:
		return Money{Amount: decimal.NewFromInt(int64(v))}
	case int64:
		return Money{Amount: decimal.NewFromInt(v)}
	case json.Number:
		if dec, err := decimal.NewFromString(v.String()); err == nil {
			return Money{Amount: dec}
		}
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(v), ",", ".")
		if dec, err := decimal.NewFromString(s); err == nil {
			return Money{Amount: dec}
		}
	case Money:
		return v
	}
	return Zero
}

// Date returns the field as a calendar day; unparseable values yield the zero Date.
func (d Document) Date(key string) Date {
	switch v := d[key].(type) {
	case string:
		if parsed, err := ParseDate(v); err == nil {
			return parsed
		}
	case time.Time:
		return DateOf(v)
	case Date:
		return v
	case float64:
		return DateOf(time.Unix(int64(v), 0))
	case int64:
		return DateOf(time.Unix(v, 0))
	case json.Number:
		if secs, err := v.Int64(); err == nil {
			return DateOf(time.Unix(secs, 0))
		}
	}
	return Date{}
}

// Time returns the field as a timestamp. A missing or unreadable creation
// time is treated as "now", matching how records without server timestamps
// have always been displayed.
func (d Document) Time(key string) time.Time {
	switch v := d[key].(type) {
	case string:
		if t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(v)); err == nil {
			return t.UTC()
		}
		if secs, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return time.Unix(secs, 0).UTC()
		}
	case time.Time:
		return v.UTC()
	case float64:
		return time.Unix(int64(v), 0).UTC()
	case int64:
		return time.Unix(v, 0).UTC()
	}
	return time.Now().UTC()
}

func (d Document) Bool(key string) bool {
	switch v := d[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	case float64:
		return v != 0
	}
	return false
}
