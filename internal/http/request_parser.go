package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"finanse/internal/core"
)

const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("request body is empty")

// DecodeJSON reads one JSON value from the request body into dst.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body larger than %d bytes", tooLarge.Limit)
		}
		return fmt.Errorf("malformed JSON: %w", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// lenientAmount accepts a JSON number or numeric string. Anything else
// yields zero so record validation flags the field.
func lenientAmount(raw json.RawMessage) core.Money {
	var m core.Money
	if len(raw) == 0 || m.UnmarshalJSON(raw) != nil {
		return core.Zero
	}
	return m
}

// lenientDate parses YYYY-MM-DD or RFC 3339; failures yield the zero date.
func lenientDate(s string) core.Date {
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}
	}
	return d
}

type credentialsRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type profileRequest struct {
	DisplayName string `json:"displayName"`
}

type themeRequest struct {
	DarkMode *bool `json:"darkMode"`
}

type categoryRequest struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
	Kind  string `json:"type"`
}

func (req categoryRequest) toCategory() core.Category {
	return core.Category{
		Name:  sanitizeInput(req.Name),
		Icon:  sanitizeInput(req.Icon),
		Color: sanitizeInput(req.Color),
		Kind:  core.Kind(strings.TrimSpace(req.Kind)),
	}
}

type transactionRequest struct {
	Amount      json.RawMessage `json:"amount"`
	Description string          `json:"description"`
	CategoryID  string          `json:"categoryId"`
	Kind        string          `json:"type"`
	Date        string          `json:"date"`
}

func (req transactionRequest) toTransaction(id string) core.Transaction {
	return core.Transaction{
		ID:          id,
		Amount:      lenientAmount(req.Amount),
		Description: sanitizeInput(req.Description),
		CategoryID:  strings.TrimSpace(req.CategoryID),
		Kind:        core.Kind(strings.TrimSpace(req.Kind)),
		Date:        lenientDate(req.Date),
	}
}

type budgetRequest struct {
	CategoryID string          `json:"categoryId"`
	Amount     json.RawMessage `json:"amount"`
	Period     string          `json:"period"`
	StartDate  string          `json:"startDate"`
	EndDate    string          `json:"endDate"`
}

func (req budgetRequest) toBudget(id string) core.Budget {
	return core.Budget{
		ID:         id,
		CategoryID: strings.TrimSpace(req.CategoryID),
		Amount:     lenientAmount(req.Amount),
		Period:     core.Period(strings.TrimSpace(req.Period)),
		StartDate:  lenientDate(req.StartDate),
		EndDate:    lenientDate(req.EndDate),
	}
}
