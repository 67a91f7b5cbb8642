package services

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"finanse/internal/core"
)

// DefaultCategories is the starter set given to new owners.
var DefaultCategories = []core.Category{
	{Name: "Jedzenie", Icon: "restaurant", Color: "#FF5722", Kind: core.Expense},
	{Name: "Transport", Icon: "directions_car", Color: "#2196F3", Kind: core.Expense},
	{Name: "Rachunki", Icon: "receipt", Color: "#F44336", Kind: core.Expense},
	{Name: "Zakupy", Icon: "shopping_cart", Color: "#9C27B0", Kind: core.Expense},
	{Name: "Rozrywka", Icon: "movie", Color: "#FF9800", Kind: core.Expense},
	{Name: "Zdrowie", Icon: "local_hospital", Color: "#4CAF50", Kind: core.Expense},
	{Name: "Edukacja", Icon: "school", Color: "#607D8B", Kind: core.Expense},
	{Name: "Inne wydatki", Icon: "more_horiz", Color: "#795548", Kind: core.Expense},

	{Name: "Wynagrodzenie", Icon: "work", Color: "#4CAF50", Kind: core.Income},
	{Name: "Freelancing", Icon: "laptop", Color: "#00BCD4", Kind: core.Income},
	{Name: "Inwestycje", Icon: "trending_up", Color: "#3F51B5", Kind: core.Income},
	{Name: "Zwroty", Icon: "replay", Color: "#8BC34A", Kind: core.Income},
	{Name: "Prezenty", Icon: "card_giftcard", Color: "#E91E63", Kind: core.Income},
	{Name: "Inne przychody", Icon: "more_horiz", Color: "#009688", Kind: core.Income},
}

// seedEntry is one element of the JSON seed file.
type seedEntry struct {
	Name  string    `json:"name"`
	Icon  string    `json:"icon"`
	Color string    `json:"color"`
	Kind  core.Kind `json:"type"`
}

// LoadCategorySeed reads a starter category set from a JSON array at path:
//
//	[{"name": "Rent", "icon": "home", "color": "#333333", "type": "expense"}]
//
// Icon, color and type are optional; type defaults to expense. A missing
// file or an empty array yields DefaultCategories.
func LoadCategorySeed(path string) ([]core.Category, error) {
	if path == "" {
		return DefaultCategories, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultCategories, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read category seed: %w", err)
	}

	var entries []seedEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode category seed: %w", err)
	}

	var out []core.Category
	seen := make(map[string]bool)
	for i, e := range entries {
		c := core.Category{
			Name:  strings.TrimSpace(e.Name),
			Icon:  strings.TrimSpace(e.Icon),
			Color: strings.TrimSpace(e.Color),
			Kind:  e.Kind,
		}
		if c.Kind == "" {
			c.Kind = core.Expense
		}
		c = c.WithDefaults()
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("category seed entry %d: %w", i, err)
		}
		if seen[categoryKey(c)] {
			continue
		}
		seen[categoryKey(c)] = true
		out = append(out, c)
	}
	if len(out) == 0 {
		return DefaultCategories, nil
	}
	return out, nil
}
