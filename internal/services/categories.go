package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"finanse/internal/core"
	"finanse/internal/storage"
)

// categoryKey identifies duplicates: same trimmed, case-folded name and kind.
func categoryKey(c core.Category) string {
	return strings.ToLower(strings.TrimSpace(c.Name)) + "|" + string(c.Kind)
}

// RankDuplicates orders categories sharing a key from best to worst: a
// custom icon beats the default one, then a custom color beats the default
// one, then newer beats older.
func RankDuplicates(group []core.Category) []core.Category {
	out := append([]core.Category(nil), group...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.Icon != core.DefaultIcon) != (b.Icon != core.DefaultIcon) {
			return a.Icon != core.DefaultIcon
		}
		if (a.Color != core.DefaultColor) != (b.Color != core.DefaultColor) {
			return a.Color != core.DefaultColor
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return out
}

// CleanupDuplicateCategories keeps the best category of every duplicate group
// and deletes the rest. Transactions and budgets pointing at a removed
// category are moved to the kept one. It returns the remaining categories
// and how many were removed.
func (s *LedgerService) CleanupDuplicateCategories(ctx context.Context, owner string) ([]core.Category, int, error) {
	if owner == "" {
		return nil, 0, core.ErrUnauthenticated
	}
	cats, err := s.repo.ListCategories(ctx, owner)
	if err != nil {
		return nil, 0, err
	}

	groups := make(map[string][]core.Category)
	var order []string
	for _, c := range cats {
		k := categoryKey(c)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], c)
	}

	kept := make([]core.Category, 0, len(order))
	replacement := make(map[string]string)
	for _, k := range order {
		ranked := RankDuplicates(groups[k])
		kept = append(kept, ranked[0])
		for _, dup := range ranked[1:] {
			replacement[dup.ID] = ranked[0].ID
		}
	}
	if len(replacement) == 0 {
		return kept, 0, nil
	}

	if err := s.reassignCategories(ctx, owner, replacement); err != nil {
		// Some references may already point at the kept categories.
		s.changed(ctx, owner, storage.Transactions)
		s.changed(ctx, owner, storage.Budgets)
		return nil, 0, err
	}
	removed := 0
	for id := range replacement {
		if err := s.repo.DeleteCategory(ctx, owner, id); err != nil {
			s.logger.ErrorContext(ctx, "Failed to delete duplicate category",
				"owner", owner, "category_id", id, "error", err)
			continue
		}
		removed++
	}
	s.logger.InfoContext(ctx, "Duplicate categories cleaned up",
		"owner", owner, "groups", len(order), "removed", removed)
	s.changed(ctx, owner, storage.Categories)
	s.changed(ctx, owner, storage.Transactions)
	s.changed(ctx, owner, storage.Budgets)
	return kept, removed, nil
}

func (s *LedgerService) reassignCategories(ctx context.Context, owner string, replacement map[string]string) error {
	txs, err := s.repo.ListTransactions(ctx, owner)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	for _, t := range txs {
		if to, ok := replacement[t.CategoryID]; ok {
			t.CategoryID = to
			if _, err := s.repo.ReplaceTransaction(ctx, owner, t); err != nil {
				return fmt.Errorf("reassign transaction %s: %w", t.ID, err)
			}
		}
	}
	budgets, err := s.repo.ListBudgets(ctx, owner)
	if err != nil {
		return fmt.Errorf("load budgets: %w", err)
	}
	for _, b := range budgets {
		if to, ok := replacement[b.CategoryID]; ok {
			b.CategoryID = to
			if _, err := s.repo.ReplaceBudget(ctx, owner, b); err != nil {
				return fmt.Errorf("reassign budget %s: %w", b.ID, err)
			}
		}
	}
	return nil
}

// SeedCategories adds every category of seed the owner does not have yet
// and returns how many were added.
func (s *LedgerService) SeedCategories(ctx context.Context, owner string, seed []core.Category) (int, error) {
	if owner == "" {
		return 0, core.ErrUnauthenticated
	}
	existing, err := s.repo.ListCategories(ctx, owner)
	if err != nil {
		return 0, err
	}
	have := make(map[string]bool, len(existing))
	for _, c := range existing {
		have[categoryKey(c)] = true
	}

	added := 0
	for _, c := range seed {
		if have[categoryKey(c)] {
			continue
		}
		if _, err := s.repo.AddCategory(ctx, owner, c); err != nil {
			s.logger.ErrorContext(ctx, "Failed to add default category",
				"owner", owner, "name", c.Name, "error", err)
			continue
		}
		have[categoryKey(c)] = true
		added++
	}
	if added > 0 {
		s.changed(ctx, owner, storage.Categories)
	}
	return added, nil
}
