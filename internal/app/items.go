package app

import (
	"fmt"
	"strconv"
	"strings"

	"pack-grader/internal/pricing"
)

// ParseItems turns a CLI item list like "pot:10,gem:2" into item lines.
func ParseItems(spec string) ([]pricing.ItemLine, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("item list is empty")
	}

	parts := strings.Split(spec, ",")
	lines := make([]pricing.ItemLine, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, qtyStr, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("invalid item line %q: expected name:quantity", part)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("invalid item line %q: empty item type", part)
		}
		qty, err := strconv.Atoi(strings.TrimSpace(qtyStr))
		if err != nil || qty <= 0 {
			return nil, fmt.Errorf("invalid item line %q: quantity must be a positive integer", part)
		}
		lines = append(lines, pricing.ItemLine{ItemType: name, Quantity: qty})
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("item list is empty")
	}
	return lines, nil
}
