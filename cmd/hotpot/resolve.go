package main

import (
	"strings"

	"github.com/hammamikhairi/hotpot/internal/conversation"
	"github.com/hammamikhairi/hotpot/internal/domain"
	"github.com/hammamikhairi/hotpot/internal/engine"
)

// matchRef reports how well ref names ing: 2 for an exact id or name,
// 1 for a substring of the name, 0 for no match.
func matchRef(ing domain.Ingredient, ref string) int {
	q := strings.ToLower(strings.TrimSpace(ref))
	name := strings.ToLower(ing.Name)
	switch {
	case q == strings.ToLower(ing.ID) || q == name:
		return 2
	case strings.Contains(name, q):
		return 1
	default:
		return 0
	}
}

// findPlate resolves a 1-based position or an ingredient name against
// the plate as displayed. An empty ref picks the first entry.
func findPlate(v engine.View, ref string) (engine.PlateItem, bool) {
	i := resolve(len(v.Plate), ref, func(i int) domain.Ingredient { return v.Plate[i].Ingredient })
	if i < 0 {
		return engine.PlateItem{}, false
	}
	return v.Plate[i], true
}

// findPot is findPlate for the pot. An empty ref picks the first ready
// entry, which sorts first.
func findPot(v engine.View, ref string) (engine.PotItem, bool) {
	i := resolve(len(v.Pot), ref, func(i int) domain.Ingredient { return v.Pot[i].Ingredient })
	if i < 0 {
		return engine.PotItem{}, false
	}
	return v.Pot[i], true
}

func resolve(n int, ref string, at func(int) domain.Ingredient) int {
	if n == 0 {
		return -1
	}
	if strings.TrimSpace(ref) == "" {
		return 0
	}
	if pos, ok := conversation.ParsePosition(ref); ok {
		if pos > n {
			return -1
		}
		return pos - 1
	}

	best, bestScore := -1, 0
	for i := 0; i < n; i++ {
		if s := matchRef(at(i), ref); s > bestScore {
			best, bestScore = i, s
		}
	}
	return best
}
