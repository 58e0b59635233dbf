package catalog

import "github.com/hammamikhairi/hotpot/internal/domain"

// Defaults returns the built-in ingredient list used on first run.
func Defaults() []domain.Ingredient {
	return []domain.Ingredient{
		{ID: "beef-slices", Name: "Beef Slices", Emoji: "🥩", Seconds: 15, Category: domain.CategoryMeat},
		{ID: "lamb-rolls", Name: "Lamb Rolls", Emoji: "🥓", Seconds: 20, Category: domain.CategoryMeat},
		{ID: "tripe", Name: "Tripe", Emoji: "🥘", Seconds: 10, Category: domain.CategoryMeat},
		{ID: "beef-balls", Name: "Beef Balls", Emoji: "🍡", Seconds: 300, Category: domain.CategoryMeat},
		{ID: "shrimp-paste", Name: "Shrimp Paste", Emoji: "🦐", Seconds: 180, Category: domain.CategorySeafood},
		{ID: "fish-slices", Name: "Fish Slices", Emoji: "🐟", Seconds: 60, Category: domain.CategorySeafood},
		{ID: "spinach", Name: "Spinach", Emoji: "🥬", Seconds: 45, Category: domain.CategoryVegetable},
		{ID: "potato-slices", Name: "Potato Slices", Emoji: "🥔", Seconds: 240, Category: domain.CategoryVegetable},
		{ID: "lotus-root", Name: "Lotus Root", Emoji: "🥯", Seconds: 180, Category: domain.CategoryVegetable},
		{ID: "noodles", Name: "Noodles", Emoji: "🍜", Seconds: 240, Category: domain.CategoryNoodle},
		{ID: "tofu-skin", Name: "Tofu Skin", Emoji: "🫔", Seconds: 90, Category: domain.CategoryOther},
		{ID: "duck-blood", Name: "Duck Blood", Emoji: "🧊", Seconds: 300, Category: domain.CategoryMeat},
		{ID: "quail-eggs", Name: "Quail Eggs", Emoji: "🥚", Seconds: 120, Category: domain.CategoryOther},
	}
}
