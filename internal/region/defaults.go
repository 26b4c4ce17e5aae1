package region

import "dex-quiz-service/internal/domain"

// Defaults is the built-in region table.
func Defaults() []domain.Region {
	return []domain.Region{
		{Key: "kanto", Name: "Kanto", Start: 1, End: 151},
		{Key: "johto", Name: "Johto", Start: 152, End: 251},
		{Key: "hoenn", Name: "Hoenn", Start: 252, End: 386},
		{Key: "sinnoh", Name: "Sinnoh", Start: 387, End: 493},
		{Key: "unova", Name: "Unova", Start: 494, End: 649},
		{Key: "kalos", Name: "Kalos", Start: 650, End: 721},
		{Key: "alola", Name: "Alola", Start: 722, End: 809},
		{Key: "galar", Name: "Galar", Start: 810, End: 905},
		{Key: "paldea", Name: "Paldea", Start: 906, End: 1025},
	}
}
