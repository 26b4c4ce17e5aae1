package naming

import "dex-quiz-service/internal/domain"

// Judge compares a raw guess with a canonical name. An input that normalizes
// to nothing yields VerdictCleared rather than a wrong answer.
func Judge(rawGuess, canonical string) domain.Verdict {
	guess := Normalize(rawGuess)
	if guess == "" {
		return domain.VerdictCleared
	}
	if guess == Normalize(canonical) {
		return domain.VerdictCorrect
	}
	for _, v := range Variations(canonical) {
		if Normalize(v) == guess {
			return domain.VerdictCorrect
		}
	}
	return domain.VerdictIncorrect
}

// IsCorrect reports whether rawGuess names canonical.
func IsCorrect(rawGuess, canonical string) bool {
	return Judge(rawGuess, canonical) == domain.VerdictCorrect
}
