package app

import (
	"fmt"

	"diver-exam-service/internal/domain"
)

// SpacedRepetitionSize is the fixed length of a review set for every exam.
const SpacedRepetitionSize = 15

// ShuffleFunc has the signature of rand.Shuffle so callers can inject a seeded source.
type ShuffleFunc func(n int, swap func(i, j int))

// ResolveQuestions derives the ordered question set of one attempt from a bank.
//
// Full mode returns the bank unchanged. Spaced repetition returns the first
// SpacedRepetitionSize questions when the bank is large enough; a smaller bank
// is padded by cycling through it (copies get "<id>-dup-<round>" ids and their
// 1-based position as sequence) and only that padded set is shuffled.
func ResolveQuestions(bank []domain.Question, mode domain.Mode, shuffle ShuffleFunc) []domain.Question {
	if len(bank) == 0 {
		return []domain.Question{}
	}
	if mode != domain.ModeSpacedRepetition {
		return append([]domain.Question(nil), bank...)
	}
	if len(bank) >= SpacedRepetitionSize {
		return append([]domain.Question(nil), bank[:SpacedRepetitionSize]...)
	}

	set := make([]domain.Question, 0, SpacedRepetitionSize)
	set = append(set, bank...)
	for i := len(bank); i < SpacedRepetitionSize; i++ {
		round := i / len(bank)
		dup := bank[i%len(bank)]
		dup.ID = fmt.Sprintf("%s-dup-%d", dup.ID, round)
		dup.Sequence = i + 1
		if len(dup.Options) > 0 {
			dup.Options = append([]string(nil), dup.Options...)
		}
		set = append(set, dup)
	}
	if shuffle != nil {
		shuffle(len(set), func(i, j int) {
			set[i], set[j] = set[j], set[i]
		})
	}
	return set
}
