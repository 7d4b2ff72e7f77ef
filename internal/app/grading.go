package app

import (
	"strings"

	"diver-exam-service/internal/domain"
)

// Grade scores the gradable questions of a set against the captured answers.
// Written questions and questions without an answer key never enter the denominator.
func Grade(examID string, questions []domain.Question, answers map[string]string, passingPercentage int) domain.AttemptSummary {
	raw := make(map[string]string, len(answers))
	for id, v := range answers {
		raw[id] = v
	}

	results := make([]domain.QuestionResult, 0, len(questions))
	total, correct := 0, 0
	for _, q := range questions {
		answer, answered := answers[q.ID]
		res := domain.QuestionResult{
			QuestionID:    q.ID,
			Gradable:      q.Gradable(),
			Answer:        answer,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		}
		if res.Gradable {
			total++
			if answered && matchesAnswer(answer, q.CorrectAnswer) {
				res.Correct = true
				correct++
			}
		}
		results = append(results, res)
	}

	percentage := roundPercentage(correct, total)
	return domain.AttemptSummary{
		ExamID:            examID,
		Score:             correct,
		TotalQuestions:    total,
		Percentage:        percentage,
		Passed:            percentage >= passingPercentage,
		PassingPercentage: passingPercentage,
		RawAnswers:        raw,
		Results:           results,
	}
}

func matchesAnswer(answer, key string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(key))
}

// roundPercentage is round-half-up of correct/total*100 in integer arithmetic.
func roundPercentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (correct*200 + total) / (2 * total)
}
