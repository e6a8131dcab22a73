// Package analytics turns raw quiz submissions into topic mastery tiers,
// gradebook rows and exportable class reports. Everything here is pure:
// callers resolve classes, rosters, quizzes and results beforehand.
package analytics

import (
	"math"

	"lessonloop/internal/domain"
)

// Percentage normalizes correct/total to 0..100. A zero total yields 0.
func Percentage(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}

// ResultPercentage is Percentage applied to a single submission.
func ResultPercentage(r domain.QuizResult) float64 {
	return Percentage(r.Score, r.TotalQuestions)
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// AverageGrade is the mean of per-submission percentages, 0 without submissions.
func AverageGrade(results []domain.QuizResult) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		sum += ResultPercentage(r)
	}
	return sum / float64(len(results))
}

// quizIndex maps quiz ids to quizzes for the best-effort join.
func quizIndex(quizzes []domain.Quiz) map[string]domain.Quiz {
	idx := make(map[string]domain.Quiz, len(quizzes))
	for _, q := range quizzes {
		idx[q.ID] = q
	}
	return idx
}
