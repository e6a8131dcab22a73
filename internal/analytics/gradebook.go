package analytics

import "lessonloop/internal/domain"

// GradebookRow is one roster member's overall standing in a class.
type GradebookRow struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	AverageScore float64 `json:"averageScore"`
}

// BuildGradebook returns one row per roster member, in roster order. The
// average is total points scored over total points possible across every
// result of that student, rounded to two decimals; 0 without submissions.
func BuildGradebook(roster []domain.User, results []domain.QuizResult) []GradebookRow {
	totals := pointTotals(results)
	rows := make([]GradebookRow, 0, len(roster))
	for _, student := range roster {
		t := totals[student.ID]
		rows = append(rows, GradebookRow{
			ID:           student.ID,
			Name:         student.Name,
			Email:        student.Email,
			AverageScore: Round2(Percentage(t.scored, t.possible)),
		})
	}
	return rows
}

type points struct {
	scored   int
	possible int
}

func pointTotals(results []domain.QuizResult) map[string]points {
	totals := make(map[string]points)
	for _, r := range results {
		t := totals[r.StudentID]
		t.scored += r.Score
		t.possible += r.TotalQuestions
		totals[r.StudentID] = t
	}
	return totals
}

// Grade is a student's percentage on one quiz.
type Grade struct {
	QuizID    string  `json:"quizId"`
	QuizTitle string  `json:"quizTitle"`
	Score     float64 `json:"score"`
	IsLate    bool    `json:"isLate"`
}

// StudentGrades lists a student's own results joined with their quiz titles.
// Results without a resolvable quiz are dropped.
func StudentGrades(quizzes []domain.Quiz, results []domain.QuizResult) []Grade {
	idx := quizIndex(quizzes)
	grades := make([]Grade, 0, len(results))
	for _, r := range results {
		quiz, ok := idx[r.QuizID]
		if !ok {
			continue
		}
		grades = append(grades, Grade{
			QuizID:    r.QuizID,
			QuizTitle: quiz.Title,
			Score:     ResultPercentage(r),
			IsLate:    r.IsLate,
		})
	}
	return grades
}
