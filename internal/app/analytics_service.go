package app

import (
	"context"

	"lessonloop/internal/analytics"
	"lessonloop/internal/domain"
)

// AnalyticsService answers the topic mastery and average grade queries.
type AnalyticsService struct {
	classes ClassStore
	catalog QuizCatalog
	results ResultStore
}

func NewAnalyticsService(stores Stores) *AnalyticsService {
	return &AnalyticsService{classes: stores.Classes, catalog: stores.Catalog, results: stores.Results}
}

// ClassAnalytics classifies a class's topics. Teachers see the whole class,
// students only their own results.
func (s *AnalyticsService) ClassAnalytics(ctx context.Context, requester domain.User, classID string) (analytics.Mastery, error) {
	class, err := memberClass(ctx, s.classes, requester, classID)
	if err != nil {
		return analytics.Mastery{}, err
	}
	quizzes, err := s.catalog.QuizzesForClass(ctx, class.ID)
	if err != nil {
		return analytics.Mastery{}, err
	}

	var results []domain.QuizResult
	if class.IsTeacher(requester.ID) {
		results, err = s.results.ListForQuizzes(ctx, quizIDs(quizzes))
	} else {
		results, err = s.results.ListForStudentInQuizzes(ctx, requester.ID, quizIDs(quizzes))
	}
	if err != nil {
		return analytics.Mastery{}, err
	}
	return analytics.Analyze(quizzes, results), nil
}

// AverageGrade is the mean percentage over every submission of the requester.
func (s *AnalyticsService) AverageGrade(ctx context.Context, requester domain.User) (float64, error) {
	results, err := s.results.ListForStudent(ctx, requester.ID)
	if err != nil {
		return 0, err
	}
	return analytics.AverageGrade(results), nil
}
