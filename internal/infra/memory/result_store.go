package memory

import (
	"context"
	"sync"

	"lessonloop/internal/domain"
)

// ResultStore is an in-memory implementation of app.ResultStore. The
// (quiz, student) uniqueness check and the insert happen under one lock.
type ResultStore struct {
	mu      sync.RWMutex
	results []domain.QuizResult
	byPair  map[string]int
}

func NewResultStore() *ResultStore {
	return &ResultStore{byPair: make(map[string]int)}
}

func pairKey(quizID, studentID string) string {
	return quizID + "\x00" + studentID
}

func (s *ResultStore) CreateResult(_ context.Context, result domain.QuizResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey(result.QuizID, result.StudentID)
	if _, exists := s.byPair[key]; exists {
		return domain.ErrAlreadySubmitted
	}
	s.byPair[key] = len(s.results)
	s.results = append(s.results, cloneResult(result))
	return nil
}

func (s *ResultStore) Exists(_ context.Context, quizID, studentID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byPair[pairKey(quizID, studentID)]
	return ok, nil
}

func (s *ResultStore) GetResult(_ context.Context, resultID string) (domain.QuizResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.results {
		if r.ID == resultID {
			return cloneResult(r), nil
		}
	}
	return domain.QuizResult{}, domain.ErrResultNotFound
}

func (s *ResultStore) FindResult(_ context.Context, quizID, studentID string) (domain.QuizResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byPair[pairKey(quizID, studentID)]
	if !ok {
		return domain.QuizResult{}, domain.ErrResultNotFound
	}
	return cloneResult(s.results[i]), nil
}

func (s *ResultStore) ListForQuizzes(_ context.Context, quizIDs []string) ([]domain.QuizResult, error) {
	set := toSet(quizIDs)
	return s.filter(func(r domain.QuizResult) bool { return set[r.QuizID] }), nil
}

func (s *ResultStore) ListForStudentInQuizzes(_ context.Context, studentID string, quizIDs []string) ([]domain.QuizResult, error) {
	set := toSet(quizIDs)
	return s.filter(func(r domain.QuizResult) bool { return r.StudentID == studentID && set[r.QuizID] }), nil
}

func (s *ResultStore) ListForStudent(_ context.Context, studentID string) ([]domain.QuizResult, error) {
	return s.filter(func(r domain.QuizResult) bool { return r.StudentID == studentID }), nil
}

func (s *ResultStore) DeleteForQuiz(_ context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.results[:0]
	for _, r := range s.results {
		if r.QuizID != quizID {
			kept = append(kept, r)
		}
	}
	s.results = kept
	s.byPair = make(map[string]int, len(kept))
	for i, r := range kept {
		s.byPair[pairKey(r.QuizID, r.StudentID)] = i
	}
	return nil
}

func (s *ResultStore) filter(keep func(domain.QuizResult) bool) []domain.QuizResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.QuizResult, 0)
	for _, r := range s.results {
		if keep(r) {
			out = append(out, cloneResult(r))
		}
	}
	return out
}

func cloneResult(r domain.QuizResult) domain.QuizResult {
	r.Answers = append([]domain.Answer{}, r.Answers...)
	return r
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
