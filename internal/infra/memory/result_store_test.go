package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"lessonloop/internal/domain"
)

func TestResultStoreAcceptsOneResultPerStudent(t *testing.T) {
	store := NewResultStore()
	ctx := context.Background()

	var accepted, rejected int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := store.CreateResult(ctx, domain.QuizResult{ID: string(rune('a' + i)), QuizID: "q1", StudentID: "s1", Score: i})
			switch {
			case err == nil:
				atomic.AddInt32(&accepted, 1)
			case errors.Is(err, domain.ErrAlreadySubmitted):
				atomic.AddInt32(&rejected, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if accepted != 1 || rejected != 15 {
		t.Fatalf("expected 1 accepted and 15 rejected, got %d and %d", accepted, rejected)
	}
	results, _ := store.ListForQuizzes(ctx, []string{"q1"})
	if len(results) != 1 {
		t.Fatalf("expected one stored result, got %d", len(results))
	}
}

func TestResultStoreQueries(t *testing.T) {
	store := NewResultStore()
	ctx := context.Background()
	_ = store.CreateResult(ctx, domain.QuizResult{ID: "r1", QuizID: "q1", StudentID: "s1"})
	_ = store.CreateResult(ctx, domain.QuizResult{ID: "r2", QuizID: "q2", StudentID: "s1"})
	_ = store.CreateResult(ctx, domain.QuizResult{ID: "r3", QuizID: "q1", StudentID: "s2"})

	mine, _ := store.ListForStudentInQuizzes(ctx, "s1", []string{"q1"})
	if len(mine) != 1 || mine[0].ID != "r1" {
		t.Fatalf("unexpected scoped results %+v", mine)
	}
	all, _ := store.ListForStudent(ctx, "s1")
	if len(all) != 2 {
		t.Fatalf("expected 2 results for s1, got %d", len(all))
	}

	if err := store.DeleteForQuiz(ctx, "q1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok, _ := store.Exists(ctx, "q1", "s2"); ok {
		t.Fatalf("expected q1 results removed")
	}
	r, err := store.FindResult(ctx, "q2", "s1")
	if err != nil || r.ID != "r2" {
		t.Fatalf("expected r2 to survive, got %+v, %v", r, err)
	}
	if _, err := store.GetResult(ctx, "r1"); !errors.Is(err, domain.ErrResultNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
