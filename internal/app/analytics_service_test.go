package app

import (
	"context"
	"testing"
)

func TestClassAnalyticsScopesStudents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	algebra := f.publishedQuiz(t, "Equations", "Algebra", 10)
	geometry := f.publishedQuiz(t, "Angles", "Geometry", 10)

	_, _ = f.quizzes.Submit(ctx, f.alice, algebra.ID, answers(10, 9))
	_, _ = f.quizzes.Submit(ctx, f.bob, algebra.ID, answers(10, 7))
	_, _ = f.quizzes.Submit(ctx, f.alice, geometry.ID, answers(10, 3))

	whole, err := f.analytics.ClassAnalytics(ctx, f.teacher, f.class.ID)
	if err != nil {
		t.Fatalf("teacher analytics: %v", err)
	}
	if len(whole.Strongest) != 1 || whole.Strongest[0].Topic != "Algebra" || whole.Strongest[0].Average != 80 || whole.Strongest[0].Count != 2 {
		t.Fatalf("unexpected strongest %+v", whole.Strongest)
	}
	if len(whole.Weakest) != 1 || whole.Weakest[0].Topic != "Geometry" {
		t.Fatalf("unexpected weakest %+v", whole.Weakest)
	}

	bobs, err := f.analytics.ClassAnalytics(ctx, f.bob, f.class.ID)
	if err != nil {
		t.Fatalf("student analytics: %v", err)
	}
	if len(bobs.Strongest) != 0 || len(bobs.Weakest) != 0 || len(bobs.AlmostMastered) != 1 || bobs.AlmostMastered[0].Average != 70 {
		t.Fatalf("unexpected student view %+v", bobs)
	}

	carols, err := f.analytics.ClassAnalytics(ctx, f.carol, f.class.ID)
	if err != nil {
		t.Fatalf("empty analytics: %v", err)
	}
	if carols.Strongest == nil || len(carols.Strongest)+len(carols.Weakest)+len(carols.AlmostMastered) != 0 {
		t.Fatalf("expected empty non-nil tiers, got %+v", carols)
	}
}

func TestAverageGradeAcrossSubmissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.publishedQuiz(t, "One", "Algebra", 4)
	b := f.publishedQuiz(t, "Two", "Algebra", 2)
	_, _ = f.quizzes.Submit(ctx, f.alice, a.ID, answers(4, 2))
	_, _ = f.quizzes.Submit(ctx, f.alice, b.ID, answers(2, 2))

	avg, err := f.analytics.AverageGrade(ctx, f.alice)
	if err != nil {
		t.Fatalf("average: %v", err)
	}
	if avg != 75 {
		t.Fatalf("expected 75, got %v", avg)
	}
	if avg, _ := f.analytics.AverageGrade(ctx, f.carol); avg != 0 {
		t.Fatalf("expected 0 without submissions, got %v", avg)
	}
}
