package validation

import (
	"strings"
	"testing"

	"lessonloop/internal/domain"
)

type signup struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	v := New()

	err := v.Struct(signup{Email: "not-an-email"})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if domain.KindOf(err) != domain.KindInvalid {
		t.Fatalf("expected invalid kind, got %v", domain.KindOf(err))
	}
	msg := err.Error()
	if !strings.Contains(msg, "name is required") {
		t.Fatalf("expected name message, got %q", msg)
	}
	if !strings.Contains(msg, "email") {
		t.Fatalf("expected email message, got %q", msg)
	}

	if err := v.Struct(signup{Name: "Ada", Email: "ada@example.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGeneratedQuestionSchema(t *testing.T) {
	v := New()
	three := 3
	five := 5

	ok := domain.GeneratedQuestion{
		Text:          "2 + 2?",
		Options:       []domain.Option{{Text: "1"}, {Text: "2"}, {Text: "3"}, {Text: "4"}},
		CorrectAnswer: &three,
		Explanation:   "arithmetic",
	}
	if err := v.Generated(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := ok
	bad.Options = bad.Options[:3]
	bad.CorrectAnswer = &five
	err := v.Generated(bad)
	if err == nil {
		t.Fatalf("expected schema error")
	}
	if domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("expected validation kind, got %v", domain.KindOf(err))
	}
	if !strings.Contains(err.Error(), "options") || !strings.Contains(err.Error(), "correctAnswer") {
		t.Fatalf("expected options and correctAnswer in message, got %q", err.Error())
	}

	missing := ok
	missing.CorrectAnswer = nil
	if err := v.Generated(missing); err == nil {
		t.Fatalf("expected missing correctAnswer to fail")
	}
}
