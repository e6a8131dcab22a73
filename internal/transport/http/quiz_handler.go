package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"lessonloop/internal/app"
	"lessonloop/internal/domain"
)

type createQuizRequest struct {
	ClassID string `json:"classId" validate:"required"`
	app.QuizInput
}

type submitRequest struct {
	Answers []domain.Answer `json:"answers" validate:"required"`
}

type generatedQuestions struct {
	Questions []domain.GeneratedQuestion `json:"questions"`
}

func (h *handler) createQuiz(w http.ResponseWriter, r *http.Request) {
	var in createQuizRequest
	if !h.bind(w, r, &in) {
		return
	}
	quiz, err := h.svc.Quizzes.Create(r.Context(), userFrom(r.Context()), in.ClassID, in.QuizInput)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (h *handler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.svc.Quizzes.List(r.Context(), userFrom(r.Context()), mux.Vars(r)["classId"])
	h.respond(w, quizzes, err)
}

func (h *handler) getQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.svc.Quizzes.Get(r.Context(), userFrom(r.Context()), mux.Vars(r)["id"])
	h.respond(w, quiz, err)
}

func (h *handler) updateQuiz(w http.ResponseWriter, r *http.Request) {
	var in app.QuizUpdate
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	quiz, err := h.svc.Quizzes.Update(r.Context(), userFrom(r.Context()), mux.Vars(r)["id"], in)
	h.respond(w, quiz, err)
}

func (h *handler) deleteQuiz(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Quizzes.Delete(r.Context(), userFrom(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "Quiz removed")
}

func (h *handler) publishQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.svc.Quizzes.Publish(r.Context(), userFrom(r.Context()), mux.Vars(r)["id"])
	h.respond(w, quiz, err)
}

func (h *handler) submitQuiz(w http.ResponseWriter, r *http.Request) {
	var in submitRequest
	if !h.bind(w, r, &in) {
		return
	}
	receipt, err := h.svc.Quizzes.Submit(r.Context(), userFrom(r.Context()), mux.Vars(r)["id"], in.Answers)
	h.respond(w, receipt, err)
}

func (h *handler) quizResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.svc.Quizzes.Results(r.Context(), userFrom(r.Context()), mux.Vars(r)["quizId"])
	h.respond(w, results, err)
}

func (h *handler) myQuizResult(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Quizzes.MyResult(r.Context(), userFrom(r.Context()), mux.Vars(r)["quizId"])
	h.respond(w, result, err)
}

func (h *handler) attempt(w http.ResponseWriter, r *http.Request) {
	attempt, err := h.svc.Quizzes.Attempt(r.Context(), userFrom(r.Context()), mux.Vars(r)["attemptId"])
	if err == nil && attempt.Quiz.ID != mux.Vars(r)["quizId"] {
		err = domain.ErrResultNotFound
	}
	h.respond(w, attempt, err)
}

func (h *handler) myResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.svc.Quizzes.MyResults(r.Context(), userFrom(r.Context()), mux.Vars(r)["classId"])
	h.respond(w, results, err)
}

func (h *handler) generateQuestions(w http.ResponseWriter, r *http.Request) {
	var in domain.GenerateRequest
	if !h.bind(w, r, &in) {
		return
	}
	questions, err := h.svc.Quizzes.Generate(r.Context(), userFrom(r.Context()), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, generatedQuestions{Questions: questions})
}
