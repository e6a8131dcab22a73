package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"lessonloop/internal/app"
)

type createPollRequest struct {
	ClassID string `json:"classId" validate:"required"`
	app.PollInput
}

type voteRequest struct {
	PollID      string `json:"pollId" validate:"required"`
	OptionIndex *int   `json:"optionIndex" validate:"required"`
}

func (h *handler) createPoll(w http.ResponseWriter, r *http.Request) {
	var in createPollRequest
	if !h.bind(w, r, &in) {
		return
	}
	poll, err := h.svc.Polls.Create(r.Context(), userFrom(r.Context()), in.ClassID, in.PollInput)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, poll)
}

func (h *handler) vote(w http.ResponseWriter, r *http.Request) {
	var in voteRequest
	if !h.bind(w, r, &in) {
		return
	}
	poll, err := h.svc.Polls.Vote(r.Context(), userFrom(r.Context()), in.PollID, *in.OptionIndex)
	h.respond(w, poll, err)
}

func (h *handler) endPoll(w http.ResponseWriter, r *http.Request) {
	poll, err := h.svc.Polls.End(r.Context(), userFrom(r.Context()), mux.Vars(r)["pollId"])
	h.respond(w, poll, err)
}

// activePoll answers JSON null when the class has no running poll.
func (h *handler) activePoll(w http.ResponseWriter, r *http.Request) {
	poll, err := h.svc.Polls.Active(r.Context(), userFrom(r.Context()), mux.Vars(r)["classId"])
	h.respond(w, poll, err)
}
