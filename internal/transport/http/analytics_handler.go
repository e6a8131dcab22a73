package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

type averageGrade struct {
	AverageGrade float64 `json:"averageGrade"`
}

func (h *handler) classAnalytics(w http.ResponseWriter, r *http.Request) {
	mastery, err := h.svc.Analytics.ClassAnalytics(r.Context(), userFrom(r.Context()), mux.Vars(r)["classId"])
	h.respond(w, mastery, err)
}

func (h *handler) averageGrade(w http.ResponseWriter, r *http.Request) {
	avg, err := h.svc.Analytics.AverageGrade(r.Context(), userFrom(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, averageGrade{AverageGrade: avg})
}
