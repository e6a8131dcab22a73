package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"lessonloop/internal/domain"
)

type attendanceRequest struct {
	Date    string                    `json:"date" validate:"required"`
	Records []domain.AttendanceRecord `json:"records" validate:"required,dive"`
}

func (h *handler) takeAttendance(w http.ResponseWriter, r *http.Request) {
	var in attendanceRequest
	if !h.bind(w, r, &in) {
		return
	}
	att, err := h.svc.Attendance.Take(r.Context(), userFrom(r.Context()), mux.Vars(r)["classId"], in.Date, in.Records)
	h.respond(w, att, err)
}

func (h *handler) getAttendance(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sheet, err := h.svc.Attendance.Get(r.Context(), userFrom(r.Context()), vars["classId"], vars["date"])
	h.respond(w, sheet, err)
}
