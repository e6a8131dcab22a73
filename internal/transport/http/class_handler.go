package http

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"lessonloop/internal/analytics"
)

type classNameRequest struct {
	Name string `json:"name" validate:"required"`
}

type joinRequest struct {
	InviteCode string `json:"inviteCode" validate:"required"`
}

func (h *handler) createClass(w http.ResponseWriter, r *http.Request) {
	var in classNameRequest
	if !h.bind(w, r, &in) {
		return
	}
	class, err := h.svc.Classes.Create(r.Context(), userFrom(r.Context()), in.Name)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, class)
}

func (h *handler) listClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := h.svc.Classes.List(r.Context(), userFrom(r.Context()))
	h.respond(w, classes, err)
}

func (h *handler) getClass(w http.ResponseWriter, r *http.Request) {
	details, err := h.svc.Classes.Get(r.Context(), userFrom(r.Context()), mux.Vars(r)["id"])
	h.respond(w, details, err)
}

func (h *handler) renameClass(w http.ResponseWriter, r *http.Request) {
	var in classNameRequest
	if !h.bind(w, r, &in) {
		return
	}
	class, err := h.svc.Classes.Rename(r.Context(), userFrom(r.Context()), mux.Vars(r)["id"], in.Name)
	h.respond(w, class, err)
}

func (h *handler) joinClass(w http.ResponseWriter, r *http.Request) {
	var in joinRequest
	if !h.bind(w, r, &in) {
		return
	}
	class, err := h.svc.Classes.Join(r.Context(), userFrom(r.Context()), in.InviteCode)
	h.respond(w, class, err)
}

func (h *handler) gradebook(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.Classes.Gradebook(r.Context(), userFrom(r.Context()), mux.Vars(r)["id"])
	h.respond(w, rows, err)
}

func (h *handler) myGrades(w http.ResponseWriter, r *http.Request) {
	grades, err := h.svc.Classes.MyGrades(r.Context(), userFrom(r.Context()), mux.Vars(r)["id"])
	h.respond(w, grades, err)
}

func (h *handler) exportClass(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Classes.Export(r.Context(), userFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", analytics.ReportFilename(report.Class.Name)))
	if err := analytics.WriteReport(w, report); err != nil {
		h.logger.Errorf("export class %s: %v", report.Class.ID, err)
	}
}

// bind decodes and validates the body, writing the error response itself.
func (h *handler) bind(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := decodeJSON(r, dst); err != nil {
		writeError(w, h.logger, err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, h.logger, err)
		return false
	}
	return true
}

func (h *handler) respond(w http.ResponseWriter, v interface{}, err error) {
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
