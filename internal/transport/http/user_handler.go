package http

import (
	"net/http"

	"lessonloop/internal/app"
	"lessonloop/internal/domain"
)

type registerResponse struct {
	Message string      `json:"message"`
	User    domain.User `json:"user"`
}

func (h *handler) registerProfile(w http.ResponseWriter, r *http.Request) {
	var in app.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.validate.Struct(in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	user, err := h.svc.Users.RegisterProfile(r.Context(), identityFrom(r.Context()), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{Message: "User profile created successfully", User: user})
}

func (h *handler) profile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userFrom(r.Context()))
}
