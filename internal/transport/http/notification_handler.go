package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (h *handler) notifications(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Notifications.List(r.Context(), userFrom(r.Context()))
	h.respond(w, list, err)
}

func (h *handler) markRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Notifications.MarkRead(r.Context(), userFrom(r.Context()), mux.Vars(r)["id"])
	h.respond(w, n, err)
}

func (h *handler) markAllRead(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Notifications.MarkAllRead(r.Context(), userFrom(r.Context())); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "All notifications marked as read")
}

func (h *handler) deleteNotification(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Notifications.Delete(r.Context(), userFrom(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "Notification removed")
}

func (h *handler) deleteRead(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Notifications.DeleteRead(r.Context(), userFrom(r.Context())); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "Read notifications cleared")
}
