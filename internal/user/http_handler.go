package user

import (
	"net/http"

	"booklibrary/internal/apperr"
	"booklibrary/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// Me handles GET /auth/me
func (h *HTTPHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.WriteError(w, r, apperr.Unauthorized("Unauthorized"))
		return
	}

	u, err := h.service.GetByID(r.Context(), userID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, "User fetched successfully", u, nil)
}
