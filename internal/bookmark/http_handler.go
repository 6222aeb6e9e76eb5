package bookmark

import (
	"net/http"
	"strings"

	"booklibrary/internal/apperr"
	"booklibrary/internal/httpx"
	"booklibrary/internal/validation"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type toggleReq struct {
	BookID string `json:"bookId" validate:"required"`
}

// List handles GET /auth/user/bookmarks and POST /auth/user/bookmarks/get
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.WriteError(w, r, apperr.Unauthorized("Unauthorized"))
		return
	}

	view, err := h.service.GetBookmarks(r.Context(), userID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, "Bookmarks fetched successfully", view, map[string]any{"count": len(view.Bookmarks)})
}

// Toggle handles POST /auth/user/bookmarks and POST /auth/user/bookmarks/add
func (h *HTTPHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.WriteError(w, r, apperr.Unauthorized("Unauthorized"))
		return
	}

	var req toggleReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	req.BookID = strings.TrimSpace(req.BookID)
	if err := validation.Validate(req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	res, err := h.service.Toggle(r.Context(), userID, req.BookID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	msg := "Book added to bookmarks"
	if res.Action == ActionRemoved {
		msg = "Book removed from bookmarks"
	}
	httpx.JSONSuccess(w, r, msg, res, nil)
}
