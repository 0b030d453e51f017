package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"chat_practice_service/internal/service"
)

type StudentHandler struct {
	overviews  *service.OverviewService
	characters *service.CharacterService
}

func NewStudentHandler(overviews *service.OverviewService, characters *service.CharacterService) *StudentHandler {
	return &StudentHandler{overviews: overviews, characters: characters}
}

func (h *StudentHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.With(authMiddleware).Group(func(r chi.Router) {
		r.Get("/students/me/overview", h.StudentOverview)
		r.Get("/characters", h.ListCharacters)
	})
}

func (h *StudentHandler) StudentOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.overviews.StudentOverview(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOverviewResponse(overview))
}

func (h *StudentHandler) ListCharacters(w http.ResponseWriter, r *http.Request) {
	language := r.URL.Query().Get("language")

	characters, err := h.characters.ListCharacters(r.Context(), language)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCharacterResponses(characters))
}
