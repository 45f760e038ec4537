package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/pocketpet/api/internal/middleware"
	"github.com/pocketpet/api/internal/models"
	"github.com/pocketpet/api/internal/service"
)

// LeaderboardService returns the top pets and a single pet's standing
type LeaderboardService interface {
	Leaderboard(ctx context.Context, limit int64) ([]models.LeaderboardEntry, error)
	Standing(ctx context.Context, userID int64) (*service.Standing, error)
}

// StandingResponse is the caller's rank plus their pet
type StandingResponse struct {
	Rank int64       `json:"rank"`
	Pet  *models.Pet `json:"pet"`
}

type LeaderboardHandler struct {
	board LeaderboardService
}

func NewLeaderboardHandler(board LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{board: board}
}

// GetLeaderboard returns the top pets. ?limit= defaults to 10.
func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	var limit int64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			middleware.WriteError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := h.board.Leaderboard(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
	})
}

// GetMyStanding returns the authenticated user's rank
func (h *LeaderboardHandler) GetMyStanding(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}

	standing, err := h.board.Standing(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, StandingResponse{Rank: standing.Rank, Pet: standing.Pet})
}
