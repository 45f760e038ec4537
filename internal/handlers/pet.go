package handlers

import (
	"context"
	"net/http"

	"github.com/pocketpet/api/internal/models"
	"github.com/pocketpet/api/internal/service"
)

// PetService is what the pet handlers need from the pet service
type PetService interface {
	GetPet(ctx context.Context, userID int64) (*models.Pet, error)
	CreatePet(ctx context.Context, userID int64, name, petType string) (*models.Pet, error)
	Interact(ctx context.Context, userID int64, action string) (*service.InteractResult, error)
}

type PetHandler struct {
	pets PetService
}

func NewPetHandler(pets PetService) *PetHandler {
	return &PetHandler{pets: pets}
}

// CreatePetRequest represents the request body for adopting a pet
type CreatePetRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// InteractRequest represents the request body for an interaction
type InteractRequest struct {
	Action string `json:"action"`
}

// InteractResponse is the updated pet plus whether it leveled up
type InteractResponse struct {
	*models.Pet
	LeveledUp bool `json:"leveled_up"`
}

// GetPet returns the authenticated user's pet
func (h *PetHandler) GetPet(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}

	pet, err := h.pets.GetPet(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, pet)
}

// CreatePet adopts a pet for the authenticated user. Owning a pet already is
// reported as a 400.
func (h *PetHandler) CreatePet(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req CreatePetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	pet, err := h.pets.CreatePet(r.Context(), userID, req.Name, req.Type)
	if err != nil {
		writeServiceError(w, err, statusOverrides{service.KindConflict: http.StatusBadRequest})
		return
	}
	writeJSON(w, http.StatusCreated, pet)
}

// Interact applies feed, play or clean to the authenticated user's pet
func (h *PetHandler) Interact(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req InteractRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.pets.Interact(r.Context(), userID, req.Action)
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, InteractResponse{Pet: res.Pet, LeveledUp: res.LeveledUp})
}
