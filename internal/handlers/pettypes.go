package handlers

import (
	"net/http"

	"github.com/pocketpet/api/internal/models"
)

// GetPetTypes returns the adoptable pet types
func GetPetTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"types": models.GetAllPetTypes(),
	})
}
