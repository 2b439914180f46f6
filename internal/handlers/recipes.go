package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/AnshRaj112/canteen-backend/internal/models"
	"github.com/AnshRaj112/canteen-backend/internal/services"
	"github.com/AnshRaj112/canteen-backend/pkg/utils"
)

// GenerateRecipe asks the AI provider for a recipe draft. Failures are not
// retried here; the client shows them and lets the user try again.
func GenerateRecipe(w http.ResponseWriter, r *http.Request) {
	if recipeGenerator == nil {
		writeError(w, http.StatusServiceUnavailable, "Recipe generation is not configured")
		return
	}

	var req models.GenerateRecipeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 8<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	idea, err := utils.ValidateIdea(req.Idea)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	draft, err := recipeGenerator.Generate(r.Context(), idea)
	if err != nil {
		if errors.Is(err, services.ErrGeneratorUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "Recipe generation is not configured")
			return
		}
		logger.Warn("recipe generation failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "Failed to generate recipe, please try again")
		return
	}

	writeJSON(w, http.StatusOK, models.GenerateRecipeResponse{Success: true, Draft: draft})
}
