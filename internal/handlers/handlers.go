package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/AnshRaj112/canteen-backend/internal/config"
	"github.com/AnshRaj112/canteen-backend/internal/services"
)

var (
	householdService *services.HouseholdService
	recipeGenerator  services.RecipeGenerator
	imageUploader    services.ImageUploader
	logger           = zap.NewNop()
)

// InitHouseholdService wires the household store used by the household, bucket
// and change stream handlers.
func InitHouseholdService(svc *services.HouseholdService) {
	householdService = svc
}

// InitRecipeGenerator wires the AI draft provider. A nil generator leaves
// GenerateRecipe answering 503.
func InitRecipeGenerator(gen services.RecipeGenerator) {
	recipeGenerator = gen
}

func InitImageUploader(u services.ImageUploader) {
	imageUploader = u
}

func InitCloudinaryService(cfg *config.Config) error {
	service, err := services.NewCloudinaryService(
		cfg.CloudinaryName,
		cfg.CloudinaryAPIKey,
		cfg.CloudinaryAPISecret,
	)
	if err != nil {
		return err
	}
	imageUploader = service
	return nil
}

func SetLogger(l *zap.Logger) {
	if l != nil {
		logger = l
	}
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Success: false, Message: message})
}

// writeServiceError maps a household service error onto a status and a message
// that is safe to show the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	writeError(w, status, services.PublicMessage(err))
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrHouseholdNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidToken):
		return http.StatusUnauthorized
	case services.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// clientID is the writer's device id, echoed back in change events so a client
// can skip its own notifications.
func clientID(r *http.Request) string {
	return r.Header.Get("X-Client-ID")
}
