package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/AnshRaj112/canteen-backend/internal/services"
)

type UploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
}

// UploadFile stores a recipe, step or avatar image and returns its URL.
func UploadFile(w http.ResponseWriter, r *http.Request) {
	if imageUploader == nil {
		writeError(w, http.StatusServiceUnavailable, "Image upload is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, services.MaxImageSize+(1<<20))
	if err := r.ParseMultipartForm(services.MaxImageSize); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse form: "+err.Error())
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	folder := r.URL.Query().Get("folder")
	if folder == "" {
		folder = "canteen"
	}

	url, err := imageUploader.UploadImage(r.Context(), fileHeader, folder)
	if err != nil {
		if errors.Is(err, services.ErrInvalidUpload) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error("image upload failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		Success: true,
		Message: "File uploaded successfully",
		URL:     url,
	})
}
