package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/canteen-backend/internal/models"
	"github.com/AnshRaj112/canteen-backend/internal/services"
)

const maxHouseholdBody = 4 << 10

// CreateHousehold creates a household and returns it with a membership token.
func CreateHousehold(w http.ResponseWriter, r *http.Request) {
	var req models.CreateHouseholdRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxHouseholdBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	h, token, err := householdService.Create(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.HouseholdResponse{
		Success:   true,
		Message:   "Household created",
		Household: h,
		Token:     token,
	})
}

// JoinHousehold resolves an invite code to its household.
func JoinHousehold(w http.ResponseWriter, r *http.Request) {
	var req models.JoinHouseholdRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxHouseholdBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	h, token, err := householdService.Join(r.Context(), req.Code)
	if errors.Is(err, services.ErrHouseholdNotFound) {
		writeError(w, http.StatusNotFound, "code not found")
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.HouseholdResponse{
		Success:   true,
		Household: h,
		Token:     token,
	})
}

func GetHousehold(w http.ResponseWriter, r *http.Request) {
	h, err := householdService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.HouseholdResponse{Success: true, Household: h})
}

// RenameHousehold renames the household and notifies every member.
func RenameHousehold(w http.ResponseWriter, r *http.Request) {
	var req models.RenameHouseholdRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxHouseholdBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	h, err := householdService.Rename(r.Context(), chi.URLParam(r, "id"), req.Name, clientID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.HouseholdResponse{
		Success:   true,
		Message:   "Household renamed",
		Household: h,
	})
}
