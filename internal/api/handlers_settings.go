package api

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/coldchain/loadplan/internal/db"
	"github.com/coldchain/loadplan/internal/services"
)

// DepotSettingsResponse represents the API response for a depot's policy
// overrides.
type DepotSettingsResponse struct {
	DepotID             string   `json:"depotId"`
	AlphaThreshold      *float64 `json:"alphaThreshold,omitempty"`
	AllowOpenNewReeferA *bool    `json:"allowOpenNewReeferA,omitempty"`
	AllowColdInDryB     *bool    `json:"allowColdInDryB,omitempty"`
	AllowOpenNewDryC    *bool    `json:"allowOpenNewDryC,omitempty"`
	PerTruckCoolerM3    *float64 `json:"perTruckCoolerM3,omitempty"`
	DepartureStrategy   string   `json:"departureStrategy,omitempty"`
}

// handleGetDepotSettings retrieves a depot's policy overrides.
func (s *Server) handleGetDepotSettings(w http.ResponseWriter, r *http.Request) {
	depotID := mux.Vars(r)["depotId"]

	settings, err := s.settingsService.GetDepotSettings(r.Context(), depotID)
	if err != nil {
		log.Printf("ERROR: Failed to retrieve depot settings for %s: %v", depotID, err)
		http.Error(w, "Failed to retrieve depot settings", http.StatusInternalServerError)
		return
	}

	response := DepotSettingsResponse{DepotID: depotID}
	if settings.AlphaThreshold.Valid {
		response.AlphaThreshold = &settings.AlphaThreshold.Float64
	}
	if settings.AllowOpenNewReeferA.Valid {
		response.AllowOpenNewReeferA = &settings.AllowOpenNewReeferA.Bool
	}
	if settings.AllowColdInDryB.Valid {
		response.AllowColdInDryB = &settings.AllowColdInDryB.Bool
	}
	if settings.AllowOpenNewDryC.Valid {
		response.AllowOpenNewDryC = &settings.AllowOpenNewDryC.Bool
	}
	if settings.PerTruckCoolerM3.Valid {
		response.PerTruckCoolerM3 = &settings.PerTruckCoolerM3.Float64
	}
	response.DepartureStrategy = settings.DepartureStrategy.String

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// UpdateDepotSettingsRequest represents the request body for updating a
// depot's policy overrides. A nil field leaves the existing override (or
// the system default) untouched.
type UpdateDepotSettingsRequest struct {
	AlphaThreshold      *float64 `json:"alphaThreshold"`
	AllowOpenNewReeferA *bool    `json:"allowOpenNewReeferA"`
	AllowColdInDryB     *bool    `json:"allowColdInDryB"`
	AllowOpenNewDryC    *bool    `json:"allowOpenNewDryC"`
	PerTruckCoolerM3    *float64 `json:"perTruckCoolerM3"`
	DepartureStrategy   string   `json:"departureStrategy,omitempty"`
}

// handleUpdateDepotSettings applies policy overrides for a depot.
func (s *Server) handleUpdateDepotSettings(w http.ResponseWriter, r *http.Request) {
	depotID := mux.Vars(r)["depotId"]

	userID, err := s.getUserIDFromSession(r)
	if err != nil {
		http.Error(w, "Failed to get user ID", http.StatusInternalServerError)
		return
	}

	var req UpdateDepotSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	params := db.UpsertDepotSettingsParams{
		AlphaThreshold:      sql.NullFloat64{},
		AllowOpenNewReeferA: sql.NullBool{},
		AllowColdInDryB:     sql.NullBool{},
		AllowOpenNewDryC:    sql.NullBool{},
		PerTruckCoolerM3:    sql.NullFloat64{},
		DepartureStrategy:   sql.NullString{String: req.DepartureStrategy, Valid: req.DepartureStrategy != ""},
	}
	if req.AlphaThreshold != nil {
		params.AlphaThreshold = sql.NullFloat64{Float64: *req.AlphaThreshold, Valid: true}
	}
	if req.AllowOpenNewReeferA != nil {
		params.AllowOpenNewReeferA = sql.NullBool{Bool: *req.AllowOpenNewReeferA, Valid: true}
	}
	if req.AllowColdInDryB != nil {
		params.AllowColdInDryB = sql.NullBool{Bool: *req.AllowColdInDryB, Valid: true}
	}
	if req.AllowOpenNewDryC != nil {
		params.AllowOpenNewDryC = sql.NullBool{Bool: *req.AllowOpenNewDryC, Valid: true}
	}
	if req.PerTruckCoolerM3 != nil {
		params.PerTruckCoolerM3 = sql.NullFloat64{Float64: *req.PerTruckCoolerM3, Valid: true}
	}

	if err := s.settingsService.UpdateDepotSettings(r.Context(), depotID, params, userID); err != nil {
		http.Error(w, "Failed to update depot settings", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"message": "Depot settings updated successfully"})
}

// SystemSettingResponse represents the API response for a system setting.
type SystemSettingResponse struct {
	Key         string      `json:"key"`
	Value       interface{} `json:"value"`
	Type        string      `json:"type"`
	Description string      `json:"description,omitempty"`
	Category    string      `json:"category"`
	Constraints map[string]interface{} `json:"constraints,omitempty"`
}

// SystemSettingsGroupedResponse groups settings by category.
type SystemSettingsGroupedResponse struct {
	Categories map[string][]SystemSettingResponse `json:"categories"`
}

// handleGetSystemSettings retrieves all system settings (admin only).
func (s *Server) handleGetSystemSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.settingsService.GetSystemSettings(r.Context())
	if err != nil {
		log.Printf("ERROR: Failed to retrieve system settings: %v", err)
		http.Error(w, fmt.Sprintf("Failed to retrieve system settings: %v", err), http.StatusInternalServerError)
		return
	}

	grouped := make(map[string][]SystemSettingResponse)
	for _, setting := range settings {
		value, err := services.ParseSettingValue(setting)
		if err != nil {
			log.Printf("ERROR: Failed to parse setting %s: %v", setting.SettingKey, err)
			value = setting.SettingValue
		}

		var constraints map[string]interface{}
		if len(setting.Constraints) > 0 {
			json.Unmarshal(setting.Constraints, &constraints)
		}

		response := SystemSettingResponse{
			Key:         setting.SettingKey,
			Value:       value,
			Type:        setting.SettingType,
			Description: setting.Description.String,
			Category:    setting.Category,
			Constraints: constraints,
		}

		grouped[setting.Category] = append(grouped[setting.Category], response)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SystemSettingsGroupedResponse{Categories: grouped})
}

// UpdateSystemSettingsRequest represents the request body for updating
// system settings.
type UpdateSystemSettingsRequest struct {
	Settings map[string]string `json:"settings"`
}

// handleUpdateSystemSettings updates system settings (admin only).
func (s *Server) handleUpdateSystemSettings(w http.ResponseWriter, r *http.Request) {
	userID, err := s.getUserIDFromSession(r)
	if err != nil {
		http.Error(w, "Failed to get user ID", http.StatusInternalServerError)
		return
	}

	var req UpdateSystemSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if len(req.Settings) == 0 {
		http.Error(w, "No settings provided", http.StatusBadRequest)
		return
	}

	if err := s.settingsService.UpdateSystemSettings(r.Context(), req.Settings, userID); err != nil {
		http.Error(w, "Failed to update system settings", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"message": "System settings updated successfully"})
}
