package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/coldchain/loadplan/internal/db"
	"github.com/coldchain/loadplan/internal/planner"
)

// SettingsService manages depot policy overrides and system-wide settings.
type SettingsService struct {
	queries      *db.Queries
	auditService *AuditService
}

// NewSettingsService creates a new settings service.
func NewSettingsService(queries *db.Queries, auditService *AuditService) *SettingsService {
	return &SettingsService{queries: queries, auditService: auditService}
}

// GetDepotSettings retrieves a depot's policy overrides, returning an empty
// record (all fields unset) if the depot has never customized its policy.
func (s *SettingsService) GetDepotSettings(ctx context.Context, depotID string) (*db.DepotSettings, error) {
	settings, err := s.queries.GetDepotSettings(ctx, depotID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		settings = &db.DepotSettings{DepotID: depotID}
	}
	return settings, nil
}

// UpdateDepotSettings updates a depot's policy overrides and logs the change.
func (s *SettingsService) UpdateDepotSettings(ctx context.Context, depotID string, params db.UpsertDepotSettingsParams, modifiedBy string) error {
	params.DepotID = depotID
	if err := s.queries.UpsertDepotSettings(ctx, params); err != nil {
		return err
	}
	return s.auditService.Log(ctx, AuditParams{
		DepotID:    depotID,
		EntityType: "depot_settings",
		EntityID:   depotID,
		Operation:  "update",
		UserID:     modifiedBy,
		Metadata:   map[string]interface{}{"settings_updated": true},
	})
}

// ResolvePolicy layers a depot's overrides onto the system-wide default
// policy, so per-run planning always has a complete Policy even when a
// depot has never customized anything.
func (s *SettingsService) ResolvePolicy(ctx context.Context, depotID string, base planner.Policy) (planner.Policy, error) {
	settings, err := s.GetDepotSettings(ctx, depotID)
	if err != nil {
		return planner.Policy{}, err
	}
	pol := base
	if settings.AlphaThreshold.Valid {
		pol.AlphaThreshold = settings.AlphaThreshold.Float64
	}
	if settings.AllowOpenNewReeferA.Valid {
		pol.AllowOpenNewReeferA = settings.AllowOpenNewReeferA.Bool
	}
	if settings.AllowColdInDryB.Valid {
		pol.AllowColdInDryB = settings.AllowColdInDryB.Bool
	}
	if settings.AllowOpenNewDryC.Valid {
		pol.AllowOpenNewDryC = settings.AllowOpenNewDryC.Bool
	}
	if settings.PerTruckCoolerM3.Valid {
		pol.PerTruckCoolerM3 = settings.PerTruckCoolerM3.Float64
	}
	if settings.DepartureStrategy.Valid {
		pol.DepartureStrategy = settings.DepartureStrategy.String
	}
	return pol, nil
}

// GetSystemSettings retrieves all system-wide settings.
func (s *SettingsService) GetSystemSettings(ctx context.Context) ([]db.SystemSetting, error) {
	return s.queries.GetSystemSettings(ctx)
}

// UpdateSystemSettings updates multiple system settings (admin only).
func (s *SettingsService) UpdateSystemSettings(ctx context.Context, updates map[string]string, modifiedBy string) error {
	for key, value := range updates {
		if err := s.queries.UpdateSystemSetting(ctx, db.UpdateSystemSettingParams{
			SettingKey:     key,
			SettingValue:   value,
			LastModifiedBy: modifiedBy,
		}); err != nil {
			return fmt.Errorf("failed to update setting %s: %w", key, err)
		}
	}

	return s.auditService.Log(ctx, AuditParams{
		EntityType: "system_settings",
		Operation:  "bulk_update",
		UserID:     modifiedBy,
		Metadata: map[string]interface{}{
			"settings_count": len(updates),
			"settings_keys":  getKeys(updates),
		},
	})
}

func getKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// ParseSettingValue parses a system setting value based on its type.
func ParseSettingValue(setting db.SystemSetting) (interface{}, error) {
	switch setting.SettingType {
	case "string":
		return setting.SettingValue, nil
	case "integer":
		return strconv.ParseInt(setting.SettingValue, 10, 64)
	case "float":
		return strconv.ParseFloat(setting.SettingValue, 64)
	case "boolean":
		return strconv.ParseBool(setting.SettingValue)
	case "json":
		var result interface{}
		if err := json.Unmarshal([]byte(setting.SettingValue), &result); err != nil {
			return nil, err
		}
		return result, nil
	default:
		return nil, fmt.Errorf("unknown setting type: %s", setting.SettingType)
	}
}
