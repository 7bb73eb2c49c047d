package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// DepotSettings holds a depot's policy overrides layered on top of the
// global defaults in Config (spec §6 policy knobs).
type DepotSettings struct {
	DepotID             string
	AlphaThreshold       sql.NullFloat64
	AllowOpenNewReeferA  sql.NullBool
	AllowColdInDryB      sql.NullBool
	AllowOpenNewDryC     sql.NullBool
	PerTruckCoolerM3     sql.NullFloat64
	DepartureStrategy    sql.NullString
	SchemeOverrides      json.RawMessage
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// SystemSetting represents a system-wide configuration setting.
type SystemSetting struct {
	ID             int32
	SettingKey     string
	SettingValue   string
	SettingType    string
	Description    sql.NullString
	Category       string
	Constraints    json.RawMessage
	LastModifiedBy sql.NullString
	LastModifiedAt time.Time
	CreatedAt      time.Time
}

// GetDepotSettings retrieves a depot's policy overrides.
func (q *Queries) GetDepotSettings(ctx context.Context, depotID string) (*DepotSettings, error) {
	query := `
		SELECT depot_id, alpha_threshold, allow_open_new_reefer_a, allow_cold_in_dry_b,
		       allow_open_new_dry_c, per_truck_cooler_m3, departure_strategy, scheme_overrides,
		       created_at, updated_at
		FROM depot_settings
		WHERE depot_id = $1
	`
	var s DepotSettings
	err := q.db.QueryRowContext(ctx, query, depotID).Scan(
		&s.DepotID, &s.AlphaThreshold, &s.AllowOpenNewReeferA, &s.AllowColdInDryB,
		&s.AllowOpenNewDryC, &s.PerTruckCoolerM3, &s.DepartureStrategy, &s.SchemeOverrides,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil // no overrides for this depot yet; caller falls back to config defaults
	}
	return &s, err
}

// UpsertDepotSettingsParams contains parameters for upserting a depot's policy overrides.
type UpsertDepotSettingsParams struct {
	DepotID             string
	AlphaThreshold      sql.NullFloat64
	AllowOpenNewReeferA sql.NullBool
	AllowColdInDryB     sql.NullBool
	AllowOpenNewDryC    sql.NullBool
	PerTruckCoolerM3    sql.NullFloat64
	DepartureStrategy   sql.NullString
	SchemeOverrides     json.RawMessage
}

// UpsertDepotSettings creates or updates a depot's policy overrides.
func (q *Queries) UpsertDepotSettings(ctx context.Context, params UpsertDepotSettingsParams) error {
	query := `
		INSERT INTO depot_settings (
			depot_id, alpha_threshold, allow_open_new_reefer_a, allow_cold_in_dry_b,
			allow_open_new_dry_c, per_truck_cooler_m3, departure_strategy, scheme_overrides, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (depot_id) DO UPDATE SET
			alpha_threshold = EXCLUDED.alpha_threshold,
			allow_open_new_reefer_a = EXCLUDED.allow_open_new_reefer_a,
			allow_cold_in_dry_b = EXCLUDED.allow_cold_in_dry_b,
			allow_open_new_dry_c = EXCLUDED.allow_open_new_dry_c,
			per_truck_cooler_m3 = EXCLUDED.per_truck_cooler_m3,
			departure_strategy = EXCLUDED.departure_strategy,
			scheme_overrides = EXCLUDED.scheme_overrides,
			updated_at = NOW()
	`
	_, err := q.db.ExecContext(ctx, query,
		params.DepotID, params.AlphaThreshold, params.AllowOpenNewReeferA, params.AllowColdInDryB,
		params.AllowOpenNewDryC, params.PerTruckCoolerM3, params.DepartureStrategy, params.SchemeOverrides,
	)
	return err
}

// GetSystemSettings retrieves all system-wide settings (global policy
// defaults and other admin-configurable knobs).
func (q *Queries) GetSystemSettings(ctx context.Context) ([]SystemSetting, error) {
	query := `
		SELECT id, setting_key, setting_value, setting_type, description, category,
		       constraints, last_modified_by, last_modified_at, created_at
		FROM system_settings
		ORDER BY category, setting_key
	`
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settings []SystemSetting
	for rows.Next() {
		var s SystemSetting
		if err := rows.Scan(
			&s.ID, &s.SettingKey, &s.SettingValue, &s.SettingType, &s.Description, &s.Category,
			&s.Constraints, &s.LastModifiedBy, &s.LastModifiedAt, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// GetSystemSettingsByCategory retrieves system settings for a specific category.
func (q *Queries) GetSystemSettingsByCategory(ctx context.Context, category string) ([]SystemSetting, error) {
	query := `
		SELECT id, setting_key, setting_value, setting_type, description, category,
		       constraints, last_modified_by, last_modified_at, created_at
		FROM system_settings
		WHERE category = $1
		ORDER BY setting_key
	`
	rows, err := q.db.QueryContext(ctx, query, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settings []SystemSetting
	for rows.Next() {
		var s SystemSetting
		if err := rows.Scan(
			&s.ID, &s.SettingKey, &s.SettingValue, &s.SettingType, &s.Description, &s.Category,
			&s.Constraints, &s.LastModifiedBy, &s.LastModifiedAt, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// UpdateSystemSettingParams contains parameters for updating a system setting.
type UpdateSystemSettingParams struct {
	SettingKey     string
	SettingValue   string
	LastModifiedBy string
}

// UpdateSystemSetting updates a single system setting.
func (q *Queries) UpdateSystemSetting(ctx context.Context, params UpdateSystemSettingParams) error {
	query := `
		UPDATE system_settings
		SET setting_value = $1,
		    last_modified_by = $2,
		    last_modified_at = NOW()
		WHERE setting_key = $3
	`
	_, err := q.db.ExecContext(ctx, query, params.SettingValue, params.LastModifiedBy, params.SettingKey)
	return err
}
