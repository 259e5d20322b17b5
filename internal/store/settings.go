package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/darby/hearth/internal/model"
)

// Team setting keys.
const (
	SettingContentExpenses = "content_expenses"
	SettingContentGrocery  = "content_grocery"
	SettingContentEvents   = "content_events"
	SettingPrimaryCurrency = "currency_primary"
)

type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func (s *SettingsStore) Get(teamID int64, key string) (string, error) {
	var value string
	err := s.db.QueryRow(
		`SELECT value FROM team_settings WHERE team_id = ? AND key = ?`,
		teamID, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *SettingsStore) GetAll(teamID int64) (map[string]string, error) {
	rows, err := s.db.Query(`SELECT key, value FROM team_settings WHERE team_id = ? ORDER BY key`, teamID)
	if err != nil {
		return nil, fmt.Errorf("get all settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings[key] = value
	}
	return settings, rows.Err()
}

func (s *SettingsStore) Set(teamID int64, key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO team_settings (team_id, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(team_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		teamID, key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// GetContentSettings assembles the content-management policies for a team.
// Missing keys come back empty, which the permission predicate treats as
// admin-only.
func (s *SettingsStore) GetContentSettings(teamID int64) (model.ContentSettings, error) {
	var cs model.ContentSettings
	rows, err := s.db.Query(
		`SELECT key, value FROM team_settings WHERE team_id = ? AND key IN (?, ?, ?)`,
		teamID, SettingContentExpenses, SettingContentGrocery, SettingContentEvents,
	)
	if err != nil {
		return cs, fmt.Errorf("get content settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return cs, fmt.Errorf("scan content setting: %w", err)
		}
		switch key {
		case SettingContentExpenses:
			cs.Expenses = value
		case SettingContentGrocery:
			cs.Grocery = value
		case SettingContentEvents:
			cs.Events = value
		}
	}
	return cs, rows.Err()
}

// GetPrimaryCurrency returns the team's reporting currency, defaulting to USD.
func (s *SettingsStore) GetPrimaryCurrency(teamID int64) (string, error) {
	value, err := s.Get(teamID, SettingPrimaryCurrency)
	if err != nil {
		return "", err
	}
	if value == "" {
		return "USD", nil
	}
	return value, nil
}
