package store

import (
	"testing"
)

func TestSettingsSetGet(t *testing.T) {
	db := openTestDB(t)
	settings := NewSettingsStore(db)
	team, _ := seedTeam(t, db, "House", "a@example.com", "Ada")

	if err := settings.Set(team.ID, SettingPrimaryCurrency, "EUR"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := settings.Get(team.ID, SettingPrimaryCurrency)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "EUR" {
		t.Errorf("value = %q, want %q", got, "EUR")
	}

	// Upsert overwrites.
	if err := settings.Set(team.ID, SettingPrimaryCurrency, "GBP"); err != nil {
		t.Fatalf("set again: %v", err)
	}
	got, _ = settings.Get(team.ID, SettingPrimaryCurrency)
	if got != "GBP" {
		t.Errorf("value = %q, want %q", got, "GBP")
	}
}

func TestSettingsMissingKeyEmpty(t *testing.T) {
	db := openTestDB(t)
	settings := NewSettingsStore(db)
	team, _ := seedTeam(t, db, "House", "a@example.com", "Ada")

	got, err := settings.Get(team.ID, "nonexistent")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "" {
		t.Errorf("value = %q, want empty", got)
	}
}

func TestContentSettings(t *testing.T) {
	db := openTestDB(t)
	settings := NewSettingsStore(db)
	team, _ := seedTeam(t, db, "House", "a@example.com", "Ada")

	if err := settings.Set(team.ID, SettingContentGrocery, "everyone"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := settings.Set(team.ID, SettingContentExpenses, "admin"); err != nil {
		t.Fatalf("set: %v", err)
	}

	cs, err := settings.GetContentSettings(team.ID)
	if err != nil {
		t.Fatalf("get content settings: %v", err)
	}
	if cs.Grocery != "everyone" {
		t.Errorf("grocery policy = %q, want %q", cs.Grocery, "everyone")
	}
	if cs.Expenses != "admin" {
		t.Errorf("expenses policy = %q, want %q", cs.Expenses, "admin")
	}
	if cs.Events != "" {
		t.Errorf("events policy = %q, want empty", cs.Events)
	}
}

func TestPrimaryCurrencyDefault(t *testing.T) {
	db := openTestDB(t)
	settings := NewSettingsStore(db)
	team, _ := seedTeam(t, db, "House", "a@example.com", "Ada")

	got, err := settings.GetPrimaryCurrency(team.ID)
	if err != nil {
		t.Fatalf("get primary currency: %v", err)
	}
	if got != "USD" {
		t.Errorf("default currency = %q, want USD", got)
	}
}

func TestSettingsScopedPerTeam(t *testing.T) {
	db := openTestDB(t)
	settings := NewSettingsStore(db)
	t1, _ := seedTeam(t, db, "One", "a@example.com", "Ada")
	t2, _ := seedTeam(t, db, "Two", "b@example.com", "Ben")

	settings.Set(t1.ID, SettingContentGrocery, "everyone")

	cs, err := settings.GetContentSettings(t2.ID)
	if err != nil {
		t.Fatalf("get content settings: %v", err)
	}
	if cs.Grocery != "" {
		t.Errorf("settings leaked across teams: %+v", cs)
	}
}
