package store

import "testing"

func TestUserCreateAndVerify(t *testing.T) {
	db := openTestDB(t)
	users := NewUserStore(db)

	u, err := users.Create("ada@example.com", "Ada", "correct horse battery")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.PasswordHash == "correct horse battery" {
		t.Fatal("password stored in plaintext")
	}

	if !users.VerifyPassword(u, "correct horse battery") {
		t.Error("correct password rejected")
	}
	if users.VerifyPassword(u, "wrong") {
		t.Error("wrong password accepted")
	}
}

func TestUserGetByEmail(t *testing.T) {
	db := openTestDB(t)
	users := NewUserStore(db)

	users.Create("ada@example.com", "Ada", "correct horse battery")

	got, err := users.GetByEmail("ada@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got == nil || got.Name != "Ada" {
		t.Fatalf("user = %+v", got)
	}

	missing, err := users.GetByEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown email")
	}
}

func TestUserDuplicateEmail(t *testing.T) {
	db := openTestDB(t)
	users := NewUserStore(db)

	if _, err := users.Create("ada@example.com", "Ada", "correct horse battery"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := users.Create("ada@example.com", "Imposter", "other password"); err == nil {
		t.Error("duplicate email should fail")
	}
}
