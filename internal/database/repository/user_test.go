package repository_test

import (
	"database/sql"
	"testing"
	"time"

	"github.com/artur/tube-butler/internal/database"
	"github.com/artur/tube-butler/internal/database/repository"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test db: %v", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	dbWrapper := &database.DB{DB: db}
	if err := dbWrapper.Migrate(); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}

func TestUserRepository_GetOrCreate(t *testing.T) {
	db := setupTestDB(t)

	repo := repository.NewUserRepository(db)

	tgUser := &tgbotapi.User{
		ID:           12345,
		FirstName:    "Test",
		LastName:     "User",
		UserName:     "testuser",
		LanguageCode: "en",
	}

	// First contact creates the user
	user1, err := repo.GetOrCreate(tgUser, false)
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	if user1 == nil {
		t.Fatal("Expected user to be returned")
	}
	if user1.TelegramID != 12345 {
		t.Errorf("Expected telegram_id 12345, got %d", user1.TelegramID)
	}
	if user1.FirstName != "Test" {
		t.Errorf("Expected first_name 'Test', got %s", user1.FirstName)
	}
	if user1.IsAdmin {
		t.Error("Expected non-admin user")
	}
	if user1.LastActivity.IsZero() {
		t.Error("Expected last_activity to be stamped on create")
	}

	// Changed profile fields are reconciled
	tgUser.FirstName = "Updated"
	user2, err := repo.GetOrCreate(tgUser, false)
	if err != nil {
		t.Fatalf("Failed to update user: %v", err)
	}
	if user2.ID != user1.ID {
		t.Errorf("User ID should remain same, got %d vs %d", user2.ID, user1.ID)
	}
	if user2.FirstName != "Updated" {
		t.Errorf("Expected first_name 'Updated', got %s", user2.FirstName)
	}
}

func TestUserRepository_GetOrCreate_Admin(t *testing.T) {
	db := setupTestDB(t)

	repo := repository.NewUserRepository(db)

	user, err := repo.GetOrCreate(&tgbotapi.User{ID: 777, FirstName: "Root"}, true)
	if err != nil {
		t.Fatalf("Failed to create admin: %v", err)
	}
	if !user.IsAdmin {
		t.Error("Expected is_admin to be set on create")
	}

	// The flag is only applied on create, not on later contacts
	user, err = repo.GetOrCreate(&tgbotapi.User{ID: 777, FirstName: "Root"}, false)
	if err != nil {
		t.Fatalf("Failed to fetch admin: %v", err)
	}
	if !user.IsAdmin {
		t.Error("Expected is_admin to survive later contacts")
	}
}

func TestUserRepository_GetOrCreate_NilUser(t *testing.T) {
	db := setupTestDB(t)

	repo := repository.NewUserRepository(db)

	_, err := repo.GetOrCreate(nil, false)
	if err == nil {
		t.Error("Expected error for nil user")
	}
}

func TestUserRepository_GetByTelegramID(t *testing.T) {
	db := setupTestDB(t)

	repo := repository.NewUserRepository(db)

	// Get non-existent user
	user, err := repo.GetByTelegramID(99999)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if user != nil {
		t.Errorf("Expected nil for non-existent user")
	}

	// Insert and retrieve
	_, err = repo.GetOrCreate(&tgbotapi.User{ID: 12345, FirstName: "Test"}, false)
	if err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}

	user, err = repo.GetByTelegramID(12345)
	if err != nil {
		t.Fatalf("Failed to get user: %v", err)
	}
	if user == nil || user.TelegramID != 12345 {
		t.Errorf("Failed to retrieve correct user")
	}
}

func TestUserRepository_Blocking(t *testing.T) {
	db := setupTestDB(t)

	repo := repository.NewUserRepository(db)

	// Unknown users are not blocked
	blocked, err := repo.IsBlocked(555)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if blocked {
		t.Error("Unknown user should not be blocked")
	}

	// Blocking an unknown user reports false
	ok, err := repo.SetBlocked(555, true)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if ok {
		t.Error("Expected false for unknown user")
	}

	repo.GetOrCreate(&tgbotapi.User{ID: 555, FirstName: "Target"}, false)

	ok, err = repo.SetBlocked(555, true)
	if err != nil || !ok {
		t.Fatalf("Failed to block user: ok=%v err=%v", ok, err)
	}

	blocked, err = repo.IsBlocked(555)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !blocked {
		t.Error("Expected user to be blocked")
	}

	ok, err = repo.SetBlocked(555, false)
	if err != nil || !ok {
		t.Fatalf("Failed to unblock user: ok=%v err=%v", ok, err)
	}

	blocked, _ = repo.IsBlocked(555)
	if blocked {
		t.Error("Expected user to be unblocked")
	}
}

func TestUserRepository_IncrementDownloads(t *testing.T) {
	db := setupTestDB(t)

	repo := repository.NewUserRepository(db)

	user, err := repo.GetOrCreate(&tgbotapi.User{ID: 1, FirstName: "U"}, false)
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	if err := repo.IncrementDownloads(user.ID, 1000); err != nil {
		t.Fatalf("Failed to increment: %v", err)
	}
	if err := repo.IncrementDownloads(user.ID, 500); err != nil {
		t.Fatalf("Failed to increment: %v", err)
	}

	user, _ = repo.GetByTelegramID(1)
	if user.TotalDownloads != 2 {
		t.Errorf("Expected 2 downloads, got %d", user.TotalDownloads)
	}
	if user.TotalDownloadSize != 1500 {
		t.Errorf("Expected total size 1500, got %d", user.TotalDownloadSize)
	}
}

func TestUserRepository_GetTotalUsers(t *testing.T) {
	db := setupTestDB(t)

	repo := repository.NewUserRepository(db)

	count, err := repo.GetTotalUsers()
	if err != nil {
		t.Fatalf("Failed to get total users: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 users, got %d", count)
	}

	repo.GetOrCreate(&tgbotapi.User{ID: 1, FirstName: "User1"}, false)
	repo.GetOrCreate(&tgbotapi.User{ID: 2, FirstName: "User2"}, false)

	count, err = repo.GetTotalUsers()
	if err != nil {
		t.Fatalf("Failed to get total users: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 users, got %d", count)
	}
}

func TestUserRepository_GetActiveUsersSince(t *testing.T) {
	db := setupTestDB(t)

	repo := repository.NewUserRepository(db)

	repo.GetOrCreate(&tgbotapi.User{ID: 1, FirstName: "Fresh"}, false)

	count, err := repo.GetActiveUsersSince(time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Failed to count active users: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 active user, got %d", count)
	}

	count, err = repo.GetActiveUsersSince(time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Failed to count active users: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 active users in the future, got %d", count)
	}
}
