package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/artur/tube-butler/internal/database/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// UserRepository handles user data persistence
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetOrCreate resolves a Telegram user to a persisted record. On first
// contact a new row is created with isAdmin taken from the configured
// administrator set. On later contacts changed profile fields are
// reconciled with a single partial update and last_activity is stamped.
func (r *UserRepository) GetOrCreate(tgUser *tgbotapi.User, isAdmin bool) (*models.User, error) {
	if tgUser == nil {
		return nil, fmt.Errorf("telegram user is nil")
	}

	user, err := r.GetByTelegramID(tgUser.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	if user == nil {
		query := `
			INSERT INTO users (telegram_id, username, first_name, last_name, language_code, is_admin, created_at, updated_at, last_activity)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err := r.db.Exec(query,
			tgUser.ID,
			tgUser.UserName,
			tgUser.FirstName,
			tgUser.LastName,
			tgUser.LanguageCode,
			isAdmin,
			now,
			now,
			now,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		return r.GetByTelegramID(tgUser.ID)
	}

	// Reconcile changed profile fields only
	if user.Username != tgUser.UserName ||
		user.FirstName != tgUser.FirstName ||
		user.LastName != tgUser.LastName ||
		user.LanguageCode != tgUser.LanguageCode {
		query := `
			UPDATE users
			SET username = ?, first_name = ?, last_name = ?, language_code = ?, updated_at = ?
			WHERE telegram_id = ?
		`
		if _, err := r.db.Exec(query, tgUser.UserName, tgUser.FirstName, tgUser.LastName, tgUser.LanguageCode, now, tgUser.ID); err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}

	if _, err := r.db.Exec(`UPDATE users SET last_activity = ? WHERE telegram_id = ?`, now, tgUser.ID); err != nil {
		return nil, fmt.Errorf("failed to update activity: %w", err)
	}

	return r.GetByTelegramID(tgUser.ID)
}

// GetByTelegramID retrieves user by Telegram ID
func (r *UserRepository) GetByTelegramID(telegramID int64) (*models.User, error) {
	query := `
		SELECT id, telegram_id, username, first_name, last_name, language_code,
		       is_admin, is_blocked, total_downloads, total_download_size,
		       created_at, updated_at, last_activity
		FROM users
		WHERE telegram_id = ?
	`

	return r.scanUser(r.db.QueryRow(query, telegramID))
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *UserRepository) scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var username, firstName, lastName, languageCode sql.NullString
	var lastActivity sql.NullTime

	err := row.Scan(
		&user.ID,
		&user.TelegramID,
		&username,
		&firstName,
		&lastName,
		&languageCode,
		&user.IsAdmin,
		&user.IsBlocked,
		&user.TotalDownloads,
		&user.TotalDownloadSize,
		&user.CreatedAt,
		&user.UpdatedAt,
		&lastActivity,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Username = username.String
	user.FirstName = firstName.String
	user.LastName = lastName.String
	user.LanguageCode = languageCode.String
	user.LastActivity = lastActivity.Time

	return user, nil
}

// IsBlocked reports whether the given Telegram ID maps to a blocked user.
// Unknown users are not blocked.
func (r *UserRepository) IsBlocked(telegramID int64) (bool, error) {
	var blocked bool
	err := r.db.QueryRow(`SELECT is_blocked FROM users WHERE telegram_id = ?`, telegramID).Scan(&blocked)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check blocked: %w", err)
	}
	return blocked, nil
}

// SetBlocked flips the soft block flag. Returns false if no such user exists.
func (r *UserRepository) SetBlocked(telegramID int64, blocked bool) (bool, error) {
	res, err := r.db.Exec(`UPDATE users SET is_blocked = ?, updated_at = ? WHERE telegram_id = ?`, blocked, time.Now(), telegramID)
	if err != nil {
		return false, fmt.Errorf("failed to set blocked: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IncrementDownloads bumps the user's cumulative counters after a
// successful download.
func (r *UserRepository) IncrementDownloads(userID int64, fileSize int64) error {
	query := `
		UPDATE users
		SET total_downloads = total_downloads + 1,
		    total_download_size = total_download_size + ?
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, fileSize, userID); err != nil {
		return fmt.Errorf("failed to increment downloads: %w", err)
	}
	return nil
}

// GetTotalUsers returns total number of unique users
func (r *UserRepository) GetTotalUsers() (int64, error) {
	var count int64
	err := r.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// GetActiveUsersSince returns the number of users active after the cutoff
func (r *UserRepository) GetActiveUsersSince(cutoff time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRow(`SELECT COUNT(*) FROM users WHERE last_activity >= ?`, cutoff).Scan(&count)
	return count, err
}

// List returns users ordered by registration date, newest first
func (r *UserRepository) List(limit int) ([]models.User, error) {
	query := `
		SELECT id, telegram_id, username, first_name, last_name, language_code,
		       is_admin, is_blocked, total_downloads, total_download_size,
		       created_at, updated_at, last_activity
		FROM users
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}

	return users, rows.Err()
}
