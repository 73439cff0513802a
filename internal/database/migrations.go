package database

import (
	"fmt"
)

// Migrate runs all database migrations
func (db *DB) Migrate() error {
	migrations := []string{
		// Users table
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			telegram_id INTEGER NOT NULL UNIQUE,
			username TEXT,
			first_name TEXT,
			last_name TEXT,
			language_code TEXT,
			is_admin BOOLEAN NOT NULL DEFAULT 0,
			is_blocked BOOLEAN NOT NULL DEFAULT 0,
			total_downloads INTEGER NOT NULL DEFAULT 0,
			total_download_size INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_activity DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_telegram_id ON users(telegram_id)`,
		`CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at)`,

		// Videos table
		`CREATE TABLE IF NOT EXISTS videos (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			video_id TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			description TEXT,
			duration INTEGER,
			view_count INTEGER,
			like_count INTEGER,
			channel_name TEXT,
			channel_id TEXT,
			upload_date DATETIME,
			thumbnail_url TEXT,
			available_formats TEXT,
			file_size INTEGER,
			quality TEXT,
			format_id TEXT,
			download_count INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_videos_video_id ON videos(video_id)`,
		`CREATE INDEX IF NOT EXISTS idx_videos_download_count ON videos(download_count)`,

		// Download history table
		`CREATE TABLE IF NOT EXISTS download_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			video_id INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			quality TEXT,
			format_type TEXT NOT NULL DEFAULT 'mp4',
			file_size INTEGER,
			file_path TEXT,
			telegram_file_id TEXT,
			error_message TEXT,
			metadata TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			started_at DATETIME,
			completed_at DATETIME,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY (video_id) REFERENCES videos(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_download_history_user_id ON download_history(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_download_history_video_id ON download_history(video_id)`,
		`CREATE INDEX IF NOT EXISTS idx_download_history_status ON download_history(status)`,
		`CREATE INDEX IF NOT EXISTS idx_download_history_created_at ON download_history(created_at)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}

	return nil
}
