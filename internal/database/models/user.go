package models

import (
	"strconv"
	"time"
)

// User represents a Telegram user stored in database
type User struct {
	ID                int64
	TelegramID        int64
	Username          string
	FirstName         string
	LastName          string
	LanguageCode      string
	IsAdmin           bool
	IsBlocked         bool
	TotalDownloads    int64
	TotalDownloadSize int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
	LastActivity      time.Time
}

// FullName builds a display name from first/last name, falling back to the
// username and then the Telegram ID.
func (u *User) FullName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name != "" {
		return name
	}
	if u.Username != "" {
		return u.Username
	}
	return "User " + strconv.FormatInt(u.TelegramID, 10)
}
