// Package bookmark keeps each user's ordered list of bookmarked books.
package bookmark

import (
	"booklibrary/internal/user"
)

const (
	ActionAdded   = "added"
	ActionRemoved = "removed"
)

// BookSummary is the projection of a book shown in a bookmark list.
type BookSummary struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	ISBN          string `json:"isbn"`
	ReadStatus    bool   `json:"read_status"`
	Notes         string `json:"notes"`
	CoverImageURL string `json:"coverImageUrl"`
}

// UserBookmarks is a user with the bookmark ids expanded into summaries.
// Bookmarks of books that no longer exist are left out.
type UserBookmarks struct {
	user.User
	Bookmarks []BookSummary `json:"bookmarks"`
}

// ToggleResult reports what Toggle did and the list it left behind.
type ToggleResult struct {
	Action    string   `json:"action"`
	Bookmarks []string `json:"bookmarks"`
}
