package book

import (
	"time"
)

// Book is a catalog entry. FileURL points into the object store.
type Book struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	ISBN          string    `json:"isbn"`
	ReadStatus    bool      `json:"read_status"`
	UserRating    *int      `json:"user_rating,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	FileURL       string    `json:"file_url,omitempty"`
	CoverImageURL string    `json:"coverImageUrl,omitempty"`
	Genre         string    `json:"genre"`
	IsBestSeller  bool      `json:"isBestSeller"`
	IsFeatured    bool      `json:"isFeatured"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NewBook holds the fields accepted when a book is created.
type NewBook struct {
	Title         string `json:"title" validate:"required,max=300"`
	Author        string `json:"author" validate:"required,max=200"`
	ISBN          string `json:"isbn" validate:"required,isbn"`
	Genre         string `json:"genre" validate:"required,max=100"`
	ReadStatus    bool   `json:"read_status"`
	UserRating    *int   `json:"user_rating" validate:"omitempty,gte=1,lte=5"`
	Notes         string `json:"notes" validate:"max=5000"`
	CoverImageURL string `json:"coverImageUrl" validate:"omitempty,url"`
	IsBestSeller  bool   `json:"isBestSeller"`
	IsFeatured    bool   `json:"isFeatured"`
}

// Changes is a partial update; nil fields are left as they are.
type Changes struct {
	Title         *string `json:"title" validate:"omitempty,min=1,max=300"`
	Author        *string `json:"author" validate:"omitempty,min=1,max=200"`
	ISBN          *string `json:"isbn" validate:"omitempty,isbn"`
	Genre         *string `json:"genre" validate:"omitempty,min=1,max=100"`
	ReadStatus    *bool   `json:"read_status"`
	UserRating    *int    `json:"user_rating" validate:"omitempty,gte=1,lte=5"`
	Notes         *string `json:"notes" validate:"omitempty,max=5000"`
	CoverImageURL *string `json:"coverImageUrl" validate:"omitempty,url"`
	IsBestSeller  *bool   `json:"isBestSeller"`
	IsFeatured    *bool   `json:"isFeatured"`

	// FileURL is set by the lifecycle when a replacement file was uploaded.
	FileURL *string `json:"-"`
}

// MatchField names a text field a substring match may target.
type MatchField string

const (
	MatchTitle  MatchField = "title"
	MatchAuthor MatchField = "author"
)

// SortField is a single sortable key.
type SortField string

const (
	SortTitle     SortField = "title"
	SortAuthor    SortField = "author"
	SortCreatedAt SortField = "createdAt"
)

type Sort struct {
	Field SortField
	Desc  bool
}

// Query is one read against the book collection. Every set field narrows the
// result (logical AND); Match is the exception, it hits if any MatchIn field
// contains the term. A nil Sort keeps the store's insertion order.
type Query struct {
	Text       string
	Match      string
	MatchIn    []MatchField
	Author     string
	Read       *bool
	MinRating  *int
	Genre      *string
	BestSeller *bool
	Featured   *bool
	Sort       *Sort
	Limit      int
}

// SpecialSets are the three curated views shown on the landing page.
type SpecialSets struct {
	NewArrivals []Book `json:"newArrivals"`
	BestSellers []Book `json:"bestSellers"`
	Featured    []Book `json:"featured"`
}
