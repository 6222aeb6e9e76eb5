package book

import (
	"strings"
	"testing"
	"time"

	"booklibrary/internal/testutil"

	"github.com/stretchr/testify/assert"
)

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%%", likePattern(""))
	assert.Equal(t, `%100\%%`, likePattern("100%"))
	assert.Equal(t, `%a\_b%`, likePattern("a_b"))
	assert.Equal(t, `%c:\\dir%`, likePattern(`c:\dir`))
	assert.Equal(t, "%.*%", likePattern(".*"))
}

func TestBuildFindSQL(t *testing.T) {
	t.Run("empty query", func(t *testing.T) {
		sql, args := buildFindSQL(Query{})
		assert.Contains(t, sql, "WHERE 1=1 ORDER BY created_at, id")
		assert.NotContains(t, sql, "LIMIT")
		assert.Empty(t, args)
	})

	t.Run("match across fields shares one argument", func(t *testing.T) {
		sql, args := buildFindSQL(Query{Match: "dune", MatchIn: []MatchField{MatchTitle, MatchAuthor}})
		assert.Contains(t, sql, `(title ILIKE $1 ESCAPE '\' OR author ILIKE $1 ESCAPE '\')`)
		assert.Equal(t, []any{"%dune%"}, args)
	})

	t.Run("filters are ANDed in argument order", func(t *testing.T) {
		genre := "Fantasy"
		sql, args := buildFindSQL(Query{
			Text:       "wizard",
			Author:     "guin",
			Read:       boolPtr(true),
			MinRating:  intPtr(3),
			Genre:      &genre,
			BestSeller: boolPtr(false),
			Featured:   boolPtr(true),
			Sort:       &Sort{Field: SortAuthor, Desc: true},
			Limit:      6,
		})
		for _, want := range []string{
			"search_vector @@ plainto_tsquery('english', $1)",
			`author ILIKE $2 ESCAPE '\'`,
			"read_status = $3",
			"user_rating >= $4",
			"genre = $5",
			"is_best_seller = $6",
			"is_featured = $7",
			"ORDER BY author DESC, id DESC",
			"LIMIT $8",
		} {
			assert.Contains(t, sql, want)
		}
		assert.Equal(t, 7, strings.Count(sql, " AND "))
		assert.Equal(t, []any{"wizard", "%guin%", true, 3, "Fantasy", false, true, 6}, args)
	})

	t.Run("unknown sort field keeps insertion order", func(t *testing.T) {
		sql, _ := buildFindSQL(Query{Sort: &Sort{Field: "price"}})
		assert.Contains(t, sql, "ORDER BY created_at, id")
	})
}

func TestBuildUpdateSQL(t *testing.T) {
	title := "T"
	empty := ""
	sql, args := buildUpdateSQL("id-1", Changes{Title: &title, IsFeatured: boolPtr(true), FileURL: &empty})

	assert.Contains(t, sql, "SET title = $1, is_featured = $2, updated_at = NOW() WHERE id = $3")
	assert.NotContains(t, sql, "file_url =")
	assert.Equal(t, []any{"T", true, "id-1"}, args)
}

func TestPostgresRepo_Contract(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) Repository {
		return NewPostgresRepo(testutil.PostgresPool(t), 5*time.Second)
	})
}
