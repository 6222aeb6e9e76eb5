package book

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"booklibrary/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedBooks inserts the fixture catalog in order and returns it.
func seedBooks(t *testing.T, repo Repository) []Book {
	t.Helper()
	fixtures := []Book{
		{Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction", ReadStatus: true, UserRating: intPtr(5), Notes: "desert planet", IsBestSeller: true},
		{Title: "The Left Hand of Darkness", Author: "Ursula K. Le Guin", Genre: "Science Fiction", UserRating: intPtr(4), IsFeatured: true},
		{Title: "A Wizard of Earthsea", Author: "Ursula K. Le Guin", Genre: "Fantasy", ReadStatus: true, UserRating: intPtr(3)},
		{Title: "Emma", Author: "Jane Austen", Genre: "Classic", IsBestSeller: true, IsFeatured: true},
		{Title: "100% Pure (Regex) .*", Author: "Anon_ymous", Genre: "Misc"},
	}

	out := make([]Book, 0, len(fixtures))
	for i := range fixtures {
		b := fixtures[i]
		b.ISBN = fmt.Sprintf("978000000%04d", i)
		require.NoError(t, repo.Create(context.Background(), &b))
		out = append(out, b)
		// keep creation timestamps strictly increasing
		time.Sleep(2 * time.Millisecond)
	}
	return out
}

func ids(books []Book) []string {
	out := make([]string, 0, len(books))
	for _, b := range books {
		out = append(out, b.ID)
	}
	return out
}

func sortedIDs(books []Book) []string {
	out := ids(books)
	sort.Strings(out)
	return out
}

func union(a, b []Book) []string {
	seen := map[string]bool{}
	for _, x := range append(append([]Book{}, a...), b...) {
		seen[x.ID] = true
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func intersect(a, b []Book) []string {
	inB := map[string]bool{}
	for _, x := range b {
		inB[x.ID] = true
	}
	out := []string{}
	for _, x := range a {
		if inB[x.ID] {
			out = append(out, x.ID)
		}
	}
	sort.Strings(out)
	return out
}

func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	ctx := context.Background()

	t.Run("create applies defaults and rejects duplicate isbn", func(t *testing.T) {
		repo := newRepo(t)
		b := &Book{ISBN: "978-0-13-468599-1", Title: "X", Author: "Y", Genre: "Fiction"}
		require.NoError(t, repo.Create(ctx, b))
		require.NotEmpty(t, b.ID)
		assert.False(t, b.CreatedAt.IsZero())

		got, err := repo.GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.False(t, got.ReadStatus)
		assert.False(t, got.IsBestSeller)
		assert.False(t, got.IsFeatured)
		assert.Nil(t, got.UserRating)

		dup := &Book{ISBN: "978-0-13-468599-1", Title: "Other", Author: "Z", Genre: "Fiction"}
		assert.ErrorIs(t, repo.Create(ctx, dup), apperr.ErrConflict)
	})

	t.Run("unknown and malformed ids are not found", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetByID(ctx, "not-an-id")
		assert.ErrorIs(t, err, apperr.ErrNotFound)

		seeded := seedBooks(t, repo)
		require.NoError(t, repo.Delete(ctx, seeded[0].ID))
		_, err = repo.GetByID(ctx, seeded[0].ID)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, seeded[0].ID), apperr.ErrNotFound)
		_, err = repo.Update(ctx, seeded[0].ID, Changes{})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("empty query returns insertion order", func(t *testing.T) {
		repo := newRepo(t)
		seeded := seedBooks(t, repo)

		all, err := repo.Find(ctx, Query{})
		require.NoError(t, err)
		assert.Equal(t, ids(seeded), ids(all))
	})

	t.Run("search all is the union of title and author", func(t *testing.T) {
		repo := newRepo(t)
		seedBooks(t, repo)

		for _, term := range []string{"", "le", "EMMA", "guin", "of", "zzz"} {
			byTitle, err := repo.Find(ctx, Query{Match: term, MatchIn: []MatchField{MatchTitle}})
			require.NoError(t, err)
			byAuthor, err := repo.Find(ctx, Query{Match: term, MatchIn: []MatchField{MatchAuthor}})
			require.NoError(t, err)
			byAll, err := repo.Find(ctx, Query{Match: term, MatchIn: []MatchField{MatchTitle, MatchAuthor}})
			require.NoError(t, err)

			assert.Equal(t, union(byTitle, byAuthor), sortedIDs(byAll), "term %q", term)
		}
	})

	t.Run("filters compose conjunctively", func(t *testing.T) {
		repo := newRepo(t)
		seedBooks(t, repo)

		for _, author := range []string{"le guin", "herbert", ""} {
			for _, read := range []bool{true, false} {
				byAuthor, err := repo.Find(ctx, Query{Author: author})
				require.NoError(t, err)
				byRead, err := repo.Find(ctx, Query{Read: boolPtr(read)})
				require.NoError(t, err)
				both, err := repo.Find(ctx, Query{Author: author, Read: boolPtr(read)})
				require.NoError(t, err)

				assert.Equal(t, intersect(byAuthor, byRead), sortedIDs(both), "author %q read %v", author, read)
			}
		}
	})

	t.Run("text filters are literal", func(t *testing.T) {
		repo := newRepo(t)
		seeded := seedBooks(t, repo)

		for _, term := range []string{".*", "(regex)", "100%", "anon_y"} {
			got, err := repo.Find(ctx, Query{Match: term, MatchIn: []MatchField{MatchTitle, MatchAuthor}})
			require.NoError(t, err)
			assert.Equal(t, []string{seeded[4].ID}, ids(got), "term %q", term)
		}

		got, err := repo.Find(ctx, Query{Author: ".*"})
		require.NoError(t, err)
		assert.Empty(t, got)

		got, err = repo.Find(ctx, Query{Author: "_"})
		require.NoError(t, err)
		assert.Equal(t, []string{seeded[4].ID}, ids(got))
	})

	t.Run("exact filters", func(t *testing.T) {
		repo := newRepo(t)
		seeded := seedBooks(t, repo)

		genre := "Science Fiction"
		got, err := repo.Find(ctx, Query{Genre: &genre})
		require.NoError(t, err)
		assert.Equal(t, []string{seeded[0].ID, seeded[1].ID}, ids(got))

		lower := "science fiction"
		got, err = repo.Find(ctx, Query{Genre: &lower})
		require.NoError(t, err)
		assert.Empty(t, got)

		got, err = repo.Find(ctx, Query{MinRating: intPtr(4)})
		require.NoError(t, err)
		assert.Equal(t, []string{seeded[0].ID, seeded[1].ID}, ids(got))

		got, err = repo.Find(ctx, Query{Text: "desert"})
		require.NoError(t, err)
		assert.Equal(t, []string{seeded[0].ID}, ids(got))
	})

	t.Run("sort and limit", func(t *testing.T) {
		repo := newRepo(t)
		seeded := seedBooks(t, repo)

		got, err := repo.Find(ctx, Query{Sort: &Sort{Field: SortTitle}})
		require.NoError(t, err)
		titles := make([]string, 0, len(got))
		for _, b := range got {
			titles = append(titles, b.Title)
		}
		assert.True(t, sort.StringsAreSorted(titles), "titles %v", titles)

		got, err = repo.Find(ctx, Query{Sort: &Sort{Field: SortCreatedAt, Desc: true}, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{seeded[4].ID, seeded[3].ID}, ids(got))

		got, err = repo.Find(ctx, Query{BestSeller: boolPtr(true), Sort: &Sort{Field: SortCreatedAt, Desc: true}, Limit: 6})
		require.NoError(t, err)
		assert.Equal(t, []string{seeded[3].ID, seeded[0].ID}, ids(got))
	})

	t.Run("limit bounds a large bucket", func(t *testing.T) {
		repo := newRepo(t)
		for i := 0; i < 8; i++ {
			b := &Book{ISBN: fmt.Sprintf("979000000%04d", i), Title: fmt.Sprintf("Hit %d", i), Author: "A", Genre: "G", IsFeatured: true}
			require.NoError(t, repo.Create(ctx, b))
		}

		got, err := repo.Find(ctx, Query{Featured: boolPtr(true), Sort: &Sort{Field: SortCreatedAt, Desc: true}, Limit: 6})
		require.NoError(t, err)
		assert.Len(t, got, 6)
	})

	t.Run("update touches only given fields", func(t *testing.T) {
		repo := newRepo(t)
		b := &Book{ISBN: "9780000000100", Title: "Draft", Author: "A", Genre: "G", FileURL: "https://files/old.pdf"}
		require.NoError(t, repo.Create(ctx, b))

		title := "Final"
		updated, err := repo.Update(ctx, b.ID, Changes{Title: &title, ReadStatus: boolPtr(true), UserRating: intPtr(2)})
		require.NoError(t, err)
		assert.Equal(t, "Final", updated.Title)
		assert.Equal(t, "A", updated.Author)
		assert.True(t, updated.ReadStatus)
		assert.Equal(t, 2, *updated.UserRating)
		assert.Equal(t, "https://files/old.pdf", updated.FileURL)

		newURL := "https://files/new.pdf"
		updated, err = repo.Update(ctx, b.ID, Changes{FileURL: &newURL})
		require.NoError(t, err)
		assert.Equal(t, newURL, updated.FileURL)

		other := &Book{ISBN: "9780000000101", Title: "Other", Author: "B", Genre: "G"}
		require.NoError(t, repo.Create(ctx, other))
		_, err = repo.Update(ctx, other.ID, Changes{ISBN: &b.ISBN})
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})
}
