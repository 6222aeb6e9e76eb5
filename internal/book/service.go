package book

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
)

// specialSetSize bounds each of the special views.
const specialSetSize = 6

// Service provides catalog queries and the book lifecycle.
type Service struct {
	repo  Repository
	files FileRemover
	log   *slog.Logger
}

// NewService creates a new book service.
func NewService(repo Repository, files FileRemover, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, files: files, log: log}
}

// ListFilter narrows List. Zero values mean "no constraint".
type ListFilter struct {
	Search    string
	Author    string
	Read      *bool
	MinRating *int
}

// List returns every book matching f, in insertion order.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Book, error) {
	return s.repo.Find(ctx, Query{
		Text:      strings.TrimSpace(f.Search),
		Author:    f.Author,
		Read:      f.Read,
		MinRating: f.MinRating,
	})
}

// SearchScope selects which fields Search looks at.
type SearchScope string

const (
	ScopeTitle  SearchScope = "title"
	ScopeAuthor SearchScope = "author"
	ScopeAll    SearchScope = "all"
)

// ParseSearchScope maps the searchBy parameter to a scope; anything unknown
// searches all fields.
func ParseSearchScope(s string) SearchScope {
	switch SearchScope(strings.ToLower(s)) {
	case ScopeTitle:
		return ScopeTitle
	case ScopeAuthor:
		return ScopeAuthor
	default:
		return ScopeAll
	}
}

// Search returns books whose title and/or author contain term, ignoring case.
// The term is matched literally.
func (s *Service) Search(ctx context.Context, term string, scope SearchScope) ([]Book, error) {
	var fields []MatchField
	switch scope {
	case ScopeTitle:
		fields = []MatchField{MatchTitle}
	case ScopeAuthor:
		fields = []MatchField{MatchAuthor}
	default:
		fields = []MatchField{MatchTitle, MatchAuthor}
	}
	return s.repo.Find(ctx, Query{Match: term, MatchIn: fields})
}

// FilterParams are the inputs of Filter. SortBy and Order are passed as
// received; an unknown SortBy leaves the result unsorted.
type FilterParams struct {
	Author string
	Read   *bool
	SortBy string
	Order  string
}

func (s *Service) Filter(ctx context.Context, p FilterParams) ([]Book, error) {
	return s.repo.Find(ctx, Query{
		Author: p.Author,
		Read:   p.Read,
		Sort:   ParseSort(p.SortBy, p.Order),
	})
}

// ParseSort returns nil when sortBy is not a sortable field. Any order other
// than "desc" sorts ascending.
func ParseSort(sortBy, order string) *Sort {
	var field SortField
	switch SortField(sortBy) {
	case SortTitle, SortAuthor, SortCreatedAt:
		field = SortField(sortBy)
	default:
		return nil
	}
	return &Sort{Field: field, Desc: strings.EqualFold(order, "desc")}
}

// ByGenre returns the books whose genre equals genre exactly.
func (s *Service) ByGenre(ctx context.Context, genre string) ([]Book, error) {
	return s.repo.Find(ctx, Query{Genre: &genre})
}

// SpecialSets loads the newest books overall, among best sellers and among
// featured books. The three reads run concurrently.
func (s *Service) SpecialSets(ctx context.Context) (SpecialSets, error) {
	newest := &Sort{Field: SortCreatedAt, Desc: true}
	yes := true

	var out SpecialSets
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.NewArrivals, err = s.repo.Find(gctx, Query{Sort: newest, Limit: specialSetSize})
		return err
	})
	g.Go(func() (err error) {
		out.BestSellers, err = s.repo.Find(gctx, Query{BestSeller: &yes, Sort: newest, Limit: specialSetSize})
		return err
	})
	g.Go(func() (err error) {
		out.Featured, err = s.repo.Find(gctx, Query{Featured: &yes, Sort: newest, Limit: specialSetSize})
		return err
	})
	if err := g.Wait(); err != nil {
		return SpecialSets{}, err
	}

	out.NewArrivals = capBooks(out.NewArrivals)
	out.BestSellers = capBooks(out.BestSellers)
	out.Featured = capBooks(out.Featured)
	return out, nil
}

func capBooks(books []Book) []Book {
	if books == nil {
		return []Book{}
	}
	if len(books) > specialSetSize {
		return books[:specialSetSize]
	}
	return books
}
