package query

import (
	"context"

	"github.com/leapstack-labs/leapdb/pkg/result"
)

// DefaultPerPage is used when Paginate receives a non-positive page size.
const DefaultPerPage = 20

// Page is one page of results plus the numbers needed to render a pager.
type Page struct {
	Results     *result.Result
	Total       int64
	PerPage     int
	CurrentPage int
	LastPage    int
}

// LastPage returns the number of the final page, at least 1.
func LastPage(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// PageNumber clamps requested into [1, LastPage(total, perPage)].
func PageNumber(total int64, perPage, requested int) int {
	last := LastPage(total, perPage)
	switch {
	case requested < 1:
		return 1
	case requested > last:
		return last
	default:
		return requested
	}
}

// Paginate counts the matching rows, then selects the requested page.
// Orderings are left out of the count query and restored afterwards. The
// count runs over the first column (or "*").
func (q *Query) Paginate(ctx context.Context, page, perPage int, columns ...any) (*Page, error) {
	if q.err != nil {
		return nil, q.err
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}

	orderings := q.state.Orderings
	q.state.Orderings = nil
	var countCols []any
	if len(columns) > 0 {
		countCols = columns[:1]
	}
	total, err := q.Count(ctx, countCols...)
	q.state.Orderings = orderings
	if err != nil {
		return nil, err
	}

	current := PageNumber(total, perPage, page)
	res, err := q.ForPage(current, perPage).Select(ctx, columns...)
	if err != nil {
		return nil, err
	}
	return &Page{
		Results:     res,
		Total:       total,
		PerPage:     perPage,
		CurrentPage: current,
		LastPage:    LastPage(total, perPage),
	}, nil
}
