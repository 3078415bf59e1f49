package flights

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yegors/weekend-fares/internal/fares"
)

// Sortable fields and directions
const (
	SortDepartDate = "depart_date"
	SortReturnDate = "return_date"
	SortPriceTotal = "price_total"

	OrderAsc  = "asc"
	OrderDesc = "desc"

	DefaultLimit = 200
)

// Query holds the optional filters, sort and page of a flights request
type Query struct {
	Origin      string
	Destination string
	StartDate   string // inclusive lower bound on depart_date
	EndDate     string // inclusive upper bound on return_date
	MinPrice    *float64
	MaxPrice    *float64
	SortBy      string
	Order       string
	Offset      int
	Limit       int
}

// DefaultQuery returns a query with no filters and the default page
func DefaultQuery() Query {
	return Query{
		SortBy: SortDepartDate,
		Order:  OrderAsc,
		Limit:  DefaultLimit,
	}
}

// Validate checks the query's enumerations and bounds
func (q Query) Validate() error {
	if q.Origin != "" && len(q.Origin) != 3 {
		return fmt.Errorf("origin must be exactly 3 characters")
	}
	if q.Destination != "" && len(q.Destination) != 3 {
		return fmt.Errorf("destination must be exactly 3 characters")
	}
	switch q.SortBy {
	case SortDepartDate, SortReturnDate, SortPriceTotal:
	default:
		return fmt.Errorf("sort_by must be one of depart_date, return_date, price_total")
	}
	switch q.Order {
	case OrderAsc, OrderDesc:
	default:
		return fmt.Errorf("order must be asc or desc")
	}
	if q.Offset < 0 {
		return fmt.Errorf("offset must not be negative")
	}
	if q.Limit < 0 {
		return fmt.Errorf("limit must not be negative")
	}
	return nil
}

// Row is one flight as served by the API
type Row struct {
	fares.Record
	PriceTotalNum *float64 `json:"price_total_num"`
}

// Page is one page of filtered, sorted rows
type Page struct {
	Total  int   `json:"total"`
	Offset int   `json:"offset"`
	Limit  int   `json:"limit"`
	Rows   []Row `json:"rows"`
}

// Apply filters, sorts and paginates records. Filters run in a fixed order:
// route, date range, price range.
func Apply(records []fares.Record, q Query) Page {
	rows := make([]Row, 0, len(records))
	for _, record := range records {
		record.RawOffer = ""
		row := Row{Record: record}
		if price, ok := fares.ParsePrice(record.PriceTotal); ok {
			row.PriceTotalNum = &price
		}
		if q.matches(row) {
			rows = append(rows, row)
		}
	}

	sortRows(rows, q.SortBy, q.Order == OrderDesc)

	total := len(rows)
	start := min(q.Offset, total)
	end := start + min(q.Limit, total-start)

	return Page{
		Total:  total,
		Offset: q.Offset,
		Limit:  q.Limit,
		Rows:   rows[start:end],
	}
}

func (q Query) matches(row Row) bool {
	if q.Origin != "" && !strings.EqualFold(row.Origin, q.Origin) {
		return false
	}
	if q.Destination != "" && !strings.EqualFold(row.Destination, q.Destination) {
		return false
	}

	if q.StartDate != "" && row.DepartDate < q.StartDate {
		return false
	}
	if q.EndDate != "" && row.ReturnDate > q.EndDate {
		return false
	}

	// unparseable prices pass any price bound
	if row.PriceTotalNum != nil {
		if q.MinPrice != nil && *row.PriceTotalNum < *q.MinPrice {
			return false
		}
		if q.MaxPrice != nil && *row.PriceTotalNum > *q.MaxPrice {
			return false
		}
	}
	return true
}

// sortRows orders rows by field. Rows without a numeric price stay last in
// both directions when sorting by price.
func sortRows(rows []Row, field string, desc bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]

		if field == SortPriceTotal {
			switch {
			case a.PriceTotalNum == nil:
				return false
			case b.PriceTotalNum == nil:
				return true
			case desc:
				return *a.PriceTotalNum > *b.PriceTotalNum
			default:
				return *a.PriceTotalNum < *b.PriceTotalNum
			}
		}

		av, bv := a.DepartDate, b.DepartDate
		if field == SortReturnDate {
			av, bv = a.ReturnDate, b.ReturnDate
		}
		if desc {
			return av > bv
		}
		return av < bv
	})
}
