package d365

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/d365-client/internal/constants"
)

// QueryOptions are the OData system query options a query may carry.
// Zero values are omitted. Encode always emits them in the order
// $select, $top, $filter, $orderby, $count.
type QueryOptions struct {
	Select  string
	Top     int
	Filter  string
	OrderBy string
	Count   *bool
}

// NewQueryOptions creates empty query options.
func NewQueryOptions() *QueryOptions {
	return &QueryOptions{}
}

// WithSelect sets $select.
func (q *QueryOptions) WithSelect(fields ...string) *QueryOptions {
	q.Select = strings.Join(fields, ",")

	return q
}

// WithTop sets $top.
func (q *QueryOptions) WithTop(top int) *QueryOptions {
	q.Top = top

	return q
}

// WithFilter sets $filter.
func (q *QueryOptions) WithFilter(filter string) *QueryOptions {
	q.Filter = filter

	return q
}

// WithOrderBy sets $orderby.
func (q *QueryOptions) WithOrderBy(orderBy string) *QueryOptions {
	q.OrderBy = orderBy

	return q
}

// WithCount sets $count.
func (q *QueryOptions) WithCount(count bool) *QueryOptions {
	q.Count = &count

	return q
}

// IsEmpty reports whether no option is set.
func (q *QueryOptions) IsEmpty() bool {
	return q == nil || (q.Select == "" && q.Top <= 0 && q.Filter == "" && q.OrderBy == "" && q.Count == nil)
}

// Encode renders the options as a raw query string in canonical order.
// Values are percent-encoded; option names keep their literal '$'.
func (q *QueryOptions) Encode() string {
	if q.IsEmpty() {
		return ""
	}

	parts := make([]string, 0, 5)

	if q.Select != "" {
		parts = append(parts, constants.ODataSelectParameter+"="+escapeValue(q.Select))
	}

	if q.Top > 0 {
		parts = append(parts, constants.ODataTopParameter+"="+strconv.Itoa(q.Top))
	}

	if q.Filter != "" {
		parts = append(parts, constants.ODataFilterParameter+"="+escapeValue(q.Filter))
	}

	if q.OrderBy != "" {
		parts = append(parts, constants.ODataOrderByParameter+"="+escapeValue(q.OrderBy))
	}

	if q.Count != nil {
		parts = append(parts, constants.ODataCountParameter+"="+strconv.FormatBool(*q.Count))
	}

	return strings.Join(parts, "&")
}

// escapeValue encodes spaces as %20, which OData filters expect.
func escapeValue(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}
