package sqlxrepos

import (
	"strings"

	"github.com/lib/pq"

	"github.com/minhaescola/backend/core"
)

// orderBy joins the requested ordering into an ORDER BY clause.
// Ordering fields are caller-supplied, so only fields present in the
// sortable map (API field name -> column expression) reach the query
// text; unknown fields are dropped, and the given default applies
// when nothing survives.
func orderBy(ordering []core.DBOrdering, sortable map[string]string, dflt string) string {
	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		col, ok := sortable[ord.Field]
		if !ok {
			continue
		}
		orderList = append(orderList, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	if len(orderList) == 0 {
		return dflt
	}
	return strings.Join(orderList, ", ")
}

// isUniqueViolation reports whether err is a psql unique_violation on
// the named constraint.
func isUniqueViolation(err error, constraint string) bool {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return false
	}
	return pqErr.Code == "23505" && pqErr.Constraint == constraint
}
