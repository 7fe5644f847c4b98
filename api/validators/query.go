package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/quickshop/storefront-backend/pkg/errors"
)

// ParseQueryInt reads an integer query parameter, used for the order history
// page size. Absent values take the default; junk and out-of-range values are
// rejected rather than silently clamped so clients learn about bad paging
// parameters immediately.
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}
