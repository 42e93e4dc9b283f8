package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/MrE-scrum-master/courtesy-inspection/internal/errs"
)

// decodeJSON decodes the request body into dst, rejecting unknown
// fields so a typo in a client payload surfaces as Invalid rather than
// silently being ignored.
func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return errs.New(errs.Invalid, "request body is required")
		}
		return errs.Wrap(errs.Invalid, "malformed request body", err)
	}
	return nil
}

// queryInt parses a query parameter as an int, returning def if absent
// or unparsable.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// queryTime parses a query parameter as an RFC3339 timestamp, returning
// nil if absent or unparsable.
func queryTime(r *http.Request, name string) *time.Time {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &t
}
