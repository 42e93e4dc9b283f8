package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrE-scrum-master/courtesy-inspection/internal/errs"
)

func TestDecodeJSON_EmptyBodyIsInvalid(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	var dst struct{ Name string }
	err := decodeJSON(r, &dst)
	assert.Equal(t, errs.Invalid, errs.KindOf(err))
}

func TestDecodeJSON_UnknownFieldIsInvalid(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"bogus":"x"}`))
	var dst struct {
		Name string `json:"name"`
	}
	err := decodeJSON(r, &dst)
	assert.Equal(t, errs.Invalid, errs.KindOf(err))
}

func TestDecodeJSON_ValidBodyPopulatesDestination(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"brake pad"}`))
	var dst struct {
		Name string `json:"name"`
	}
	require.NoError(t, decodeJSON(r, &dst))
	assert.Equal(t, "brake pad", dst.Name)
}

func TestQueryInt_DefaultsWhenAbsentOrUnparsable(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?limit=oops", nil)
	assert.Equal(t, 20, queryInt(r, "limit", 20))

	r = httptest.NewRequest(http.MethodGet, "/?limit=5", nil)
	assert.Equal(t, 5, queryInt(r, "limit", 20))
}

func TestQueryTime_ParsesRFC3339(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?since=2026-01-01T00:00:00Z", nil)
	got := queryTime(r, "since")
	require.NotNil(t, got)
	assert.True(t, got.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestQueryTime_NilWhenAbsent(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, queryTime(r, "since"))
}
