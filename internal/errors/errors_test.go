package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIErrorInterface(t *testing.T) {
	err := New(http.StatusNotFound, "NOT_FOUND", "gone")
	assert.Equal(t, "gone", err.Error())
	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, "NOT_FOUND", err.ErrorCode)
}

func TestFetchError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewFetchError("APU0000708111", 0, "request failed", cause)

	assert.Contains(t, err.Error(), "APU0000708111")
	assert.True(t, IsFetchError(err))
	assert.True(t, IsFetchError(fmt.Errorf("ingest eggs: %w", err)))
	assert.ErrorIs(t, err, cause)
}

func TestFetchErrorWithStatus(t *testing.T) {
	err := NewFetchError("EMM_EPMR_PTE_NUS_DPG", http.StatusBadGateway, "bad gateway", nil)
	assert.Contains(t, err.Error(), "status 502")
}

func TestStorageError(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := NewStorageError("set", "price_data", cause)

	assert.Contains(t, err.Error(), "price_data")
	assert.True(t, IsStorageError(err))
	assert.False(t, IsFetchError(err))
	assert.ErrorIs(t, err, cause)
}

func TestMalformedDataError(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := NewMalformedDataError("eggs", cause)

	assert.Contains(t, err.Error(), "eggs")
	assert.True(t, IsMalformedDataError(err))
	assert.True(t, IsMalformedDataError(fmt.Errorf("align: %w", err)))
}

func TestTaxonomyIsDisjoint(t *testing.T) {
	fetch := NewFetchError("X", 500, "boom", nil)
	storage := NewStorageError("get", "k", errors.New("down"))
	malformed := NewMalformedDataError("milk", errors.New("bad schema"))

	assert.False(t, IsStorageError(fetch))
	assert.False(t, IsMalformedDataError(storage))
	assert.False(t, IsFetchError(malformed))
}
