package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCodes(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusOf(Validation("bad input")))
	assert.Equal(t, http.StatusNotFound, StatusOf(NotFound("order %s not found", "x")))
	assert.Equal(t, http.StatusConflict, StatusOf(InsufficientStock("Laptop", 2, 5)))
	assert.Equal(t, http.StatusConflict, StatusOf(AlreadyCanceled("x")))
	assert.Equal(t, http.StatusForbidden, StatusOf(WindowClosed(5, 3)))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(Server(errors.New("db down"))))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("untyped")))
}

func TestInsufficientStockMessage(t *testing.T) {
	err := InsufficientStock("Laptop", 2, 5)
	assert.Contains(t, err.Message, "available 2")
	assert.Contains(t, err.Message, "requested 5")
}

func TestWindowClosedMessage(t *testing.T) {
	err := WindowClosed(5, 3)
	assert.Contains(t, err.Message, "more than 5 days")
	assert.Contains(t, err.Message, "3 days")
}

func TestServerHidesCauseFromClient(t *testing.T) {
	cause := errors.New("pq: connection refused")
	err := Server(cause)

	// Logs see the cause, clients do not.
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, "internal server error", MessageOf(err))
	assert.ErrorIs(t, err, cause)
}

func TestStatusSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("placing order: %w", NotFound("product missing"))
	assert.Equal(t, http.StatusNotFound, StatusOf(err))
	assert.Equal(t, "product missing", MessageOf(err))
}
