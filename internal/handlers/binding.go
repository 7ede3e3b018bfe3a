package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sjperalta/fintera-rentals/internal/services"
)

// BindNestedOrFlat binds the request body to obj, accepting both {"key": {...}} and {...}.
// An empty body leaves obj untouched.
func BindNestedOrFlat(c *gin.Context, key string, obj interface{}) error {
	var bodyBytes []byte
	if c.Request.Body != nil {
		bodyBytes, _ = io.ReadAll(c.Request.Body)
	}
	// Restore body for future binding or subsequent reads
	c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	if len(bytes.TrimSpace(bodyBytes)) == 0 {
		return nil
	}

	// Nested structure { "key": { ... } }
	var nestedMap map[string]json.RawMessage
	if err := json.Unmarshal(bodyBytes, &nestedMap); err == nil {
		if val, ok := nestedMap[key]; ok {
			return json.Unmarshal(val, obj)
		}
	}

	// Flat structure { ... }
	return json.Unmarshal(bodyBytes, obj)
}

// parseAsOf reads a YYYY-MM-DD date as midnight in loc; empty means now
func parseAsOf(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Now().In(loc), nil
	}
	asOf, err := time.ParseInLocation("2006-01-02", value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("as_of must have format YYYY-MM-DD")
	}
	return asOf, nil
}

// validContractID reports whether id is a UUID
func validContractID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// respondError maps service errors to HTTP statuses
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrInvalidContract):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrInvalidState):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
