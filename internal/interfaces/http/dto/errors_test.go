package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeInvalidTransition, http.StatusUnprocessableEntity},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GetHTTPStatus(tt.code), tt.code)
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode("NOT_FOUND"))
	assert.Equal(t, ErrCodeInvalidTransition, NormalizeErrorCode("INVALID_TRANSITION"))
	assert.Equal(t, ErrCodeInvalidInput, NormalizeErrorCode("INVALID_QUANTITY"))
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode(ErrCodeNotFound))
	assert.Equal(t, "CUSTOM_CODE", NormalizeErrorCode("CUSTOM_CODE"))
}

func TestNormalizeErrorCode_AllDomainCodesResolveToAStatus(t *testing.T) {
	for domainCode := range DomainErrorCodeMapping {
		normalized := NormalizeErrorCode(domainCode)
		_, ok := ErrorCodeHTTPStatus[normalized]
		assert.True(t, ok, "domain code %s maps to %s which has no HTTP status", domainCode, normalized)
	}
}
