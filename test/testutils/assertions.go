// Package testutils provides custom assertions and testing utilities
package testutils

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alchemorsel/evolver/internal/domain/recipe"
)

// VariantAssertions provides variant-specific assertion methods
type VariantAssertions struct {
	t *testing.T
}

// NewVariantAssertions creates a new variant assertions helper
func NewVariantAssertions(t *testing.T) *VariantAssertions {
	return &VariantAssertions{t: t}
}

// Identified asserts that every variant carries a distinct uuid
func (va *VariantAssertions) Identified(variants []recipe.Variant, msgAndArgs ...interface{}) {
	seen := make(map[string]bool, len(variants))
	for _, v := range variants {
		_, err := uuid.Parse(v.ID)
		assert.NoError(va.t, err, msgAndArgs...)
		assert.False(va.t, seen[v.ID], "duplicate id %s", v.ID)
		seen[v.ID] = true
	}
}

// OnePerTier asserts the Easy/Medium/Hard coverage of a variant set
func (va *VariantAssertions) OnePerTier(variants []recipe.Variant, msgAndArgs ...interface{}) {
	require.Len(va.t, variants, len(recipe.Difficulties), msgAndArgs...)
	tiers := make(map[recipe.Difficulty]int)
	for _, v := range variants {
		tiers[v.Difficulty]++
	}
	for _, d := range recipe.Difficulties {
		assert.Equal(va.t, 1, tiers[d], "tier %s", d)
	}
}

// IDs returns the ids of variants in order
func IDs(variants []recipe.Variant) []string {
	out := make([]string, len(variants))
	for i, v := range variants {
		out[i] = v.ID
	}
	return out
}

// HTTPAssertions provides HTTP-specific assertion methods
type HTTPAssertions struct {
	t *testing.T
}

// NewHTTPAssertions creates a new HTTP assertions helper
func NewHTTPAssertions(t *testing.T) *HTTPAssertions {
	return &HTTPAssertions{t: t}
}

// StatusCode asserts the HTTP status code
func (ha *HTTPAssertions) StatusCode(resp *http.Response, expectedCode int, msgAndArgs ...interface{}) {
	require.NotNil(ha.t, resp, "Response should not be nil")
	assert.Equal(ha.t, expectedCode, resp.StatusCode, msgAndArgs...)
}

// JSONResponse asserts that the response is valid JSON and unmarshals it
func (ha *HTTPAssertions) JSONResponse(resp *http.Response, target interface{}, msgAndArgs ...interface{}) {
	require.NotNil(ha.t, resp, "Response should not be nil")

	contentType := resp.Header.Get("Content-Type")
	assert.True(ha.t, strings.Contains(contentType, "application/json"),
		"Response should have JSON content type, got: %s", contentType)

	err := json.NewDecoder(resp.Body).Decode(target)
	require.NoError(ha.t, err, "Response should be valid JSON")
}
