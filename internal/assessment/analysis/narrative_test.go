// internal/assessment/analysis/narrative_test.go
package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"print-advisor/internal/common/logger"
)

func TestHTTPGenerator_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/narrative", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var payload narrativeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.NotNil(t, payload.Request)
		require.NotEmpty(t, payload.Recommendations)

		json.NewEncoder(w).Encode(narrativeResponse{Summary: "Generated summary."})
	}))
	defer server.Close()

	g := NewHTTPGenerator(server.URL, "test-key", 2*time.Second, logger.NewTestLogger(t))

	req := baseRequest()
	recs := matchProducts(req)
	summary, err := g.Generate(context.Background(), req, recs)
	require.NoError(t, err)
	assert.Equal(t, "Generated summary.", summary)
}

func TestHTTPGenerator_Non200IsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	g := NewHTTPGenerator(server.URL, "test-key", 2*time.Second, logger.NewTestLogger(t))

	req := baseRequest()
	_, err := g.Generate(context.Background(), req, matchProducts(req))
	assert.Error(t, err)
}

func TestHTTPGenerator_EmptySummaryIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(narrativeResponse{Summary: "   "})
	}))
	defer server.Close()

	g := NewHTTPGenerator(server.URL, "test-key", 2*time.Second, logger.NewTestLogger(t))

	req := baseRequest()
	_, err := g.Generate(context.Background(), req, matchProducts(req))
	assert.Error(t, err)
}
