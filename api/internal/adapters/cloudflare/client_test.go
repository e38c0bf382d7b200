package cloudflare

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixelfort/api/internal/core/domain"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient("test-token", "zone123", "pixelfort-edge", logger).WithBaseURL(srv.URL)
}

func TestRegisterHostname_Success(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/zones/zone123/custom_hostnames", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "img.example.com", body["hostname"])

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"result": map[string]any{
				"id":       "ch-abc123",
				"hostname": "img.example.com",
				"status":   "pending",
				"ssl": map[string]any{
					"status":    "pending_validation",
					"http_url":  "http://img.example.com/.well-known/acme-challenge/tok-42",
					"http_body": "tok-42.keyauth",
				},
			},
		})
	})

	reg, err := client.RegisterHostname(context.Background(), "img.example.com")
	require.NoError(t, err)
	assert.Equal(t, "ch-abc123", reg.HostnameID)
	assert.Equal(t, "pending", reg.Status)
	assert.Equal(t, "pending_validation", reg.SSLStatus)
	assert.Equal(t, "tok-42", reg.ValidationToken)
	assert.Equal(t, "tok-42.keyauth", reg.ValidationBody)
}

func TestRegisterHostname_ProviderRejection(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"errors":  []map[string]any{{"code": 1407, "message": "Duplicate custom hostname found"}},
		})
	})

	_, err := client.RegisterHostname(context.Background(), "img.example.com")
	require.Error(t, err)

	var provErr *domain.ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, "register_hostname", provErr.Op)
	assert.Contains(t, provErr.Message, "Duplicate custom hostname")
}

func TestGetHostnameStatus_ByName(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "img.example.com", r.URL.Query().Get("hostname"))
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"result": []map[string]any{{
				"id":     "ch-abc123",
				"status": "active",
				"ssl":    map[string]any{"status": "active"},
			}},
		})
	})

	reg, err := client.GetHostnameStatus(context.Background(), "img.example.com")
	require.NoError(t, err)
	assert.Equal(t, "active", reg.Status)
	assert.Equal(t, "active", reg.SSLStatus)
}

func TestGetHostnameStatus_Unknown(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": true, "result": []any{}})
	})

	_, err := client.GetHostnameStatus(context.Background(), "ghost.example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRoutingRule_CreateAndFind(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "img.example.com/*", body["pattern"])
			assert.Equal(t, "pixelfort-edge", body["script"])
			json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"result":  map[string]any{"id": "route-1", "pattern": body["pattern"]},
			})
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"result": []map[string]any{
					{"id": "route-0", "pattern": "other.example.com/*"},
					{"id": "route-1", "pattern": "img.example.com/*"},
				},
			})
		}
	})

	ruleID, err := client.CreateRoutingRule(context.Background(), "img.example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "route-1", ruleID)

	found, err := client.FindRoutingRule(context.Background(), "img.example.com")
	require.NoError(t, err)
	assert.Equal(t, "route-1", found)

	_, err = client.FindRoutingRule(context.Background(), "missing.example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteHostname_TransportFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // force a connection error

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := NewClient("t", "z", "s", logger).WithBaseURL(srv.URL)

	err := client.DeleteHostname(context.Background(), "ch-abc123")
	require.Error(t, err)

	var provErr *domain.ProviderError
	assert.False(t, errors.As(err, &provErr), "transport faults must not masquerade as provider rejections")
}
