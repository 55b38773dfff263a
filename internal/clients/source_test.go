package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanbaill/timetracking-automation/internal/config"
	"github.com/ryanbaill/timetracking-automation/internal/logger"
)

func newSourceTestClient(server *httptest.Server) SourceClient {
	cfg := &config.Config{
		Logging: config.LoggingConfig{Level: "error", Format: "text"},
		SourceAPI: config.SourceAPIConfig{
			BaseURL:   server.URL,
			Token:     "test-token",
			AccountID: "12345",
			Timeout:   5,
		},
	}
	return NewSourceClient(cfg, logger.NewLogger(cfg))
}

func TestSourceFetchEntry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/12345/events/123", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":        123,
			"label_ids": []int64{1111, 4444},
			"duration":  5400,
			"note":      "Sprint planning",
			"timestamp": 1717545600,
			"user":      map[string]interface{}{"id": 42, "name": "Jordan Lee"},
			"project": map[string]interface{}{
				"external_id": "7001",
				"name":        "Website Redesign - WEB01",
				"client":      map[string]interface{}{"external_id": "301", "name": "Acme"},
			},
		})
	}))
	defer server.Close()

	entry, err := newSourceTestClient(server).FetchEntry(context.Background(), 123)

	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, int64(123), entry.ID)
	assert.Equal(t, []int64{1111, 4444}, entry.LabelIDs)
	assert.Equal(t, int64(5400), entry.Duration)
	assert.Equal(t, "7001", entry.Project.ExternalID)
	assert.Equal(t, "301", entry.Project.Client.ExternalID)
}

func TestSourceFetchEntryGoneReturnsNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	entry, err := newSourceTestClient(server).FetchEntry(context.Background(), 99)

	// A vanished entry is an expected outcome, not a failure
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestSourceFetchEntryServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newSourceTestClient(server).FetchEntry(context.Background(), 99)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestSourceFetchUserDecodesExternalID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/12345/users/42", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": 42, "name": "Jordan Lee", "external_id": 900}`))
	}))
	defer server.Close()

	user, err := newSourceTestClient(server).FetchUser(context.Background(), 42)

	require.NoError(t, err)
	require.NotNil(t, user.ExternalID)
	assert.Equal(t, int64(900), *user.ExternalID)
}

func TestSourceFetchUserNullExternalID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": 42, "name": "Jordan Lee", "external_id": null}`))
	}))
	defer server.Close()

	user, err := newSourceTestClient(server).FetchUser(context.Background(), 42)

	require.NoError(t, err)
	assert.Nil(t, user.ExternalID)
}

func TestSourceListClientsNormalizesNames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/12345/clients", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id": 1, "name": "  Acme  "}, {"id": 2, "name": "GLOBEX"}]`))
	}))
	defer server.Close()

	result, err := newSourceTestClient(server).ListClients(context.Background())

	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"acme": 1, "globex": 2}, result)
}

func TestSourceCreateClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/12345/clients", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload ClientPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "GLOBEX", payload.Name)
		assert.True(t, payload.Active)
		assert.Equal(t, int64(302), payload.ExternalID)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": 55, "name": "GLOBEX"}`))
	}))
	defer server.Close()

	id, err := newSourceTestClient(server).CreateClient(context.Background(), &ClientPayload{
		Name:       "GLOBEX",
		Active:     true,
		ExternalID: 302,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(55), id)
}

func TestSourceCreateProjectSendsPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/12345/projects", r.URL.Path)

		var payload ProjectPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "Website Redesign - WEB01", payload.Name)
		assert.Equal(t, int64(7001), payload.ExternalID)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": 500}`))
	}))
	defer server.Close()

	err := newSourceTestClient(server).CreateProject(context.Background(), &ProjectPayload{
		Name:       "Website Redesign - WEB01",
		ClientID:   9,
		ExternalID: 7001,
	})

	require.NoError(t, err)
}

func TestSourceDeleteProject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/12345/projects/91", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	err := newSourceTestClient(server).DeleteProject(context.Background(), 91)

	require.NoError(t, err)
}
