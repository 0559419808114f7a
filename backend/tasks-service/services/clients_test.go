package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	http_client "fms-project/backend/utils"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{Name: name})
}

// The notifications service decodes {"userId", "message"}; the client has to
// send exactly those keys or deliveries arrive with an empty user id.
func TestNotifyPayloadMatchesNotificationsContract(t *testing.T) {
	var received struct {
		UserID  string `json:"userId"`
		Message string `json:"message"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewHTTPNotificationsClient(server.URL, http_client.NewHTTPClient(), newTestBreaker("NotificationsServiceCB"))
	err := client.Notify(context.Background(), "alice", "task TSK-1 assigned")
	require.NoError(t, err)

	assert.Equal(t, "alice", received.UserID)
	assert.Equal(t, "task TSK-1 assigned", received.Message)
}

func TestMaterializeProjectReturnsNewProjectID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TemplateID  string `json:"templateId"`
			TriggeredBy string `json:"triggeredBy"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "TPL-2", req.TemplateID)
		assert.Equal(t, "alice", req.TriggeredBy)
		json.NewEncoder(w).Encode(map[string]string{"projectId": "PRJ-7"})
	}))
	defer server.Close()

	client := NewHTTPProjectsClient(server.URL, http_client.NewHTTPClient(), newTestBreaker("ProjectsServiceCB"))
	projectID, err := client.MaterializeProject(context.Background(), "TPL-2", "alice")
	require.NoError(t, err)
	assert.Equal(t, "PRJ-7", projectID)
}
