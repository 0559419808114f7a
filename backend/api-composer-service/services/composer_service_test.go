package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProjectsStub(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"project": map[string]string{"id": "PRJ-1", "name": "Vendor onboarding"},
			"steps": []map[string]interface{}{
				{"id": "STP-1", "stepNo": 1, "description": "Collect documents", "assignedTo": []string{"alice"}, "status": "done", "visible": true},
				{"id": "STP-2", "stepNo": 2, "description": "Verify documents", "assignedTo": []string{"bob"}, "status": "pending", "visible": true},
			},
		})
	}))
}

func newObjectionsStub(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]string{
			{"id": "OBJ-1", "taskId": "STP-1"},
			{"id": "OBJ-2", "taskId": "STP-1"},
		})
	}))
}

func TestFetchBoardJoinsGraphOntoSteps(t *testing.T) {
	projects := newProjectsStub(t)
	defer projects.Close()

	workflow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"nodes": []map[string]interface{}{
				{"id": "STP-1", "blocked": false},
				{"id": "STP-2", "blocked": true},
			},
			"dependencies": []map[string]string{
				{"fromTaskId": "STP-1", "toTaskId": "STP-2"},
			},
		})
	}))
	defer workflow.Close()

	objections := newObjectionsStub(t)
	defer objections.Close()

	composer := NewComposerService(projects.URL, workflow.URL, objections.URL)
	board, err := composer.FetchBoard(context.Background(), "PRJ-1", "Bearer test-token", "member")
	require.NoError(t, err)

	assert.Equal(t, "PRJ-1", board.ProjectID)
	require.Len(t, board.Steps, 2)
	assert.False(t, board.Steps[0].Blocked)
	assert.True(t, board.Steps[1].Blocked)
	assert.Equal(t, 2, board.Steps[0].OpenObjections)
	assert.Equal(t, 0, board.Steps[1].OpenObjections)
	require.Len(t, board.Edges, 1)
	assert.Equal(t, "STP-1", board.Edges[0].From)
	assert.Equal(t, "STP-2", board.Edges[0].To)
}

func TestFetchBoardDegradesWithoutWorkflow(t *testing.T) {
	projects := newProjectsStub(t)
	defer projects.Close()

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusInternalServerError)
	}))
	defer down.Close()

	composer := NewComposerService(projects.URL, down.URL, down.URL)
	board, err := composer.FetchBoard(context.Background(), "PRJ-1", "Bearer test-token", "member")
	require.NoError(t, err)

	require.Len(t, board.Steps, 2)
	assert.False(t, board.Steps[1].Blocked)
	assert.Zero(t, board.Steps[0].OpenObjections)
	assert.Empty(t, board.Edges)
}

func TestFetchBoardFailsWhenProjectsUnavailable(t *testing.T) {
	projects := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer projects.Close()

	composer := NewComposerService(projects.URL, projects.URL, projects.URL)
	_, err := composer.FetchBoard(context.Background(), "PRJ-404", "Bearer test-token", "member")
	assert.Error(t, err)
}
