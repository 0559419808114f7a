package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestNormalizeStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want TaskStatus
		ok   bool
	}{
		{"pending", StatusPending, true},
		{"Pending", StatusPending, true},
		{"in progress", StatusInProgress, true},
		{"in-progress", StatusInProgress, true},
		{"InProgress", StatusInProgress, true},
		{"done", StatusDone, true},
		{"Done", StatusDone, true},
		{"completed", StatusDone, true},
		{"Complete", StatusDone, true},
		{"revise", StatusRevise, true},
		{"Revision", StatusRevise, true},
		{"hold", StatusHold, true},
		{"On Hold", StatusHold, true},
		{"  done  ", StatusDone, true},
		{"cancelled", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := NormalizeStatus(tc.raw)
		assert.Equal(t, tc.ok, ok, "input %q", tc.raw)
		assert.Equal(t, tc.want, got, "input %q", tc.raw)
	}
}

// Step documents are written by the projects service with visible:true and
// later replaced whole by this service's updates, so the flag has to survive
// a decode/encode round trip through the Task view.
func TestStepDocumentRoundTripKeepsVisibleFlag(t *testing.T) {
	stored := bson.M{
		"_id":         "STP-1",
		"projectId":   "PRJ-1",
		"stepNo":      1,
		"assignedTo":  bson.A{"alice"},
		"assignedBy":  "boss",
		"description": "collect documents",
		"status":      "pending",
		"visible":     true,
		"score":       1.0,
		"version":     int64(3),
	}
	raw, err := bson.Marshal(stored)
	require.NoError(t, err)

	var task Task
	require.NoError(t, bson.Unmarshal(raw, &task))
	assert.True(t, task.Visible)

	replaced, err := bson.Marshal(&task)
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(replaced, &doc))
	assert.Equal(t, true, doc["visible"])
}
