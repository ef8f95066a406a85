package workload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visitbench/visitbench/visit"
)

func sampleTree() []ConversationNode {
	return []ConversationNode{
		{ID: "u1", ParentID: "", Role: visit.RoleUser, Text: "hi", Timestamp: 100},
		{ID: "a1", ParentID: "u1", Role: visit.RoleAssistant, Text: "hello", Timestamp: 101},
		{ID: "u2", ParentID: "a1", Role: visit.RoleUser, Text: "follow up", Timestamp: 103},
	}
}

func TestConversationTreeNormalizer_ByTree_DependencyChain(t *testing.T) {
	n := NewConversationTreeNormalizer(sampleTree())
	w, err := n.ToWorkload(ToWorkloadOptions{})
	require.NoError(t, err)
	require.Len(t, w, 1)

	entries := w[0].V
	require.Len(t, entries, 2) // one per user turn
	assert.Equal(t, "u1", entries[0].Req.ID)
	assert.Equal(t, "u2", entries[1].Req.ID)
	assert.Equal(t, "u1", entries[1].Req.DepID)

	// u2's dialog should reference a1 via dep_id, not literal content
	dialog := entries[1].Req.MessagesWithDep
	require.Len(t, dialog, 3) // u1, a1(dep), u2
	assert.Equal(t, "hi", dialog[0].Content)
	assert.Empty(t, dialog[0].DepID)
	assert.Empty(t, dialog[1].Content)
	assert.Equal(t, "u1", dialog[1].DepID)
	assert.Equal(t, "follow up", dialog[2].Content)
}

func TestConversationTreeNormalizer_Separate_LiteralAssistantContent(t *testing.T) {
	n := NewConversationTreeNormalizer(sampleTree())
	w, err := n.ToWorkload(ToWorkloadOptions{SeparateReqInOneVisit: true})
	require.NoError(t, err)
	require.Len(t, w, 2) // one visit per user turn

	for _, entry := range w {
		for _, m := range entry.V[0].Req.MessagesWithDep {
			assert.Empty(t, m.DepID)
		}
	}
}

func TestConversationTreeNormalizer_Dialogs(t *testing.T) {
	n := NewConversationTreeNormalizer(sampleTree())
	dialogs := n.Dialogs()
	assert.ElementsMatch(t, []string{"hi", "follow up"}, dialogs)
}
