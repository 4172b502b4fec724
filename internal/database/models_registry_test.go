package database

import (
	"testing"

	"creatorhub/internal/models"

	"github.com/stretchr/testify/require"
)

func TestPersistentModels_IncludesMessagingTables(t *testing.T) {
	var hasConversation, hasParticipant, hasMessage bool
	for _, model := range PersistentModels() {
		switch model.(type) {
		case *models.Conversation:
			hasConversation = true
		case *models.ConversationParticipant:
			hasParticipant = true
		case *models.Message:
			hasMessage = true
		}
	}
	require.True(t, hasConversation, "PersistentModels should include Conversation")
	require.True(t, hasParticipant, "PersistentModels should include ConversationParticipant")
	require.True(t, hasMessage, "PersistentModels should include Message")
}
