package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunCheckpointStoreContract runs a suite of tests to verify that a CheckpointStore
// implementation adheres to the defined interface contract.
func RunCheckpointStoreContract(t *testing.T, store CheckpointStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405.000000")

	t.Run("Save and Load", func(t *testing.T) {
		cp := domain.NewCheckpoint(sessionID, domain.NewConversationState(
			domain.UserMessage("Iniciar atendimento"),
			domain.AssistantMessage("greeting", "Olá! Como posso ajudar?"),
		))
		cp.LastNode = "info_collection"
		cp.Step = 2
		cp.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

		require.NoError(t, store.Save(ctx, cp), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, sessionID, loaded.SessionID)
		assert.Equal(t, "info_collection", loaded.LastNode)
		assert.Equal(t, 2, loaded.Step)
		assert.Equal(t, 1, loaded.Turn)
		assert.Equal(t, cp.State.Messages, loaded.State.Messages)
		assert.True(t, cp.UpdatedAt.Equal(loaded.UpdatedAt), "UpdatedAt should round-trip")
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		cp := domain.NewCheckpoint(sessionID, domain.NewConversationState(domain.UserMessage("hi")))
		cp.LastNode = domain.Terminal
		cp.Step = 7
		require.NoError(t, store.Save(ctx, cp))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, domain.Terminal, loaded.LastNode)
		assert.Equal(t, 7, loaded.Step)
		assert.Len(t, loaded.State.Messages, 1)
	})

	t.Run("Loaded Checkpoint Is Independent", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.State.Messages[0].Content = "mutated"
		loaded.LastNode = "elsewhere"

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "hi", again.State.Messages[0].Content)
		assert.Equal(t, domain.Terminal, again.LastNode)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, domain.NewCheckpoint(sessionID, domain.ConversationState{})))

		require.NoError(t, store.Clear(ctx, sessionID), "Clear should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Clear should return ErrSessionNotFound")

		assert.NoError(t, store.Clear(ctx, sessionID), "Clear of an unknown session should succeed")
	})

	lister, ok := store.(Lister)
	if !ok {
		return
	}

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, domain.NewCheckpoint(id1, domain.ConversationState{})))
		require.NoError(t, store.Save(ctx, domain.NewCheckpoint(id2, domain.ConversationState{})))

		defer func() {
			_ = store.Clear(ctx, id1)
			_ = store.Clear(ctx, id2)
		}()

		sessions, err := lister.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
