package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/persistence/middleware"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func sampleCheckpoint() *domain.Checkpoint {
	cp := domain.NewCheckpoint("45", domain.NewConversationState(
		domain.UserMessage("meu email é ana@example.com"),
		domain.AssistantMessage("greeting", "Olá!"),
	))
	cp.LastNode = "greeting"
	cp.Step = 2
	return cp
}

func encryption(t *testing.T, cfg middleware.EncryptionConfig) middleware.Middleware {
	t.Helper()
	mw, err := middleware.NewEncryption(cfg)
	require.NoError(t, err)
	return mw
}

func TestEncryption_Roundtrip(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	secure := middleware.Chain(underlying, encryption(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)}))

	original := sampleCheckpoint()
	require.NoError(t, secure.Save(ctx, original))

	stored, err := underlying.Load(ctx, "45")
	require.NoError(t, err)
	require.Len(t, stored.State.Messages, 1)
	assert.Equal(t, middleware.EnvelopeNode, stored.State.Messages[0].Node)
	assert.NotContains(t, stored.State.Messages[0].Content, "ana@example.com")
	assert.Equal(t, "greeting", stored.LastNode, "position stays readable")
	assert.Equal(t, 2, stored.Step)

	loaded, err := secure.Load(ctx, "45")
	require.NoError(t, err)
	assert.Equal(t, original.State, loaded.State)
	assert.Equal(t, original.LastNode, loaded.LastNode)
}

func TestEncryption_KeyRotation(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)

	old := middleware.Chain(underlying, encryption(t, middleware.EncryptionConfig{ActiveKey: oldKey}))
	require.NoError(t, old.Save(ctx, sampleCheckpoint()))

	rotated := middleware.Chain(underlying, encryption(t, middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	}))
	loaded, err := rotated.Load(ctx, "45")
	require.NoError(t, err)
	assert.Len(t, loaded.State.Messages, 2)

	wrong := middleware.Chain(underlying, encryption(t, middleware.EncryptionConfig{ActiveKey: newKey}))
	_, err = wrong.Load(ctx, "45")
	assert.Error(t, err)
}

func TestEncryption_RejectsPlainCheckpoint(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	require.NoError(t, underlying.Save(ctx, sampleCheckpoint()))

	secure := middleware.Chain(underlying, encryption(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)}))
	_, err := secure.Load(ctx, "45")
	assert.ErrorIs(t, err, middleware.ErrMissingEnvelope)
}

func TestEncryption_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryption(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)
}

func TestRedaction_MasksBeforePersisting(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	mw, err := middleware.NewRedaction(`[\w.]+@[\w.]+`)
	require.NoError(t, err)
	store := middleware.Chain(underlying, mw)

	cp := sampleCheckpoint()
	require.NoError(t, store.Save(ctx, cp))

	loaded, err := store.Load(ctx, "45")
	require.NoError(t, err)
	assert.Equal(t, "meu email é ***", loaded.State.Messages[0].Content)
	assert.Equal(t, "Olá!", loaded.State.Messages[1].Content)
	assert.Contains(t, cp.State.Messages[0].Content, "ana@example.com", "caller state is untouched")
}

func TestRedaction_InvalidPattern(t *testing.T) {
	_, err := middleware.NewRedaction("(")
	assert.Error(t, err)
}

func TestChain_Order(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	redact, err := middleware.NewRedaction(`secret`)
	require.NoError(t, err)
	store := middleware.Chain(underlying, redact, encryption(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)}))

	cp := domain.NewCheckpoint("s", domain.NewConversationState(domain.UserMessage("top secret")))
	require.NoError(t, store.Save(ctx, cp))

	loaded, err := store.Load(ctx, "s")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(loaded.State.Messages[0].Content, "***"))
}

func TestChain_ContractAndList(t *testing.T) {
	redact, err := middleware.NewRedaction(`\d{11}`)
	require.NoError(t, err)
	store := middleware.Chain(memory.NewStore(),
		redact,
		encryption(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)}),
	)
	ports.RunCheckpointStoreContract(t, store)
}

type plainStore struct{ ports.CheckpointStore }

func TestChain_ListNotSupported(t *testing.T) {
	redact, err := middleware.NewRedaction(`x`)
	require.NoError(t, err)
	store := middleware.Chain(plainStore{memory.NewStore()}, redact)

	lister, ok := store.(ports.Lister)
	require.True(t, ok)
	_, err = lister.List(context.Background())
	assert.ErrorIs(t, err, ports.ErrListNotSupported)
}
