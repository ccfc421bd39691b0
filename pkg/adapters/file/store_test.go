package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/switchboard/pkg/adapters/file"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/persistence/codec"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	ports.RunCheckpointStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_Contract_MsgpackZstd(t *testing.T) {
	ports.RunCheckpointStoreContract(t, file.New(t.TempDir(), file.WithCodec(codec.NewZstd(codec.Msgpack{}))))
}

func TestFileStore_NoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(ctx, domain.NewCheckpoint("s1", domain.ConversationState{})))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "s1.ckpt", entries[0].Name())
}

func TestFileStore_RejectsPathTraversal(t *testing.T) {
	store := file.New(t.TempDir())
	err := store.Save(context.Background(), domain.NewCheckpoint("../escape", domain.ConversationState{}))
	assert.Error(t, err)

	_, err = store.Load(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrEmptySessionID)
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "missing"))
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFileStore_ListIncludesTmpPrefixedSessions(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.NewCheckpoint("tmp-42", domain.ConversationState{})))
	// leftover of an interrupted write
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".tmp-s1-123456"), []byte("partial"), 0o600))

	_, err := store.Load(ctx, "tmp-42")
	require.NoError(t, err)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tmp-42"}, ids)
}
