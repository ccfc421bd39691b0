package config

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
)

func load(t *testing.T, env ...string) *Config {
	t.Helper()
	cfg, err := Load(Options{Environ: env})
	require.NoError(t, err)
	return cfg
}

func TestBuild_DefaultStack(t *testing.T) {
	cfg := load(t, "SWITCHBOARD_REPLY_PROVIDER=scripted", "SWITCHBOARD_ENGINE_METRICS=true")
	cfg.Reply.Script = map[string]string{"Agora precisamos decidir": "Sugiro a opção 2."}

	st, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	defer st.Close()

	state, err := st.Engine.Say(context.Background(), "45", "oi")
	require.NoError(t, err)
	require.Len(t, state.Messages, 6)
	assert.Equal(t, "option2", state.Messages[4].Node)

	require.NotNil(t, st.Metrics)
	assert.Equal(t, 1.0, testutil.ToFloat64(st.Metrics.NodeVisits.WithLabelValues("option2")))
}

func TestBuild_SQLiteWithEncryption(t *testing.T) {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	dbPath := filepath.Join(t.TempDir(), "sessions.db")

	cfg := load(t,
		"SWITCHBOARD_STORE_DRIVER=sqlite",
		"SWITCHBOARD_STORE_PATH="+dbPath,
		"SWITCHBOARD_STORE_CODEC=msgpack+zstd",
		"SWITCHBOARD_STORE_ENCRYPTION_KEY="+base64.StdEncoding.EncodeToString(key),
	)

	st, err := Build(context.Background(), cfg)
	require.NoError(t, err)

	_, err = st.Engine.Say(context.Background(), "45", "opção 1")
	require.NoError(t, err)

	cp, err := st.Engine.Checkpoint(context.Background(), "45")
	require.NoError(t, err)
	assert.Equal(t, domain.Terminal, cp.LastNode)
	assert.Len(t, cp.State.Messages, 6)
	require.NoError(t, st.Close())

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestNewStore_RedisWithLock(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := load(t,
		"SWITCHBOARD_STORE_DRIVER=redis",
		"SWITCHBOARD_STORE_URL=redis://"+mr.Addr(),
		"SWITCHBOARD_STORE_LOCK=true",
	)

	store, locker, closer, err := NewStore(context.Background(), cfg.Store)
	require.NoError(t, err)
	require.NotNil(t, locker)
	defer closer()

	ports.RunCheckpointStoreContract(t, store)
}

func TestNewStore_Redaction(t *testing.T) {
	cfg := load(t, `SWITCHBOARD_STORE_REDACT_PATTERNS=\d{3}\.\d{3}\.\d{3}-\d{2}`)
	store, _, _, err := NewStore(context.Background(), cfg.Store)
	require.NoError(t, err)

	cp := domain.NewCheckpoint("s", domain.NewConversationState(domain.UserMessage("cpf 123.456.789-00")))
	require.NoError(t, store.Save(context.Background(), cp))
	loaded, err := store.Load(context.Background(), "s")
	require.NoError(t, err)
	assert.Equal(t, "cpf ***", loaded.State.Messages[0].Content)
}

func TestNewReply(t *testing.T) {
	gen, err := NewReply(ReplyConfig{Provider: "echo"})
	require.NoError(t, err)
	out, err := gen.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	_, err = NewReply(ReplyConfig{Provider: "carrier-pigeon"})
	assert.Error(t, err)

	_, err = NewReply(ReplyConfig{Provider: "azure", APIKey: "k", BaseURL: "https://x.openai.azure.com", Deployment: "gpt4"})
	assert.NoError(t, err)
}

func TestNewGraph_FlowFile(t *testing.T) {
	g, err := NewGraph(EngineConfig{Flow: "../../examples/flows/support.yaml"}, nil)
	assert.Error(t, err, "prompt nodes need a generator")
	assert.Nil(t, g)

	gen, err := NewReply(ReplyConfig{Provider: "echo"})
	require.NoError(t, err)
	g, err = NewGraph(EngineConfig{Flow: "../../examples/flows/support.yaml"}, gen)
	require.NoError(t, err)
	assert.Equal(t, 7, g.Len())
}
