package support_test

import (
	"context"
	"testing"

	"github.com/aretw0/switchboard"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/flows/support"
	"github.com/aretw0/switchboard/pkg/reply"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrompt(t *testing.T) {
	assert.Equal(t,
		"You are a friendly and cheerful assistant. Respond in a warm, welcoming tone. The user says: 'Olá, como posso ajudar?'. Respond accordingly.",
		support.Prompt(support.Friendly, "Olá, como posso ajudar?"))
	assert.Equal(t,
		"The user says: 'oi'. Respond naturally.",
		support.Prompt("grumpy", "oi"))
}

func TestFlow_Structure(t *testing.T) {
	g, err := support.New(reply.NewScripted(nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"greeting", "info_collection", "decision", "option1", "option2", "option3", "closing"}, g.Names())
	assert.Equal(t, support.Greeting, g.EntryTarget())
}

func TestFlow_Run(t *testing.T) {
	tests := []struct {
		name       string
		decision   string
		wantOption string
	}{
		{"option 1", "Sugiro a opção 1.", support.Option1},
		{"option 2", "Vamos de Opção 2!", support.Option2},
		{"fallback", "Não há preferência.", support.Option3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := reply.NewScripted(map[string]string{
				"Agora precisamos decidir": tt.decision,
			})
			gen.Fallback = func(string) string { return "ok" }

			g, err := support.New(gen)
			require.NoError(t, err)
			eng, err := switchboard.New(g)
			require.NoError(t, err)

			state, err := eng.Say(context.Background(), "45", "Iniciar atendimento")
			require.NoError(t, err)
			require.Equal(t, 6, state.Len())

			var nodes []string
			for _, m := range state.Messages[1:] {
				assert.Equal(t, domain.RoleAssistant, m.Role)
				nodes = append(nodes, m.Node)
			}
			assert.Equal(t, []string{"greeting", "info_collection", "decision", tt.wantOption, "closing"}, nodes)
			assert.Equal(t, tt.decision, state.Messages[3].Content)

			calls := gen.Calls()
			require.Len(t, calls, 5)
			assert.Contains(t, calls[4], "Atendimento finalizado")
		})
	}
}

func TestFlow_DiacriticFolding(t *testing.T) {
	gen := reply.NewScripted(map[string]string{"Agora precisamos decidir": "opcao 2"})
	g, err := support.New(gen, support.WithDiacriticFolding())
	require.NoError(t, err)
	eng, err := switchboard.New(g)
	require.NoError(t, err)

	state, err := eng.Say(context.Background(), "s", "Iniciar atendimento")
	require.NoError(t, err)
	assert.Equal(t, support.Option2, state.Messages[4].Node)
}

func TestFlow_ReplyFailure(t *testing.T) {
	gen := reply.Func(func(ctx context.Context, prompt string) (string, error) {
		return "", reply.Permanent(assert.AnError)
	})
	g, err := support.New(gen)
	require.NoError(t, err)
	eng, err := switchboard.New(g)
	require.NoError(t, err)

	_, err = eng.Say(context.Background(), "s", "Iniciar atendimento")
	var nodeErr *domain.NodeActionError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, support.Greeting, nodeErr.Node)
	assert.ErrorIs(t, err, reply.ErrPermanent)
}
