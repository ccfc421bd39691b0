package routing_test

import (
	"testing"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/routing"
	"github.com/stretchr/testify/assert"
)

func decisionRouter(opts ...routing.KeywordOption) *routing.Keyword {
	return routing.NewKeywordWith("option3", []routing.Rule{
		{Match: "opção 1", Target: "option1"},
		{Match: "opção 2", Target: "option2"},
	}, opts...)
}

func lastSays(text string) domain.ConversationState {
	return domain.NewConversationState(domain.UserMessage("Iniciar atendimento"), domain.AssistantMessage("decision", text))
}

func TestKeyword_Route(t *testing.T) {
	r := decisionRouter()

	tests := []struct {
		name string
		last string
		want string
	}{
		{"first option", "Escolha a opção 1 por favor", "option1"},
		{"second option", "vou de opção 2", "option2"},
		{"case insensitive", "OPÇÃO 2", "option2"},
		{"first rule wins", "opção 2 ou opção 1", "option1"},
		{"default", "nenhuma das anteriores", "option3"},
		{"accents required by default", "opcao 1", "option3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Route(lastSays(tt.last)))
		})
	}
}

func TestKeyword_EmptyState(t *testing.T) {
	assert.Equal(t, "option3", decisionRouter().Route(domain.ConversationState{}))
}

func TestKeyword_DiacriticFolding(t *testing.T) {
	r := decisionRouter(routing.WithDiacriticFolding())
	assert.Equal(t, "option1", r.Route(lastSays("opcao 1")))
	assert.Equal(t, "option2", r.Route(lastSays("Opção 2")))
}

func TestKeyword_Deterministic(t *testing.T) {
	r := decisionRouter()
	s := lastSays("quero a opção 2")
	first := r.Route(s)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, r.Route(s))
	}
}

func TestKeyword_Candidates(t *testing.T) {
	r := routing.NewKeyword("option3",
		routing.Rule{Match: "a", Target: "option1"},
		routing.Rule{Match: "b", Target: "option1"},
		routing.Rule{Match: "c", Target: "option3"},
	)
	assert.Equal(t, []string{"option1", "option3"}, r.Candidates())
}

func TestAlways(t *testing.T) {
	r := routing.Always(domain.Terminal)
	assert.Equal(t, domain.Terminal, r.Route(domain.ConversationState{}))
	assert.Equal(t, []string{domain.Terminal}, r.Candidates())
}
