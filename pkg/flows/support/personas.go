package support

import "fmt"

// Persona names.
const (
	Friendly     = "friendly"
	Professional = "professional"
	Humorous     = "humorous"
)

// Personas maps a persona name to its instruction text.
var Personas = map[string]string{
	Friendly:     "You are a friendly and cheerful assistant. Respond in a warm, welcoming tone.",
	Professional: "You are a highly professional assistant. Respond with formality and precision.",
	Humorous:     "You are a humorous assistant. Respond with witty comments and a lighthearted tone.",
}

// Prompt renders the instruction sent to the reply service for a stage.
// Unknown personas get a neutral prompt.
func Prompt(persona, utterance string) string {
	return PromptWith(Personas, persona, utterance)
}

// PromptWith is Prompt over a custom persona table.
func PromptWith(personas map[string]string, persona, utterance string) string {
	if text, ok := personas[persona]; ok {
		return fmt.Sprintf("%s The user says: '%s'. Respond accordingly.", text, utterance)
	}
	return fmt.Sprintf("The user says: '%s'. Respond naturally.", utterance)
}
