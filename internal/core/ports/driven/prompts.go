package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Unknown names fall back to the built-in default when one exists.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptAnswerSystem is the system prompt for grounded answers.
	// It has no format placeholders.
	PromptAnswerSystem = "answer_system"

	// PromptAnswerUser wraps the retrieved context and the question.
	// The template expects two %s placeholders: context, then question.
	PromptAnswerUser = "answer_user"
)

// DefaultPrompts returns the built-in prompt templates.
func DefaultPrompts() map[string]string {
	return map[string]string{
		PromptAnswerSystem: `You are a knowledgeable assistant for cryptocurrency tokens and digital assets.
Answer using only the context provided with each question. If the context does not
contain the answer, say so plainly instead of guessing. Quote figures (prices, supply,
risk scores) exactly as they appear and name the asset each figure belongs to.`,

		PromptAnswerUser: `Context:
%s

Question: %s`,
	}
}
