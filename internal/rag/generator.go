package rag

import (
	"context"
	"strings"

	wl "github.com/abadojack/whatlanggo"
)

const (
	systemInstruction = "You are an AI assistant helping the reader of an online technical book on Physical AI and Humanoid Robotics. " +
		"Answer primarily from the provided book context and be concise. " +
		"If the answer is not in the context, say that you cannot find it in the book."

	noContextInstruction = "No book context is available for this question. " +
		"Answer from general knowledge and state clearly that the answer does not come from the book."

	emptyResponseNotice = "I received an empty response from the AI model. Please try again."

	// LangAuto detects the answer language from the question; LangOff
	// leaves the language to the model.
	LangAuto = "auto"
	LangOff  = "off"
)

// Generator turns a question and its context into a model answer.
type Generator struct {
	llm    LLMClient
	model  string
	params GenerationParams
	lang   string
}

func NewGenerator(llm LLMClient, model string, params GenerationParams, lang string) *Generator {
	return &Generator{
		llm:    llm,
		model:  model,
		params: params,
		lang:   lang,
	}
}

func (g *Generator) Model() string {
	return g.model
}

// Generate returns the model's answer, never blank. Provider errors are
// returned unchanged for the caller to classify.
func (g *Generator) Generate(ctx context.Context, question, contextText string) (string, error) {
	resp, err := g.llm.Generate(ctx, g.model, g.BuildPrompt(question, contextText), g.params)
	if err != nil {
		return "", err
	}

	answer := extractAnswer(resp)
	if strings.TrimSpace(answer) == "" {
		return emptyResponseNotice, nil
	}
	return answer, nil
}

// BuildPrompt concatenates the instruction, the context section and the
// question. An empty context selects the general-knowledge instruction.
func (g *Generator) BuildPrompt(question, contextText string) string {
	var b strings.Builder

	b.WriteString(systemInstruction)
	if lang := g.answerLanguage(question); lang != "" {
		b.WriteString(" Respond in ")
		b.WriteString(lang)
		b.WriteString(".")
	}
	b.WriteString("\n\n")

	if contextText == "" {
		b.WriteString(noContextInstruction)
	} else {
		b.WriteString("Book context:\n")
		b.WriteString(contextText)
	}

	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)

	return b.String()
}

func (g *Generator) answerLanguage(question string) string {
	switch strings.ToLower(strings.TrimSpace(g.lang)) {
	case "", LangOff:
		return ""
	case LangAuto:
		return detectLang(question)
	default:
		return g.lang
	}
}

// detectLang names the question's language, or "" when the guess is not
// reliable. Short technical questions often are not.
func detectLang(s string) string {
	info := wl.Detect(s)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.String()
}

func extractAnswer(r Response) string {
	switch r.Kind {
	case ResponseText:
		return r.Text
	case ResponseCandidates:
		if len(r.Candidates) == 0 {
			return ""
		}
		c := r.Candidates[0]
		if len(c.Parts) > 0 {
			return c.Parts[0]
		}
		return c.Raw
	default:
		return r.Text
	}
}
