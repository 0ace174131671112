package prompt

import (
	"fmt"
	"strings"
)

// Multiquery renders the decomposition instruction that asks the model to
// break one complex question into an enumerated list of simpler ones.
func Multiquery(question string) string {
	var prompt strings.Builder

	prompt.WriteString("<task>\n")
	prompt.WriteString("You are an expert at breaking a complex question into simpler sub-questions.\n")
	prompt.WriteString("Decompose the question below into the minimal set of independent sub-questions that together answer it.\n")
	prompt.WriteString("</task>\n\n")

	prompt.WriteString("<guidelines>\n")
	prompt.WriteString("- Output ONLY a numbered list, one sub-question per line (e.g. \"1. ...\").\n")
	prompt.WriteString("- Each sub-question must be answerable on its own.\n")
	prompt.WriteString("- If the question is already simple, output it as the single item of the list.\n")
	prompt.WriteString("- Do not answer the questions.\n")
	prompt.WriteString("</guidelines>\n\n")

	prompt.WriteString("<question>\n")
	prompt.WriteString(question)
	prompt.WriteString("\n</question>\n")

	return prompt.String()
}

// QueryRewriter renders the contextual rewrite instruction. The
// conversation history gives the model the referents it needs to make the
// question self-contained.
func QueryRewriter(conversationHistory, question string) string {
	var prompt strings.Builder

	prompt.WriteString("<task>\n")
	prompt.WriteString("Rewrite the follow-up question so it is fully self-contained, resolving every pronoun and implicit reference using the conversation so far.\n")
	prompt.WriteString("Output only the rewritten question, nothing else.\n")
	prompt.WriteString("</task>\n\n")

	prompt.WriteString("<conversation_history>\n")
	prompt.WriteString(conversationHistory)
	prompt.WriteString("\n</conversation_history>\n\n")

	prompt.WriteString("<question>\n")
	prompt.WriteString(question)
	prompt.WriteString("\n</question>\n")

	return prompt.String()
}

// RAGSystem renders the system prompt used when answering one question
// against retrieved context.
func RAGSystem(context string) string {
	var prompt strings.Builder

	prompt.WriteString("You are a helpful assistant answering questions strictly from the reference material below.\n")
	prompt.WriteString("If the material does not contain the answer, say so honestly instead of guessing.\n\n")

	prompt.WriteString("<reference_material>\n")
	prompt.WriteString(context)
	prompt.WriteString("\n</reference_material>\n")

	return prompt.String()
}

// FollowupQuestion renders the continuation check. The model must reply
// with a single new question when a gap remains, or an empty string when
// the accumulated answers already cover the original question.
func FollowupQuestion(conversationHistory, question, context string) string {
	var prompt strings.Builder

	prompt.WriteString("<task>\n")
	prompt.WriteString("Decide whether the conversation below fully answers the original question.\n")
	prompt.WriteString("If something essential is still missing, output ONE follow-up question that would close the gap.\n")
	prompt.WriteString("If nothing is missing, output an empty string.\n")
	prompt.WriteString("Output only the question or the empty string, nothing else.\n")
	prompt.WriteString("</task>\n\n")

	prompt.WriteString("<original_question>\n")
	prompt.WriteString(question)
	prompt.WriteString("\n</original_question>\n\n")

	prompt.WriteString("<conversation_history>\n")
	prompt.WriteString(conversationHistory)
	prompt.WriteString("\n</conversation_history>\n\n")

	prompt.WriteString("<retrieved_context>\n")
	prompt.WriteString(context)
	prompt.WriteString("\n</retrieved_context>\n")

	return prompt.String()
}

// FinalResponse renders the synthesis prompt that turns the accumulated
// sub-answers and contexts into one comprehensive answer.
func FinalResponse(conversationHistory, context, question string) string {
	var prompt strings.Builder

	prompt.WriteString("<task>\n")
	prompt.WriteString("Write a comprehensive final answer to the original question, synthesizing the sub-answers and the reference material below.\n")
	prompt.WriteString("</task>\n\n")

	prompt.WriteString("<guidelines>\n")
	prompt.WriteString("1. Base the answer only on the conversation and the reference material.\n")
	prompt.WriteString("2. Resolve contradictions explicitly rather than ignoring them.\n")
	prompt.WriteString("3. Be complete but do not repeat yourself.\n")
	prompt.WriteString("</guidelines>\n\n")

	prompt.WriteString("<conversation_history>\n")
	prompt.WriteString(conversationHistory)
	prompt.WriteString("\n</conversation_history>\n\n")

	prompt.WriteString("<reference_material>\n")
	prompt.WriteString(context)
	prompt.WriteString("\n</reference_material>\n\n")

	prompt.WriteString("<original_question>\n")
	prompt.WriteString(question)
	prompt.WriteString("\n</original_question>\n\n")

	prompt.WriteString("Answer:")

	return prompt.String()
}

// DocumentSummary renders the prompt used when summarizing a freshly
// ingested document.
func DocumentSummary(fileName, content string) string {
	var prompt strings.Builder

	prompt.WriteString("<task>\n")
	prompt.WriteString(fmt.Sprintf("Summarize the document %q in a short paragraph covering its main topics and conclusions.\n", fileName))
	prompt.WriteString("</task>\n\n")

	prompt.WriteString("<document>\n")
	prompt.WriteString(content)
	prompt.WriteString("\n</document>\n")

	return prompt.String()
}
