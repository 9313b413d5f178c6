package services

import (
	"fmt"
	"strings"

	"learnify-backend/internal/models"
)

// maxDocumentPromptChars caps how much of one document's extracted text is
// fed into a prompt, for both chat context and test generation.
const maxDocumentPromptChars = 30000

// historyWindow is how many prior turns the chat prompt carries.
const historyWindow = 10

const systemInstructions = `You are Learnify AI, an intelligent learning assistant. Your role is to help users understand and learn from their uploaded study materials.

Guidelines:
- Be helpful, accurate, and educational
- Focus on learning and comprehension
- Use the provided document context to answer questions
- If you don't know something from the documents, say so clearly
- Encourage critical thinking and deeper understanding
- Provide explanations in a clear, structured way
- Use examples when helpful
- Stay on topic and be concise but thorough

Always prioritize accuracy and educational value in your responses.`

// buildChatPrompt assembles the full prompt for one message exchange:
// system instructions, then document context and recent history, then the
// new user message.
func buildChatPrompt(docs []*models.Document, history []*models.Message, message string) string {
	context := buildContextBlock(buildDocumentContext(docs), history)
	return systemInstructions + "\n\n" + context + "\n\nUser: " + message
}

// buildDocumentContext renders the linked documents as labeled blocks. If
// documents are linked but none have usable text, it emits an explicit
// advisory instead of silently omitting them.
func buildDocumentContext(docs []*models.Document) string {
	if len(docs) == 0 {
		return ""
	}

	var blocks []string
	for _, doc := range docs {
		if strings.TrimSpace(doc.ExtractedText) == "" {
			continue
		}
		blocks = append(blocks, documentBlock(doc))
	}

	if len(blocks) == 0 {
		var lines []string
		for _, doc := range docs {
			lines = append(lines, fmt.Sprintf("- %s (%s, %s)", doc.Title, doc.FileType, doc.Status))
		}
		return fmt.Sprintf(`Note: This conversation is linked to %d document(s), but none of them have readable content available.
The documents may still be processing or there may have been an issue during upload. You should let the user know about this.

Linked documents:
%s`, len(docs), strings.Join(lines, "\n"))
	}

	return fmt.Sprintf(`You are an AI assistant helping a user understand and work with their uploaded documents.
The user has uploaded the following document(s) and wants to discuss them:

%s

Please reference these documents when answering the user's questions. You can quote directly from the documents,
summarize their content, answer questions about them, and help the user understand the material.`,
		strings.Join(blocks, "\n"))
}

// truncateDocumentText caps extracted text at maxDocumentPromptChars
// characters. The cut lands on a rune boundary; splitting a multibyte rune
// would feed invalid UTF-8 to the generative API, which rejects it.
func truncateDocumentText(text string) (string, bool) {
	if len(text) <= maxDocumentPromptChars {
		return text, false
	}
	n := 0
	for i := range text {
		if n == maxDocumentPromptChars {
			return text[:i] + "...", true
		}
		n++
	}
	return text, false
}

func documentBlock(doc *models.Document) string {
	text, _ := truncateDocumentText(doc.ExtractedText)

	return fmt.Sprintf(`=== DOCUMENT: %s ===
File Type: %s
Original Filename: %s
File Size: %d bytes
Pages/Slides: %d
Word Count: %d
Status: %s
Upload Date: %s

DOCUMENT CONTENT:
%s

=== END DOCUMENT: %s ===`,
		doc.Title,
		strings.ToUpper(doc.FileType),
		doc.OriginalFilename,
		doc.FileSize,
		doc.PageCount,
		doc.WordCount,
		doc.Status,
		doc.CreatedAt.Format("2006-01-02 15:04"),
		text,
		doc.Title,
	)
}

// buildContextBlock joins document context and the last turns of history.
// History lines read "Role: content" with the role title-cased.
func buildContextBlock(documentContext string, history []*models.Message) string {
	var parts []string

	if documentContext != "" {
		parts = append(parts, "DOCUMENT CONTEXT:\n"+documentContext)
	}

	if len(history) > 0 {
		recent := history
		if len(recent) > historyWindow {
			recent = recent[len(recent)-historyWindow:]
		}
		lines := make([]string, 0, len(recent))
		for _, msg := range recent {
			lines = append(lines, titleRole(msg.Role)+": "+msg.Content)
		}
		parts = append(parts, "CONVERSATION HISTORY:\n"+strings.Join(lines, "\n"))
	}

	return strings.Join(parts, "\n\n")
}

func titleRole(role string) string {
	if role == "" {
		return role
	}
	return strings.ToUpper(role[:1]) + role[1:]
}

// estimateTokens approximates usage at four characters per token. The
// generative API does not report exact counts for this flow.
func estimateTokens(text string) int {
	return len(text) / 4
}
