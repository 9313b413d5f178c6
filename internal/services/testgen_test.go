package services

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"learnify-backend/internal/models"
)

// questionPayload renders a full valid 20-question response, with an
// optional mutation applied before marshaling.
func questionPayload(t *testing.T, mutate func([]map[string]any)) string {
	t.Helper()

	items := make([]map[string]any, models.TestQuestionCount)
	for i := range items {
		items[i] = map[string]any{
			"id":       i + 1,
			"question": "What does section " + string(rune('A'+i%26)) + " cover?",
			"options": map[string]string{
				"A": "First option", "B": "Second option", "C": "Third option",
			},
			"correct_answer": "B",
			"explanation":    "Section content explains this directly.",
		}
	}
	if mutate != nil {
		mutate(items)
	}

	data, err := json.Marshal(items)
	if err != nil {
		t.Fatalf("marshaling payload: %v", err)
	}
	return string(data)
}

func TestParseTestQuestionsValid(t *testing.T) {
	questions, err := parseTestQuestions(questionPayload(t, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 20 {
		t.Fatalf("got %d questions, want 20", len(questions))
	}
	if questions[4].ID != 5 || questions[4].CorrectAnswer != "B" {
		t.Errorf("question 5 parsed wrong: %+v", questions[4])
	}
}

func TestParseTestQuestionsStripsCodeFence(t *testing.T) {
	fenced := "```json\n" + questionPayload(t, nil) + "\n```"

	questions, err := parseTestQuestions(fenced)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 20 {
		t.Fatalf("got %d questions, want 20", len(questions))
	}
}

func TestParseTestQuestionsRejections(t *testing.T) {
	tests := []struct {
		name    string
		payload func(t *testing.T) string
		wantMsg string
	}{
		{
			name:    "not json",
			payload: func(t *testing.T) string { return "Here are your questions!" },
			wantMsg: "Invalid JSON",
		},
		{
			name: "too few items",
			payload: func(t *testing.T) string {
				raw := questionPayload(t, nil)
				var items []json.RawMessage
				json.Unmarshal([]byte(raw), &items)
				data, _ := json.Marshal(items[:19])
				return string(data)
			},
			wantMsg: "Expected 20 questions, got 19",
		},
		{
			name: "id mismatch",
			payload: func(t *testing.T) string {
				return questionPayload(t, func(items []map[string]any) { items[6]["id"] = 99 })
			},
			wantMsg: "ID mismatch",
		},
		{
			name: "missing explanation",
			payload: func(t *testing.T) string {
				return questionPayload(t, func(items []map[string]any) { delete(items[2], "explanation") })
			},
			wantMsg: "missing required field: explanation",
		},
		{
			name: "missing option C",
			payload: func(t *testing.T) string {
				return questionPayload(t, func(items []map[string]any) {
					items[0]["options"] = map[string]string{"A": "one", "B": "two"}
				})
			},
			wantMsg: "options must contain exactly keys A, B and C",
		},
		{
			name: "extra option D",
			payload: func(t *testing.T) string {
				return questionPayload(t, func(items []map[string]any) {
					items[0]["options"] = map[string]string{"A": "one", "B": "two", "C": "three", "D": "four"}
				})
			},
			wantMsg: "options must contain exactly keys A, B and C",
		},
		{
			name: "blank option",
			payload: func(t *testing.T) string {
				return questionPayload(t, func(items []map[string]any) {
					items[9]["options"] = map[string]string{"A": "one", "B": "  ", "C": "three"}
				})
			},
			wantMsg: "option B must be a non-empty string",
		},
		{
			name: "correct answer out of range",
			payload: func(t *testing.T) string {
				return questionPayload(t, func(items []map[string]any) { items[3]["correct_answer"] = "D" })
			},
			wantMsg: "correct_answer must be A, B, or C",
		},
		{
			name: "blank question text",
			payload: func(t *testing.T) string {
				return questionPayload(t, func(items []map[string]any) { items[11]["question"] = "   " })
			},
			wantMsg: "question text must be a non-empty string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseTestQuestions(tt.payload(t))
			if err == nil {
				t.Fatal("expected rejection")
			}

			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected ParseError, got %T: %v", err, err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestBuildTestGenerationPrompt(t *testing.T) {
	prompt := buildTestGenerationPrompt("Photosynthesis converts light into chemical energy.")

	for _, want := range []string{
		"DOCUMENT CONTENT:",
		"Photosynthesis converts light into chemical energy.",
		"Generate exactly 20 multiple-choice questions",
		"Do NOT wrap the JSON in markdown code blocks",
		"correct_answer",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGenerationPromptValidUTF8AtTruncationBoundary(t *testing.T) {
	text := strings.Repeat("a", maxDocumentPromptChars-1) + strings.Repeat("é", 50)

	capped, truncated := truncateDocumentText(text)
	if !truncated {
		t.Fatal("text over the cap should report truncation")
	}

	prompt := buildTestGenerationPrompt(capped)
	if !utf8.ValidString(prompt) {
		t.Error("generation prompt is not valid UTF-8")
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"```json\n[1]\n```", "[1]"},
		{"```\n[1]\n```", "[1]"},
		{"[1]", "[1]"},
		{"  [1]  ", "[1]"},
	}

	for _, tt := range tests {
		if got := stripCodeFence(tt.in); got != tt.want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
