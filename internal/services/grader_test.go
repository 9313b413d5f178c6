package services

import (
	"reflect"
	"strconv"
	"testing"

	"learnify-backend/internal/models"
)

// twentyQuestions builds a full question set whose correct answers follow
// the given labels (padded with "A").
func twentyQuestions(correct ...string) []models.TestQuestion {
	questions := make([]models.TestQuestion, models.TestQuestionCount)
	for i := range questions {
		answer := "A"
		if i < len(correct) {
			answer = correct[i]
		}
		questions[i] = models.TestQuestion{
			ID:       i + 1,
			Question: "Question " + strconv.Itoa(i+1),
			Options: map[string]string{
				"A": "Option A", "B": "Option B", "C": "Option C",
			},
			CorrectAnswer: answer,
			Explanation:   "Because.",
		}
	}
	return questions
}

func allCorrectAnswers(questions []models.TestQuestion) map[string]string {
	answers := make(map[string]string, len(questions))
	for _, q := range questions {
		answers[strconv.Itoa(q.ID)] = q.CorrectAnswer
	}
	return answers
}

func TestGradePerfectScore(t *testing.T) {
	questions := twentyQuestions("B", "A")
	answers := allCorrectAnswers(questions)

	result := GradeTest(questions, answers)

	if result.CorrectCount != 20 {
		t.Errorf("correct count = %d, want 20", result.CorrectCount)
	}
	if result.Score != 100.0 {
		t.Errorf("score = %v, want 100.0", result.Score)
	}
	if result.Grade != "A" {
		t.Errorf("grade = %s, want A", result.Grade)
	}
	if !result.Passed {
		t.Error("perfect score must pass")
	}
}

func TestGradeEmptyAnswers(t *testing.T) {
	questions := twentyQuestions()

	result := GradeTest(questions, map[string]string{})

	if result.CorrectCount != 0 {
		t.Errorf("correct count = %d, want 0", result.CorrectCount)
	}
	if result.Score != 0.0 {
		t.Errorf("score = %v, want 0.0", result.Score)
	}
	if result.Grade != "F" {
		t.Errorf("grade = %s, want F", result.Grade)
	}
	if result.Passed {
		t.Error("zero score must not pass")
	}
	if result.IncorrectCount != 20 {
		t.Errorf("incorrect count = %d, want 20", result.IncorrectCount)
	}
}

func TestGradeMissingAnswersCountAsIncorrect(t *testing.T) {
	questions := twentyQuestions()
	answers := allCorrectAnswers(questions)
	delete(answers, "3")
	delete(answers, "17")
	answers["5"] = ""

	result := GradeTest(questions, answers)

	if result.CorrectCount != 17 {
		t.Errorf("correct count = %d, want 17", result.CorrectCount)
	}
	if result.Score != 85.0 {
		t.Errorf("score = %v, want 85.0", result.Score)
	}

	for _, r := range result.Results {
		if r.QuestionID == 3 || r.QuestionID == 5 || r.QuestionID == 17 {
			if r.UserAnswer != "" {
				t.Errorf("question %d: user answer = %q, want empty", r.QuestionID, r.UserAnswer)
			}
			if r.IsCorrect {
				t.Errorf("question %d: missing answer must be incorrect", r.QuestionID)
			}
		}
	}
}

func TestGradeThresholds(t *testing.T) {
	tests := []struct {
		correct    int
		wantScore  float64
		wantGrade  string
		wantPassed bool
	}{
		{20, 100.0, "A", true},
		{18, 90.0, "A", true}, // closed lower bound
		{17, 85.0, "B", true},
		{16, 80.0, "B", true},
		{15, 75.0, "C", true},
		{14, 70.0, "C", true},
		{13, 65.0, "D", true},
		{12, 60.0, "D", true},
		{11, 55.0, "F", false},
		{0, 0.0, "F", false},
	}

	for _, tt := range tests {
		questions := twentyQuestions()
		answers := map[string]string{}
		for i := 1; i <= tt.correct; i++ {
			answers[strconv.Itoa(i)] = "A"
		}
		for i := tt.correct + 1; i <= 20; i++ {
			answers[strconv.Itoa(i)] = "B"
		}

		result := GradeTest(questions, answers)

		if result.Score != tt.wantScore {
			t.Errorf("%d correct: score = %v, want %v", tt.correct, result.Score, tt.wantScore)
		}
		if result.Grade != tt.wantGrade {
			t.Errorf("%d correct: grade = %s, want %s", tt.correct, result.Grade, tt.wantGrade)
		}
		if result.Passed != tt.wantPassed {
			t.Errorf("%d correct: passed = %v, want %v", tt.correct, result.Passed, tt.wantPassed)
		}
	}
}

func TestGradeIsPure(t *testing.T) {
	questions := twentyQuestions("B", "C", "A")
	answers := map[string]string{"1": "B", "2": "A", "7": "A", "12": "C"}

	first := GradeTest(questions, answers)
	second := GradeTest(questions, answers)

	if !reflect.DeepEqual(first, second) {
		t.Error("grading the same inputs twice must yield identical results")
	}
}

func TestGradeResultsDetail(t *testing.T) {
	questions := twentyQuestions("B")
	answers := allCorrectAnswers(questions)
	answers["1"] = "C"

	result := GradeTest(questions, answers)

	if len(result.Results) != 20 {
		t.Fatalf("results detail has %d entries, want 20", len(result.Results))
	}

	first := result.Results[0]
	if first.QuestionID != 1 || first.UserAnswer != "C" || first.CorrectAnswer != "B" || first.IsCorrect {
		t.Errorf("unexpected detail for question 1: %+v", first)
	}
	if first.Explanation == "" || first.Question == "" || len(first.Options) != 3 {
		t.Errorf("detail must carry question text, options and explanation: %+v", first)
	}
}

func TestLetterGrade(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{100, "A"}, {90, "A"}, {89.999, "B"}, {80, "B"},
		{79.999, "C"}, {70, "C"}, {69.999, "D"}, {60, "D"},
		{59.999, "F"}, {0, "F"},
	}

	for _, tt := range tests {
		if got := letterGrade(tt.score); got != tt.want {
			t.Errorf("letterGrade(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}
