package services

import (
	"strconv"

	"learnify-backend/internal/models"
)

// GradeResult is the full outcome of grading one answer set.
type GradeResult struct {
	Score          float64
	Grade          string
	Passed         bool
	CorrectCount   int
	IncorrectCount int
	Results        []models.QuestionResult
}

// GradeTest scores a submitted answer set against a test's questions. It is
// pure: the same (questions, answers) always yields the same result. Answers
// map question-id-as-string to a label; a missing id counts as an empty,
// incorrect answer.
func GradeTest(questions []models.TestQuestion, answers map[string]string) GradeResult {
	result := GradeResult{Results: make([]models.QuestionResult, 0, len(questions))}

	for _, q := range questions {
		submitted := answers[strconv.Itoa(q.ID)]
		isCorrect := submitted == q.CorrectAnswer
		if isCorrect {
			result.CorrectCount++
		}

		result.Results = append(result.Results, models.QuestionResult{
			QuestionID:    q.ID,
			Question:      q.Question,
			Options:       q.Options,
			UserAnswer:    submitted,
			CorrectAnswer: q.CorrectAnswer,
			IsCorrect:     isCorrect,
			Explanation:   q.Explanation,
		})
	}

	result.IncorrectCount = len(questions) - result.CorrectCount
	if len(questions) > 0 {
		result.Score = float64(result.CorrectCount) / float64(len(questions)) * 100
	}
	result.Grade = letterGrade(result.Score)
	result.Passed = result.Score >= 60

	return result
}

// letterGrade maps a percentage score to a letter. Thresholds are closed on
// the lower bound: exactly 90 is an A, 89.999 a B.
func letterGrade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}
