package models

import "github.com/google/uuid"

// APIError is the error envelope returned by every endpoint.
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

// WSMessage is pushed to connected clients over the websocket hub.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type DocumentEvent struct {
	DocumentID uuid.UUID `json:"document_id"`
	Title      string    `json:"title"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
}

type TestEvent struct {
	TestID     uuid.UUID `json:"test_id"`
	DocumentID uuid.UUID `json:"document_id"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
}

type AttemptEvent struct {
	AttemptID uuid.UUID `json:"attempt_id"`
	TestID    uuid.UUID `json:"test_id"`
	Score     float64   `json:"score"`
	Grade     string    `json:"grade"`
	Passed    bool      `json:"passed"`
}
