package models

type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

// QuestionEvent is published on redis after a committed transition and fanned
// out to websocket clients. Delivery is best-effort; clients poll as fallback.
type QuestionEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Numbers   []int  `json:"numbers,omitempty"`
}
