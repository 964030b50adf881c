package server

// SubmitRequest is the body of POST /submit.
type SubmitRequest struct {
	Narrative string `json:"narrative"`
}

// SubmitResponse reports whether the narrative was queued.
type SubmitResponse struct {
	Status  string `json:"status"` // "accepted" or "duplicate"
	Message string `json:"message"`
}

// ResultResponse is one drained interpretation.
type ResultResponse struct {
	Narrative      string `json:"narrative"`
	Interpretation string `json:"interpretation"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status             string `json:"status"`
	Timestamp          string `json:"timestamp"`
	QueueSize          int    `json:"queue_size"`
	UnreadResults      int    `json:"unread_results"`
	ActiveBackends     int    `json:"active_backends"`
	ActiveSessionPairs int    `json:"active_session_pairs"`
}

// ErrorResponse is returned for rejected requests.
type ErrorResponse struct {
	Error string `json:"error"`
}
