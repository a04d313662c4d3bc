package errors

// ErrorResponse is the google-style error body returned by the API,
// e.g. {"error": {"code": 404, "message": "...", "status": "NOT_FOUND"}}
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}
