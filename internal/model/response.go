package model

// Response is a generic struct for API responses
type Response struct {
	Data    interface{} `json:"data,omitempty"`
	Error   *string     `json:"error,omitempty"`
	Message string      `json:"message"`
}

// ErrorResponse builds an error envelope with the given message.
func ErrorResponse(errMsg, message string) Response {
	return Response{Error: &errMsg, Message: message}
}
