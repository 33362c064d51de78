package dto

// Response is the success envelope every endpoint returns.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Success wraps data in a success envelope
func Success(data interface{}) Response {
	return Response{Success: true, Data: data}
}

// SuccessWithMessage wraps data and a human readable message
func SuccessWithMessage(message string, data interface{}) Response {
	return Response{Success: true, Message: message, Data: data}
}
