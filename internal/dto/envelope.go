package dto

import "github.com/yukikurage/task-tracker-api/internal/validation"

// Envelope is the shape of every API response.
type Envelope struct {
	Success bool                    `json:"success"`
	Message string                  `json:"message,omitempty"`
	Data    any                     `json:"data,omitempty"`
	Errors  []validation.FieldError `json:"errors,omitempty"`
}

// Success wraps data in a successful envelope.
func Success(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// SuccessMessage wraps data and a human-readable message.
func SuccessMessage(message string, data any) Envelope {
	return Envelope{Success: true, Message: message, Data: data}
}

// Failure builds an unsuccessful envelope.
func Failure(message string, fields []validation.FieldError) Envelope {
	return Envelope{Success: false, Message: message, Errors: fields}
}
