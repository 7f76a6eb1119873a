package dto

// APIResponse is the envelope returned by every product endpoint.
type APIResponse[T any] struct {
	Success bool                `json:"success"`
	Message *string             `json:"message"`
	Data    *T                  `json:"data"`
	Errors  map[string][]string `json:"errors"`
}

// Ok wraps a successful result.
func Ok[T any](data T, message string) APIResponse[T] {
	resp := APIResponse[T]{Success: true, Data: &data}
	if message != "" {
		resp.Message = &message
	}
	return resp
}

// Fail reports a failure with optional field errors.
func Fail(message string, errors map[string][]string) APIResponse[any] {
	resp := APIResponse[any]{Errors: errors}
	if message != "" {
		resp.Message = &message
	}
	return resp
}
