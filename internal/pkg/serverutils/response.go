package serverutils

// ApiResponse is the JSON envelope for non-streaming endpoints.
type ApiResponse[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

func SuccessResponse[T any](message string, data T) ApiResponse[T] {
	return ApiResponse[T]{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func FailureResponse(message string) ApiResponse[any] {
	return ApiResponse[any]{
		Success: false,
		Message: message,
	}
}
