package models

type ApiResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Code    ErrorKind         `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// Page is the envelope for paginated lists.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
}

func NewPage[T any](items []T, total int64, p Pagination) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, Page: p.Page, Size: p.Size}
}

func SuccessResponse(data interface{}, message string) ApiResponse {
	return ApiResponse{
		Success: true,
		Data:    data,
		Message: message,
	}
}

func ErrorResponse(err string) ApiResponse {
	return ApiResponse{
		Success: false,
		Error:   err,
	}
}

func AppErrorResponse(err *AppError) ApiResponse {
	return ApiResponse{
		Success: false,
		Error:   err.Message,
		Code:    err.Kind,
		Details: err.Fields,
	}
}
