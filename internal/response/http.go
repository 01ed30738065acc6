package response

type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// TableData is one page of a gold table. Null cells are JSON null.
type TableData struct {
	Table   string               `json:"table"`
	Columns []string             `json:"columns"`
	Count   int                  `json:"count"`
	Rows    []map[string]*string `json:"rows"`
}

type RunAccepted struct {
	RunID string `json:"run_id"`
}
