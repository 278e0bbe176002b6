package dto

// Machine-readable error codes carried in failed responses.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "PEDIDO_NOT_FOUND"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeAlreadyDelivered  = "PEDIDO_ALREADY_DELIVERED"
	CodeAlreadyCanceled   = "PEDIDO_ALREADY_CANCELED"
	CodeStateConflict     = "STATE_CONFLICT"
	CodeCatalogIntegrity  = "CATALOG_INTEGRITY"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeConflict          = "CONFLICT"
	CodeInternal          = "INTERNAL_ERROR"
)

// Envelope wraps every JSON response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// OK wraps a successful payload.
func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// Fail builds a failed envelope.
func Fail(message, code string) Envelope {
	return Envelope{Error: message, Code: code}
}
