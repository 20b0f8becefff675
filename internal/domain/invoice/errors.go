package invoice

// DomainError carries a stable code alongside a human-readable message.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common pipeline errors. ErrHeaderNotFound and ErrNoRecipients are
// fatal-to-job: the orchestrator reverts the claim so the job stays eligible
// for a later attempt.
var (
	ErrHeaderNotFound = NewDomainError("HEADER_NOT_FOUND", "Invoice header row not found")
	ErrNoRecipients   = NewDomainError("NO_RECIPIENTS", "No valid recipient address after filtering")
	ErrInvalidState   = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)
