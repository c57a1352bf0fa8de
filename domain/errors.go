package domain

import "fmt"

// Error codes
const (
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeFileNotFound       = "FILE_NOT_FOUND"
	ErrCodeParseError         = "PARSE_ERROR"
	ErrCodeAnalysisError      = "ANALYSIS_ERROR"
	ErrCodeConfigError        = "CONFIG_ERROR"
	ErrCodeOutputError        = "OUTPUT_ERROR"
	ErrCodeUnsupportedFormat  = "UNSUPPORTED_FORMAT"
	ErrCodeProviderValidation = "PROVIDER_VALIDATION"
	ErrCodeBaselineError      = "BASELINE_ERROR"
	ErrCodeRuleOrder          = "RULE_ORDER"
	ErrCodeCancelled          = "CANCELLED"
	ErrCodeIllegalState       = "ILLEGAL_STATE"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface
func (e DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e DomainError) Unwrap() error {
	return e.Cause
}

// Is matches another DomainError by code so errors.Is can test for a category
func (e DomainError) Is(target error) bool {
	t, ok := target.(DomainError)
	return ok && t.Code == e.Code && t.Message == ""
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, cause error) error {
	return DomainError{Code: code, Message: message, Cause: cause}
}

// NewInvalidInputError creates an invalid input error
func NewInvalidInputError(message string, cause error) error {
	return NewDomainError(ErrCodeInvalidInput, message, cause)
}

// NewFileNotFoundError creates a file not found error
func NewFileNotFoundError(path string, cause error) error {
	return NewDomainError(ErrCodeFileNotFound, "file not found: "+path, cause)
}

// NewParseError creates a parse error
func NewParseError(path string, cause error) error {
	return NewDomainError(ErrCodeParseError, "failed to parse "+path, cause)
}

// NewAnalysisError creates an analysis error
func NewAnalysisError(message string, cause error) error {
	return NewDomainError(ErrCodeAnalysisError, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) error {
	return NewDomainError(ErrCodeConfigError, message, cause)
}

// NewOutputError creates an output error
func NewOutputError(message string, cause error) error {
	return NewDomainError(ErrCodeOutputError, message, cause)
}

// NewUnsupportedFormatError creates an unsupported format error
func NewUnsupportedFormatError(format string) error {
	return NewDomainError(ErrCodeUnsupportedFormat, "unsupported output format: "+format, nil)
}

// NewProviderValidationError reports a rule set provider that declared an invalid rule set
func NewProviderValidationError(ruleSetID, message string, cause error) error {
	return NewDomainError(ErrCodeProviderValidation, fmt.Sprintf("rule set '%s': %s", ruleSetID, message), cause)
}

// NewBaselineError creates a baseline I/O or format error
func NewBaselineError(message string, cause error) error {
	return NewDomainError(ErrCodeBaselineError, message, cause)
}

// NewRuleOrderError reports unsatisfiable rule ordering constraints
func NewRuleOrderError(ruleSetID, message string) error {
	return NewDomainError(ErrCodeRuleOrder, fmt.Sprintf("rule set '%s': %s", ruleSetID, message), nil)
}

// NewCancelledError reports a run that stopped before all files were analyzed
func NewCancelledError(message string, cause error) error {
	return NewDomainError(ErrCodeCancelled, message, cause)
}

// ErrConfig etc. are sentinel values for errors.Is checks against a category.
var (
	ErrConfig             = DomainError{Code: ErrCodeConfigError}
	ErrProviderValidation = DomainError{Code: ErrCodeProviderValidation}
	ErrBaseline           = DomainError{Code: ErrCodeBaselineError}
	ErrRuleOrder          = DomainError{Code: ErrCodeRuleOrder}
	ErrCancelled          = DomainError{Code: ErrCodeCancelled}
	ErrIllegalState       = DomainError{Code: ErrCodeIllegalState}
)
