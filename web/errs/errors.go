// Package errs defines the errors handlers return to the web layer and
// the JSON envelope they are rendered into.
package errs

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
)

// Error is a handler failure with the status code it should be answered
// with. The wrapped cause stays reachable through Unwrap.
type Error struct {
	Code     int
	Message  string
	FuncName string
	FileName string
	InnerErr bool

	cause error
}

// New wraps err for the client to see as is.
func New(code int, err error) *Error {
	pc, filename, line, _ := runtime.Caller(1)

	return &Error{
		Code:     code,
		Message:  err.Error(),
		FuncName: runtime.FuncForPC(pc).Name(),
		FileName: fmt.Sprintf("%s:%d", filename, line),
		cause:    err,
	}
}

// NewInternal wraps err as a 500 whose message is replaced by the status
// text once it has been logged.
func NewInternal(err error) *Error {
	pc, filename, line, _ := runtime.Caller(1)

	return &Error{
		Code:     http.StatusInternalServerError,
		Message:  err.Error(),
		FuncName: runtime.FuncForPC(pc).Name(),
		FileName: fmt.Sprintf("%s:%d", filename, line),
		InnerErr: true,
		cause:    err,
	}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// IsInternal reports whether the message must be hidden from clients.
func (e *Error) IsInternal() bool {
	return e.InnerErr
}

// MarshalJSON renders the failure envelope shared by every API route.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Success bool   `json:"success"`
		Code    int    `json:"code"`
		Error   string `json:"error"`
	}{
		Code:  e.Code,
		Error: e.Message,
	})
}

// /////////////////////////////////////////////////////////////////////////////////////////////

// FieldError is a validation failure on one request field.
type FieldError struct {
	Field string `json:"field"`
	Err   string `json:"error"`
}

// FieldErrors collects the failures of one validation pass.
type FieldErrors []FieldError

// NewFieldsError creates a single field error.
func NewFieldsError(field string, err error) error {
	return FieldErrors{
		{
			Field: field,
			Err:   err.Error(),
		},
	}
}

func (fe FieldErrors) Error() string {
	d, err := json.Marshal([]FieldError(fe))
	if err != nil {
		return err.Error()
	}
	return string(d)
}

// MarshalJSON renders the failure envelope with the offending fields.
func (fe FieldErrors) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Success bool         `json:"success"`
		Code    int          `json:"code"`
		Error   string       `json:"error"`
		Fields  []FieldError `json:"fields"`
	}{
		Code:   http.StatusUnprocessableEntity,
		Error:  "validation failed",
		Fields: []FieldError(fe),
	})
}

// Fields maps field names to their failure.
func (fe FieldErrors) Fields() map[string]string {
	m := make(map[string]string, len(fe))
	for _, fld := range fe {
		m[fld.Field] = fld.Err
	}
	return m
}

// GetFieldErrors returns the FieldErrors in err's chain, or nil.
func GetFieldErrors(err error) FieldErrors {
	fe, ok := errors.AsType[FieldErrors](err)
	if !ok {
		return nil
	}
	return fe
}
