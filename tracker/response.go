package tracker

import (
	"path/filepath"
	"runtime"
)

// Callback delivers the terminal response of a wait request to the HTTP
// layer. It is a one-shot: the tracker invokes it exactly once, either with a
// WaitResponse or with an ErrorResponse body. Invocations must return
// promptly; the HTTP layer owns the actual write to the client.
type Callback func(status int, body any)

// WaitResponse is the success payload of a wait request. It carries the
// metadata of the block the transaction was last observed in.
type WaitResponse struct {
	BlockNum       uint32 `json:"block_num"`
	RefBlockNum    uint16 `json:"ref_block_num"`
	RefBlockPrefix uint32 `json:"ref_block_prefix"`
}

// ErrorDetail identifies the site an error response originates from.
type ErrorDetail struct {
	File       string `json:"file"`
	LineNumber uint64 `json:"line_number"`
	Method     string `json:"method"`
}

// ErrorDetails wraps the detail list of an error response.
type ErrorDetails struct {
	Details []ErrorDetail `json:"details"`
}

// ErrorResponse is the error payload of a wait request. The shape is part of
// the external wire contract.
type ErrorResponse struct {
	Code    uint16       `json:"code"`
	Message string       `json:"message"`
	Error   ErrorDetails `json:"error"`
}

// NewErrorResult builds an ErrorResponse recording the caller as the origin
// site. It is the error payload constructor shared by every layer answering
// on the wait wire contract.
func NewErrorResult(code uint16, message string) ErrorResponse {
	return errorResultAt(2, code, message)
}

func newErrorResult(code uint16, message string) ErrorResponse {
	return errorResultAt(2, code, message)
}

func errorResultAt(skip int, code uint16, message string) ErrorResponse {
	detail := ErrorDetail{}
	if pc, file, line, ok := runtime.Caller(skip); ok {
		detail.File = filepath.Base(file)
		detail.LineNumber = uint64(line)
		if fn := runtime.FuncForPC(pc); fn != nil {
			detail.Method = filepath.Base(fn.Name())
		}
	}
	return ErrorResponse{
		Code:    code,
		Message: message,
		Error:   ErrorDetails{Details: []ErrorDetail{detail}},
	}
}
