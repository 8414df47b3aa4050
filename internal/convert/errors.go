package convert

import "fmt"

// エラーコードはAPI応答の code フィールドにそのまま使われます。
const (
	CodeInvalidInput          = "INVALID_INPUT"
	CodeUnsupportedFormat     = "UNSUPPORTED_FORMAT"
	CodeUnsupportedSourceType = "UNSUPPORTED_SOURCE_TYPE"
	CodeInvalidDocument       = "INVALID_DOCUMENT"
	CodeDecodeFailed          = "DECODE_FAILED"
	CodeEmptyInput            = "EMPTY_INPUT"
	CodeUnknownCategory       = "UNKNOWN_CATEGORY"
	CodeUnknownUnit           = "UNKNOWN_UNIT"
	CodeNotFound              = "NOT_FOUND"
	CodeLimitExceeded         = "LIMIT_EXCEEDED"
	CodeInternal              = "INTERNAL_ERROR"
)

// Error はAPI応答へ対応付けられる型付きエラーです。
type Error struct {
	Code    string
	Message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.err
}

func newError(code, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		err:     err,
	}
}
