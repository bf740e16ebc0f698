package pkg

import (
	"errors"
	"fmt"
)

// 引擎对外的稳定错误码，handler层据此映射HTTP状态
const (
	CodeUnauthorized     = "unauthorized"
	CodeNotFound         = "not_found"
	CodeConflict         = "conflict"
	CodeInvalidInput     = "invalid_input"
	CodePartialOwnership = "partial_ownership"
	CodeStoreUnavailable = "store_unavailable"
	CodeDriftDetected    = "drift_detected"
)

var (
	ErrProfileNotFound  = &CodedError{Code: CodeNotFound, Msg: "profile not found"}
	ErrEntryNotFound    = &CodedError{Code: CodeNotFound, Msg: "entry not found"}
	ErrSelfFollow    = &CodedError{Code: CodeConflict, Msg: "cannot follow self"}
	ErrHandleTaken   = &CodedError{Code: CodeConflict, Msg: "handle already taken"}
	ErrProfileExists = &CodedError{Code: CodeConflict, Msg: "profile already exists"}
	ErrInvalidHandle = &CodedError{Code: CodeInvalidInput, Msg: "handle must be 3-30 chars of a-z 0-9 _"}
	ErrInvalidInput  = &CodedError{Code: CodeInvalidInput, Msg: "invalid input"}
	// ErrNotEntryOwner 单条entry越权；partial_ownership 只留给批量操作
	ErrNotEntryOwner = &CodedError{Code: CodeUnauthorized, Msg: "entry not owned by caller"}
	ErrNotOwner      = &CodedError{Code: CodePartialOwnership, Msg: "request references entries not owned by caller"}
)

// CodedError 带稳定错误码的业务错误
type CodedError struct {
	Code string
	Msg  string
	Err  error // 内部原因，不外泄
}

func (e *CodedError) Error() string { return e.Msg }

func (e *CodedError) Unwrap() error { return e.Err }

// StoreError 内部存储错误统一收敛为 store_unavailable，细节只进日志
func StoreError(op string, err error) *CodedError {
	return &CodedError{
		Code: CodeStoreUnavailable,
		Msg:  "storage temporarily unavailable",
		Err:  fmt.Errorf("%s: %w", op, err),
	}
}

// CodeOf 取错误对应的稳定码，非业务错误一律视为存储不可用
func CodeOf(err error) string {
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return CodeStoreUnavailable
}
