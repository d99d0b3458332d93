package apperrors

import (
	"fmt"
	"net/http"
)

// Kind 错误分类，决定对外的 HTTP 状态码
type Kind int

const (
	KindSystem Kind = iota
	KindValidation
	KindNotFound
	KindInvalidTarget
	KindUpstreamUnavailable
	KindUpstreamStatus
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindInvalidTarget:
		return "invalid_target"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	case KindUpstreamStatus:
		return "upstream_status"
	default:
		return "system"
	}
}

// 哨兵错误，用于 errors.Is 按分类判断
var (
	ErrValidation          = &AppError{Kind: KindValidation}
	ErrNotFound            = &AppError{Kind: KindNotFound}
	ErrInvalidTarget       = &AppError{Kind: KindInvalidTarget}
	ErrUpstreamUnavailable = &AppError{Kind: KindUpstreamUnavailable}
	ErrUpstreamStatus      = &AppError{Kind: KindUpstreamStatus}
	ErrSystem              = &AppError{Kind: KindSystem}
)

// AppError 自定义错误类型
type AppError struct {
	Code      int
	Kind      Kind
	MessageID string                 // i18n 消息 ID
	Message   string                 // 默认（英文）消息
	Data      map[string]interface{} // 消息模板参数
	Cause     error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is 同一分类的 AppError 视为相等
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newError(kind Kind, code int, messageID, message string) *AppError {
	return &AppError{
		Code:      code,
		Kind:      kind,
		MessageID: messageID,
		Message:   message,
	}
}

// Validation 输入缺失或格式错误（400）
func Validation(messageID, message string) *AppError {
	return newError(KindValidation, http.StatusBadRequest, messageID, message)
}

// NotFound 短码不存在（404）
func NotFound(messageID, message string) *AppError {
	return newError(KindNotFound, http.StatusNotFound, messageID, message)
}

// InvalidTarget 存储中的目标地址未通过复核（400）
func InvalidTarget(cause error) *AppError {
	e := newError(KindInvalidTarget, http.StatusBadRequest, "error.invalid_target", "Invalid target URL")
	e.Cause = cause
	return e
}

// UpstreamUnavailable 请求上游时网络或传输失败（502）
func UpstreamUnavailable(cause error) *AppError {
	e := newError(KindUpstreamUnavailable, http.StatusBadGateway, "error.upstream_unavailable", "Upstream fetch failed")
	e.Cause = cause
	return e
}

// UpstreamStatus 上游返回了不可接受的状态码（502），原状态码只出现在消息里
func UpstreamStatus(status int) *AppError {
	e := newError(KindUpstreamStatus, http.StatusBadGateway, "error.upstream_status", fmt.Sprintf("Upstream error: %d", status))
	e.Data = map[string]interface{}{"Status": status}
	return e
}

// SystemError 封装系统内部错误（500）
func SystemError(cause error) *AppError {
	e := newError(KindSystem, http.StatusInternalServerError, "error.system", "Internal server error")
	e.Cause = cause
	return e
}
