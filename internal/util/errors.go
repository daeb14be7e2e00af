package util

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

// ErrorKind 错误分类
type ErrorKind string

const (
	KindNetwork        ErrorKind = "NetworkError"
	KindAuthentication ErrorKind = "AuthenticationError"
	KindValidation     ErrorKind = "ValidationError"
	KindNotFound       ErrorKind = "NotFoundError"
	KindPermission     ErrorKind = "PermissionError"
	KindRateLimit      ErrorKind = "RateLimitError"
	KindServer         ErrorKind = "ServerError"
)

// AppError 业务错误，Kind 决定 HTTP 状态码
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 同类哨兵（Message 与 Err 均为空）匹配任意同 Kind 的错误
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	if t.Message == "" && t.Err == nil {
		return t.Kind == e.Kind
	}
	return t == e
}

var (
	ErrNetwork        = &AppError{Kind: KindNetwork}
	ErrAuthentication = &AppError{Kind: KindAuthentication}
	ErrValidation     = &AppError{Kind: KindValidation}
	ErrNotFound       = &AppError{Kind: KindNotFound}
	ErrPermission     = &AppError{Kind: KindPermission}
	ErrRateLimit      = &AppError{Kind: KindRateLimit}
	ErrServer         = &AppError{Kind: KindServer}
)

func NewError(kind ErrorKind, message string) error {
	return &AppError{Kind: kind, Message: message}
}

func NewValidationError(format string, args ...interface{}) error {
	return &AppError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(format string, args ...interface{}) error {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func NewAuthenticationError(message string) error {
	return &AppError{Kind: KindAuthentication, Message: message}
}

func NewPermissionError(message string) error {
	return &AppError{Kind: KindPermission, Message: message}
}

func WrapError(kind ErrorKind, message string, err error) error {
	return &AppError{Kind: kind, Message: message, Err: err}
}

// KindOf 返回错误分类，未分类的错误视为 ServerError
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindServer
}

// 按顺序匹配，越具体的放越前面
var classifyRules = []struct {
	kind     ErrorKind
	patterns []string
}{
	{KindRateLimit, []string{"rate limit", "too many"}},
	{KindNetwork, []string{"network", "fetch", "connection refused", "connection reset", "timeout", "deadline exceeded", "no such host"}},
	{KindAuthentication, []string{"jwt", "token", "unauthorized", "invalid credentials", "not authenticated"}},
	{KindPermission, []string{"permission", "forbidden", "access denied"}},
	{KindNotFound, []string{"not found", "no rows"}},
	{KindValidation, []string{"duplicate", "unique constraint", "violates", "invalid", "required", "constraint"}},
}

// ClassifyError 把存储层返回的原始错误归类为 AppError
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &AppError{Kind: KindNotFound, Message: "record not found", Err: err}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &AppError{Kind: KindValidation, Message: "record already exists", Err: err}
	}

	msg := strings.ToLower(err.Error())
	for _, rule := range classifyRules {
		for _, p := range rule.patterns {
			if strings.Contains(msg, p) {
				return &AppError{Kind: rule.kind, Err: err}
			}
		}
	}

	return &AppError{Kind: KindServer, Err: err}
}

// StatusCode 错误分类对应的 HTTP 状态码
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindPermission:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindNetwork:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// PublicMessage 返回可以暴露给客户端的错误信息
func PublicMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" && appErr.Kind != KindServer {
		return appErr.Message
	}
	switch KindOf(err) {
	case KindNotFound:
		return "Resource not found"
	case KindAuthentication:
		return "Unauthorized"
	case KindPermission:
		return "Forbidden"
	case KindRateLimit:
		return "Too many requests"
	case KindNetwork:
		return "Upstream unavailable"
	case KindValidation:
		return "Invalid request"
	}
	return "Internal server error"
}
