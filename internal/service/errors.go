package service

import (
	"errors"
	"fmt"
)

// 业务错误哨兵，供处理器通过 errors.Is 映射响应码
var (
	ErrValidation        = errors.New("validation failed")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrPartialOrder      = errors.New("order saved without items")
	ErrExternalService   = errors.New("external service unavailable")
	ErrOrderNotFound     = errors.New("order not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrNotFound          = errors.New("not found")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password does not satisfy policy")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidToken       = errors.New("invalid token")

	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrEmailRecipientRejected    = errors.New("email recipient rejected")
)

// ValidationError 字段校验失败
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is 匹配 ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func newValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// InvalidTransitionError 当前状态不允许该动作
type InvalidTransitionError struct {
	From   string
	Action string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s order in status %q", e.Action, e.From)
}

// Is 匹配 ErrInvalidTransition
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// PartialOrderError 订单主记录已写入但明细写入失败
type PartialOrderError struct {
	OrderID     uint
	OrderNumber string
	Err         error
}

func (e *PartialOrderError) Error() string {
	return fmt.Sprintf("order %s saved without items: %v", e.OrderNumber, e.Err)
}

// Is 匹配 ErrPartialOrder
func (e *PartialOrderError) Is(target error) bool {
	return target == ErrPartialOrder
}

func (e *PartialOrderError) Unwrap() error {
	return e.Err
}

// ExternalServiceError 存储或下游服务调用失败
type ExternalServiceError struct {
	Op  string
	Err error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Is 匹配 ErrExternalService
func (e *ExternalServiceError) Is(target error) bool {
	return target == ErrExternalService
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

func newExternalError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &ExternalServiceError{Op: op, Err: err}
}
