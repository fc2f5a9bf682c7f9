package base

import (
	"github.com/go-kratos/kratos/v2/errors"
)

const (
	ReasonRetryExhausted = "RETRY_EXHAUSTED"
	ReasonInfeasible     = "INFEASIBLE_PATTERN"
	ReasonMalformed      = "MALFORMED_CONFIG"
	ReasonInvariant      = "INVARIANT_VIOLATED"
)

var (
	ErrRetryExhausted  = errors.New(500, ReasonRetryExhausted, "retry budget exhausted")
	ErrInfeasible      = errors.New(400, ReasonInfeasible, "buy entry pattern infeasible")
	ErrMalformedConfig = errors.New(400, ReasonMalformed, "malformed math config")
	ErrInvariant       = errors.New(500, ReasonInvariant, "accounting invariant violated")
)

// Exhaustedf 重试耗尽（致命）
func Exhaustedf(format string, a ...any) error {
	return errors.Newf(500, ReasonRetryExhausted, format, a...)
}

// Infeasiblef 约束不可满足（局部重试）
func Infeasiblef(format string, a ...any) error {
	return errors.Newf(400, ReasonInfeasible, format, a...)
}

// Malformedf 配置错误（加载校验阶段致命）
func Malformedf(format string, a ...any) error {
	return errors.Newf(400, ReasonMalformed, format, a...)
}

// Invariantf 结算不变量被破坏（致命）
func Invariantf(format string, a ...any) error {
	return errors.Newf(500, ReasonInvariant, format, a...)
}

func IsRetryExhausted(err error) bool {
	return errors.Reason(err) == ReasonRetryExhausted
}

func IsInfeasible(err error) bool {
	return errors.Reason(err) == ReasonInfeasible
}

func IsMalformed(err error) bool {
	return errors.Reason(err) == ReasonMalformed
}

func IsInvariant(err error) bool {
	return errors.Reason(err) == ReasonInvariant
}
