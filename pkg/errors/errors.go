package errors

import "errors"

func (d Definition) Error() string {
	return d.Message
}

// Definition 表示业务错误码及默认信息。
type Definition struct {
	Code    string
	Message string
}

// 认证相关错误。
var (
	Unauthorized    = Definition{Code: "UNAUTHORIZED", Message: "Unauthorized"}
	InvalidUserID   = Definition{Code: "INVALID_USER_ID", Message: "Invalid user ID format"}
	TooManyRequests = Definition{Code: "TOO_MANY_REQUESTS", Message: "Too many requests, please try again later"}
)

// 考勤周期模块错误。
var (
	PeriodNotFound         = Definition{Code: "PERIOD_NOT_FOUND", Message: "Attendance period not found"}
	PeriodAlreadyFinalized = Definition{Code: "PERIOD_ALREADY_FINALIZED", Message: "Attendance period already finalized or locked"}
	PeriodNotFinalized     = Definition{Code: "PERIOD_NOT_FINALIZED", Message: "Only finalized periods can be unlocked"}
	UnlockReasonRequired   = Definition{Code: "UNLOCK_REASON_REQUIRED", Message: "Unlock reason is required"}
	ConfirmationRequired   = Definition{Code: "CONFIRMATION_REQUIRED", Message: "Explicit confirmation is required for this operation"}
	UnresolvedConflicts    = Definition{Code: "UNRESOLVED_CONFLICTS", Message: "Attendance records have unresolved conflicts"}
)

// 考勤记录模块错误。
var (
	RecordNotFound    = Definition{Code: "RECORD_NOT_FOUND", Message: "Attendance record not found"}
	RecordNotConflict = Definition{Code: "RECORD_NOT_CONFLICT", Message: "Attendance record has no unresolved conflict"}
	RecordLocked      = Definition{Code: "RECORD_LOCKED", Message: "Attendance record belongs to a finalized period"}
)

// 薪资模块错误。
var (
	PayrollNotEligible     = Definition{Code: "PAYROLL_NOT_ELIGIBLE", Message: "Attendance period is not eligible for payroll calculation"}
	PayrollAlreadyApproved = Definition{Code: "PAYROLL_ALREADY_APPROVED", Message: "Payroll period already approved"}
	PayrollNotFound        = Definition{Code: "PAYROLL_NOT_FOUND", Message: "Payroll period not found"}
	PayrollNotCalculated   = Definition{Code: "PAYROLL_NOT_CALCULATED", Message: "Only calculated payroll periods can be approved"}
)

// 设备模块错误。
var (
	DeviceNotFound    = Definition{Code: "DEVICE_NOT_FOUND", Message: "Device not found in configured pool"}
	DeviceCircuitOpen = Definition{Code: "DEVICE_CIRCUIT_OPEN", Message: "Device circuit breaker is open"}
)

// 员工映射模块错误。
var (
	EmployeeNotFound = Definition{Code: "EMPLOYEE_NOT_FOUND", Message: "Employee not found"}
	EmployeeInactive = Definition{Code: "EMPLOYEE_INACTIVE", Message: "Employee is inactive"}
)

// SkipMessageError 消费者用于标记消息应跳过而非重新入队。
type SkipMessageError struct {
	Reason string
}

func (e *SkipMessageError) Error() string {
	return "skip message: " + e.Reason
}

// token 包使用的哨兵错误。
var (
	ErrTokenGeneratorNotInitialized = errors.New("token generator is not initialized")
	ErrUnexpectedSigningMethod      = errors.New("unexpected signing method")
	ErrInvalidToken                 = errors.New("invalid token")
	ErrInvalidTokenClaims           = errors.New("invalid token claims")
	ErrInvalidTokenType             = errors.New("invalid token type")
	ErrUserIDNotFound               = errors.New("user id not found in token claims")
)

// Lookup 提供错误码查询能力。
var Lookup = map[string]Definition{
	Unauthorized.Code:           Unauthorized,
	InvalidUserID.Code:          InvalidUserID,
	TooManyRequests.Code:        TooManyRequests,
	PeriodNotFound.Code:         PeriodNotFound,
	PeriodAlreadyFinalized.Code: PeriodAlreadyFinalized,
	PeriodNotFinalized.Code:     PeriodNotFinalized,
	UnlockReasonRequired.Code:   UnlockReasonRequired,
	ConfirmationRequired.Code:   ConfirmationRequired,
	UnresolvedConflicts.Code:    UnresolvedConflicts,
	RecordNotFound.Code:         RecordNotFound,
	RecordNotConflict.Code:      RecordNotConflict,
	RecordLocked.Code:           RecordLocked,
	PayrollNotEligible.Code:     PayrollNotEligible,
	PayrollAlreadyApproved.Code: PayrollAlreadyApproved,
	PayrollNotFound.Code:        PayrollNotFound,
	PayrollNotCalculated.Code:   PayrollNotCalculated,
	DeviceNotFound.Code:         DeviceNotFound,
	DeviceCircuitOpen.Code:      DeviceCircuitOpen,
	EmployeeNotFound.Code:       EmployeeNotFound,
	EmployeeInactive.Code:       EmployeeInactive,
}

// Get 根据错误码返回 Definition，若不存在则返回空 Definition。
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error"}
}
