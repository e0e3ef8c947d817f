package errors

import (
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorCode represents internal error codes for planner operations.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = 0

	// Client errors (4xx equivalent): the request itself cannot be honored.
	ErrCodeConfigInvalid              ErrorCode = 1000
	ErrCodeGroupLabelMalformed        ErrorCode = 1001
	ErrCodeInsufficientGroupDiversity ErrorCode = 1002
	ErrCodeTimestampOutOfRange        ErrorCode = 1003
	ErrCodeTimestampFormatInvalid     ErrorCode = 1004
	ErrCodeTimestampSubMicrosecond    ErrorCode = 1005

	// Server errors (5xx equivalent): the planner could not produce a
	// result even though the request was well formed.
	ErrCodePlacementInfeasible ErrorCode = 2000
	ErrCodeOverReplication     ErrorCode = 2001
	ErrCodeStoreUnavailable    ErrorCode = 2002
)

// PlannerError represents a structured error with code and context, the
// planner's equivalent of storage-node's StorageError.
type PlannerError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Cause   error
}

func (e *PlannerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *PlannerError) Unwrap() error {
	return e.Cause
}

// ToGRPCStatus converts a PlannerError to a gRPC status, used only to map
// internal error codes onto a wire-neutral vocabulary; the planner does not
// itself run a generated gRPC service.
func (e *PlannerError) ToGRPCStatus() *status.Status {
	return status.New(e.toGRPCCode(), e.Error())
}

func (e *PlannerError) toGRPCCode() codes.Code {
	switch e.Code {
	case ErrCodeOK:
		return codes.OK
	case ErrCodeConfigInvalid, ErrCodeGroupLabelMalformed,
		ErrCodeTimestampOutOfRange, ErrCodeTimestampFormatInvalid, ErrCodeTimestampSubMicrosecond:
		return codes.InvalidArgument
	case ErrCodeInsufficientGroupDiversity, ErrCodePlacementInfeasible:
		return codes.FailedPrecondition
	case ErrCodeOverReplication:
		return codes.Internal
	case ErrCodeStoreUnavailable:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

func NewPlannerError(code ErrorCode, message string, cause error) *PlannerError {
	return &PlannerError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Cause:   cause,
	}
}

func (e *PlannerError) WithDetail(key string, value interface{}) *PlannerError {
	e.Details[key] = value
	return e
}

// Convenience constructors for common errors.

func ConfigInvalid(reason string) *PlannerError {
	return NewPlannerError(ErrCodeConfigInvalid, reason, nil)
}

func GroupLabelMalformed(label string, cause error) *PlannerError {
	return NewPlannerError(ErrCodeGroupLabelMalformed, fmt.Sprintf("malformed group label %q", label), cause).
		WithDetail("label", label)
}

func InsufficientGroupDiversity(smallestGroupSize, needed int) *PlannerError {
	return NewPlannerError(ErrCodeInsufficientGroupDiversity,
		fmt.Sprintf("smallest buddy group has only %d hosts, need at least %d", smallestGroupSize, needed), nil).
		WithDetail("smallest_group_size", smallestGroupSize).
		WithDetail("needed", needed)
}

func PlacementInfeasible(cause error) *PlannerError {
	return NewPlannerError(ErrCodePlacementInfeasible, "unable to find a feasible partition placement", cause)
}

func OverReplication(partitionID int) *PlannerError {
	return NewPlannerError(ErrCodeOverReplication, fmt.Sprintf("partition %d was assigned more replicas than its k-factor allows", partitionID), nil).
		WithDetail("partition_id", partitionID)
}

func TimestampOutOfRange(usec int64) *PlannerError {
	return NewPlannerError(ErrCodeTimestampOutOfRange, fmt.Sprintf("timestamp %d usec outside the supported range", usec), nil).
		WithDetail("usec", usec)
}

func TimestampFormatInvalid(input, reason string) *PlannerError {
	return NewPlannerError(ErrCodeTimestampFormatInvalid, fmt.Sprintf("invalid timestamp %q: %s", input, reason), nil).
		WithDetail("input", input).
		WithDetail("reason", reason)
}

func TimestampSubMicrosecond(input string) *PlannerError {
	return NewPlannerError(ErrCodeTimestampSubMicrosecond, fmt.Sprintf("timestamp %q specifies precision finer than one microsecond", input), nil).
		WithDetail("input", input)
}

func StoreUnavailable(message string, cause error) *PlannerError {
	return NewPlannerError(ErrCodeStoreUnavailable, message, cause)
}

// IsPlannerError reports whether err is a *PlannerError.
func IsPlannerError(err error) bool {
	_, ok := err.(*PlannerError)
	return ok
}

// GetCode extracts the error code from an error, defaulting to
// ErrCodePlacementInfeasible when err is not a *PlannerError.
func GetCode(err error) ErrorCode {
	if pe, ok := err.(*PlannerError); ok {
		return pe.Code
	}
	return ErrCodePlacementInfeasible
}
