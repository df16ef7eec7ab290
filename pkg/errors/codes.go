package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
// Codes are grouped by module prefix: COMMON, CNJ (number validation),
// TRB (tribunal routing), RATE (rate limiting), CACHE, NOV (novelties),
// SCHED (scheduling), SRC (remote data sources), PERS (persistence).
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeTimeout            ErrorCode = "COMMON_005"
	ErrCodeSerialization      ErrorCode = "COMMON_006"
	ErrCodeDatabaseError      ErrorCode = "COMMON_007"
	ErrCodeCacheError         ErrorCode = "COMMON_008"
	ErrCodeExternalService    ErrorCode = "COMMON_009"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_010"
	ErrCodeUnknown            ErrorCode = "COMMON_099"

	// CodeOK is the sentinel returned by GetCode for a nil error.
	CodeOK ErrorCode = "OK"
)

// CNJ number validation error codes.  These map one-to-one onto the
// validation failure modes of the parser: structural pattern, verification
// digit, judiciary segment, tribunal table, and filing-year range.
const (
	ErrCodeFormatInvalid    ErrorCode = "CNJ_001"
	ErrCodeChecksumMismatch ErrorCode = "CNJ_002"
	ErrCodeUnknownSegment   ErrorCode = "CNJ_003"
	ErrCodeUnknownTribunal  ErrorCode = "CNJ_004"
	ErrCodeYearOutOfRange   ErrorCode = "CNJ_005"
)

// Tribunal routing error codes.
const (
	ErrCodeTribunalNotFound    ErrorCode = "TRB_001"
	ErrCodeTribunalUnavailable ErrorCode = "TRB_002"
	ErrCodeNoExecutor          ErrorCode = "TRB_003"
)

// Rate limiting error codes.
const (
	ErrCodeRateLimited ErrorCode = "RATE_001"
)

// Novelty error codes.
const (
	ErrCodeNoveltyNotFound ErrorCode = "NOV_001"
	ErrCodeRulesInvalid    ErrorCode = "NOV_002"
)

// Scheduling error codes.
const (
	ErrCodeScheduleNotFound   ErrorCode = "SCHED_001"
	ErrCodeScheduleTerminated ErrorCode = "SCHED_002"
	ErrCodeScheduleExists     ErrorCode = "SCHED_003"
)

// Remote data source error codes.  These mirror the QueryExecutor port's
// non-success statuses.
const (
	ErrCodeSourceNotFound    ErrorCode = "SRC_001"
	ErrCodeSourceBlocked     ErrorCode = "SRC_002"
	ErrCodeSourceTimeout     ErrorCode = "SRC_003"
	ErrCodeSourceError       ErrorCode = "SRC_004"
	ErrCodeSourceRateLimited ErrorCode = "SRC_005"
)

// Persistence error codes.  Persistence failures are best-effort by policy:
// a failed cache mirror or log write never fails the overall query.
const (
	ErrCodePersistenceError ErrorCode = "PERS_001"
	ErrCodeEventPublish     ErrorCode = "PERS_002"
	ErrCodeArchiveError     ErrorCode = "PERS_003"
)

// errorCodeHTTPStatus maps ErrorCodes to HTTP status codes for the REST
// interface layer.
var errorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeUnknown:            http.StatusInternalServerError,

	ErrCodeFormatInvalid:    http.StatusUnprocessableEntity,
	ErrCodeChecksumMismatch: http.StatusUnprocessableEntity,
	ErrCodeUnknownSegment:   http.StatusUnprocessableEntity,
	ErrCodeUnknownTribunal:  http.StatusUnprocessableEntity,
	ErrCodeYearOutOfRange:   http.StatusUnprocessableEntity,

	ErrCodeTribunalNotFound:    http.StatusNotFound,
	ErrCodeTribunalUnavailable: http.StatusServiceUnavailable,
	ErrCodeNoExecutor:          http.StatusNotImplemented,

	ErrCodeRateLimited: http.StatusTooManyRequests,

	ErrCodeNoveltyNotFound: http.StatusNotFound,
	ErrCodeRulesInvalid:    http.StatusBadRequest,

	ErrCodeScheduleNotFound:   http.StatusNotFound,
	ErrCodeScheduleTerminated: http.StatusConflict,
	ErrCodeScheduleExists:     http.StatusConflict,

	ErrCodeSourceNotFound:    http.StatusNotFound,
	ErrCodeSourceBlocked:     http.StatusBadGateway,
	ErrCodeSourceTimeout:     http.StatusGatewayTimeout,
	ErrCodeSourceError:       http.StatusBadGateway,
	ErrCodeSourceRateLimited: http.StatusTooManyRequests,

	ErrCodePersistenceError: http.StatusInternalServerError,
	ErrCodeEventPublish:     http.StatusInternalServerError,
	ErrCodeArchiveError:     http.StatusInternalServerError,
}

// errorCodeMessage maps ErrorCodes to default messages.
var errorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTimeout:            "request timeout",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeUnknown:            "unknown error",

	ErrCodeFormatInvalid:    "process number does not match the CNJ pattern",
	ErrCodeChecksumMismatch: "verification digit mismatch",
	ErrCodeUnknownSegment:   "unknown judiciary segment",
	ErrCodeUnknownTribunal:  "unknown tribunal for segment",
	ErrCodeYearOutOfRange:   "filing year out of accepted range",

	ErrCodeTribunalNotFound:    "tribunal not found",
	ErrCodeTribunalUnavailable: "tribunal temporarily unavailable",
	ErrCodeNoExecutor:          "no query executor registered for tribunal",

	ErrCodeRateLimited: "tribunal request budget exceeded",

	ErrCodeNoveltyNotFound: "novelty not found",
	ErrCodeRulesInvalid:    "invalid priority rules",

	ErrCodeScheduleNotFound:   "schedule not found",
	ErrCodeScheduleTerminated: "schedule terminated after retry exhaustion",
	ErrCodeScheduleExists:     "process already monitored",

	ErrCodeSourceNotFound:    "process not found at data source",
	ErrCodeSourceBlocked:     "data source blocked the request",
	ErrCodeSourceTimeout:     "data source query timed out",
	ErrCodeSourceError:       "data source query failed",
	ErrCodeSourceRateLimited: "data source rate limited the request",

	ErrCodePersistenceError: "persistence operation failed",
	ErrCodeEventPublish:     "event publish failed",
	ErrCodeArchiveError:     "snapshot archive failed",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := errorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// ModuleForCode returns the module prefix of an ErrorCode ("CNJ", "RATE", ...).
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
