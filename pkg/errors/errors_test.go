package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	err := New(ErrCodeChecksumMismatch, "verification digit mismatch")
	if !strings.Contains(err.Error(), "CNJ_002") {
		t.Errorf("expected code in message, got %q", err.Error())
	}

	withDetail := err.WithDetail("expected 45")
	if !strings.Contains(withDetail.Error(), "expected 45") {
		t.Errorf("expected detail in message, got %q", withDetail.Error())
	}
	if err.Detail != "" {
		t.Error("WithDetail must not mutate the receiver")
	}
}

func TestWrapPreservesCode(t *testing.T) {
	inner := New(ErrCodeSourceTimeout, "query timed out")
	outer := Wrap(inner, ErrCodeUnknown, "poll failed")
	if outer.Code != ErrCodeSourceTimeout {
		t.Errorf("expected preserved code SRC_003, got %s", outer.Code)
	}
	if !stderrors.Is(outer, outer) || stderrors.Unwrap(outer) != inner {
		t.Error("wrapped chain broken")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, ErrCodeInternal, "noop") != nil {
		t.Error("Wrap(nil) must return nil")
	}
}

func TestIsCode(t *testing.T) {
	err := Wrap(New(ErrCodeRateLimited, "budget exhausted"), ErrCodeInternal, "scheduler run failed")
	if !IsCode(err, ErrCodeRateLimited) {
		t.Error("expected ErrCodeRateLimited in chain")
	}
	if IsCode(err, ErrCodeNotFound) {
		t.Error("unexpected ErrCodeNotFound in chain")
	}
}

func TestIsValidation(t *testing.T) {
	for _, code := range []ErrorCode{
		ErrCodeFormatInvalid, ErrCodeChecksumMismatch, ErrCodeUnknownSegment,
		ErrCodeUnknownTribunal, ErrCodeYearOutOfRange,
	} {
		if !IsValidation(New(code, "bad number")) {
			t.Errorf("expected %s to be a validation error", code)
		}
	}
	if IsValidation(New(ErrCodeRateLimited, "nope")) {
		t.Error("rate limit is not a validation error")
	}
}

func TestGetCode(t *testing.T) {
	if GetCode(nil) != CodeOK {
		t.Error("nil error must yield CodeOK")
	}
	if GetCode(stderrors.New("plain")) != ErrCodeUnknown {
		t.Error("plain error must yield ErrCodeUnknown")
	}
	if GetCode(New(ErrCodeTribunalUnavailable, "down")) != ErrCodeTribunalUnavailable {
		t.Error("AppError code not extracted")
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	if HTTPStatusForCode(ErrCodeRateLimited) != 429 {
		t.Error("RATE_001 must map to 429")
	}
	if HTTPStatusForCode(ErrCodeFormatInvalid) != 422 {
		t.Error("CNJ_001 must map to 422")
	}
	if HTTPStatusForCode(ErrorCode("NOPE_001")) != 500 {
		t.Error("unknown codes default to 500")
	}
}

func TestModuleForCode(t *testing.T) {
	if ModuleForCode(ErrCodeChecksumMismatch) != "CNJ" {
		t.Errorf("expected CNJ, got %s", ModuleForCode(ErrCodeChecksumMismatch))
	}
	if ModuleForCode(ErrCodeSourceBlocked) != "SRC" {
		t.Errorf("expected SRC, got %s", ModuleForCode(ErrCodeSourceBlocked))
	}
}
