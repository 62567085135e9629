package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name         string
		code         ErrorCode
		message      string
		wantCategory ErrorCategory
	}{
		{"invalid_input", ErrCodeInvalidInput, "title is empty", CategoryPermanent},
		{"not_found", ErrCodeNotFound, "task not found", CategoryPermanent},
		{"conflict", ErrCodeConflict, "already started", CategoryPermanent},
		{"unavailable", ErrCodeUnavailable, "session closed", CategoryTransient},
		{"timeout", ErrCodeTimeout, "timed out", CategoryTransient},
		{"internal", ErrCodeInternal, "index failed", CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message)
			if err.Code() != tt.code {
				t.Errorf("Code() = %v, want %v", err.Code(), tt.code)
			}
			if err.Category() != tt.wantCategory {
				t.Errorf("Category() = %v, want %v", err.Category(), tt.wantCategory)
			}
			if err.Error() != tt.message {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.message)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(ErrCodeNotFound, "task %s not found", "abc")
	want := "task abc not found"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}

func TestFromCode(t *testing.T) {
	err := FromCode(ErrCodeTimeout)
	if err.Error() != "operation timed out" {
		t.Errorf("Error() = %v, want %v", err.Error(), "operation timed out")
	}
	if ErrorCode("BOGUS").Description() != "unknown error" {
		t.Error("unknown code should describe as 'unknown error'")
	}
}

func TestRetryable(t *testing.T) {
	if New(ErrCodeNotFound, "x").Retryable() {
		t.Error("NOT_FOUND should not be retryable")
	}
	if !New(ErrCodeUnavailable, "x").Retryable() {
		t.Error("UNAVAILABLE should be retryable")
	}
	if New(ErrCodeUnavailable, "x", WithCategory(CategoryPermanent)).Retryable() {
		t.Error("category override should disable retry")
	}
}

func TestWrap_PreservesSentinel(t *testing.T) {
	sentinel := New(ErrCodeNotFound, "task not found")

	err := Wrap(sentinel, "set status", WithTaskID("t-1"))

	if !errors.Is(err, sentinel) {
		t.Fatal("errors.Is should find the wrapped sentinel")
	}
	if err.Code() != ErrCodeNotFound {
		t.Errorf("Code() = %v, want %v", err.Code(), ErrCodeNotFound)
	}
	if err.TaskID() != "t-1" {
		t.Errorf("TaskID() = %q, want %q", err.TaskID(), "t-1")
	}
	if err.Error() != "set status: task not found" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestWrap_Nil(t *testing.T) {
	if Wrap(nil, "nothing") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	if WrapWithCode(nil, ErrCodeInternal, "nothing") != nil {
		t.Error("WrapWithCode(nil) should return nil")
	}
}

func TestWrap_ContextErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"deadline", context.DeadlineExceeded, ErrCodeTimeout},
		{"canceled", context.Canceled, ErrCodeCanceled},
		{"plain", fmt.Errorf("boom"), ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(tt.err, "op")
			if got.Code() != tt.want {
				t.Errorf("Code() = %v, want %v", got.Code(), tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Error("cause should remain in chain")
			}
		})
	}
}

func TestHelpers(t *testing.T) {
	err := fmt.Errorf("outer: %w", InvalidInput("title is empty", WithTaskID("t-9")))

	if !Is(err, ErrCodeInvalidInput) {
		t.Error("Is should find INVALID_INPUT through fmt wrapping")
	}
	if Code(err) != ErrCodeInvalidInput {
		t.Errorf("Code() = %v", Code(err))
	}
	if !IsPermanent(err) {
		t.Error("invalid input should be permanent")
	}
	if IsTransient(err) {
		t.Error("invalid input should not be transient")
	}
	if TaskIDOf(err) != "t-9" {
		t.Errorf("TaskIDOf() = %q, want t-9", TaskIDOf(err))
	}
	if Code(errors.New("plain")) != "" {
		t.Error("plain error should have no code")
	}
}

func TestMarshalJSON(t *testing.T) {
	err := WrapWithCode(errors.New("disk"), ErrCodeInternal, "index failed", WithTaskID("t-2"))

	data, mErr := json.Marshal(err)
	if mErr != nil {
		t.Fatalf("Marshal error: %v", mErr)
	}

	var out map[string]string
	if uErr := json.Unmarshal(data, &out); uErr != nil {
		t.Fatalf("Unmarshal error: %v", uErr)
	}
	if out["code"] != "INTERNAL" || out["cause"] != "disk" || out["task_id"] != "t-2" {
		t.Errorf("unexpected JSON: %s", data)
	}
}
