package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// CompositionError Tests
// -----------------------------------------------------------------------------

func TestCompositionError(t *testing.T) {
	err := NewCompositionError("load plugin", ErrPluginUnavailable).WithPluginID("bands")

	want := "composition error [plugin=bands]: load plugin: plugin unavailable"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, ErrPluginUnavailable) {
		t.Error("errors.Is(err, ErrPluginUnavailable) = false, want true")
	}
	if !errors.Is(err, &CompositionError{}) {
		t.Error("errors.Is(err, &CompositionError{}) = false, want true")
	}
	if err.Severity() != SeverityWarning {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityWarning)
	}
	if IsRetryable(err) {
		t.Error("composition errors should not be retryable")
	}
}

func TestCompositionError_StepOnly(t *testing.T) {
	err := NewCompositionError("visibility ref names missing tab", ErrInvalidBlueprint).WithStepID("workflow_settings")

	want := "composition error [step=workflow_settings]: visibility ref names missing tab: invalid step blueprint"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

// -----------------------------------------------------------------------------
// TransientError Tests
// -----------------------------------------------------------------------------

func TestTransientError(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewTransientError("fetch job status", cause).WithJobID("42")

	want := "transient error [job=42]: fetch job status: connection refused"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable() = false, want true")
	}
	if !IsUserFacing(err) {
		t.Error("IsUserFacing() = false, want true")
	}

	wrapped := Wrap(err, "monitor")
	var target *TransientError
	if !errors.As(wrapped, &target) {
		t.Fatal("errors.As should find the TransientError through a wrap")
	}
	if target.JobID != "42" {
		t.Errorf("JobID = %q, want %q", target.JobID, "42")
	}
}

// -----------------------------------------------------------------------------
// SubmissionError Tests
// -----------------------------------------------------------------------------

func TestSubmissionError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *SubmissionError
		want string
	}{
		{
			name: "server detail wins",
			err:  NewSubmissionError(500, "Internal Server Error", "pw code not found"),
			want: "pw code not found",
		},
		{
			name: "generic status message",
			err:  NewSubmissionError(502, "Bad Gateway", ""),
			want: "Server responded with 502, Bad Gateway",
		},
		{
			name: "transport failure without status",
			err:  NewSubmissionError(0, "", "").WithCause(fmt.Errorf("dial tcp: refused")),
			want: "dial tcp: refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Message(); got != tt.want {
				t.Errorf("Message() = %q, want %q", got, tt.want)
			}
			if got := UserMessage(tt.err); got != "Error submitting data: "+tt.want {
				t.Errorf("UserMessage() = %q", got)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// Classification Tests
// -----------------------------------------------------------------------------

func TestClassification_Nil(t *testing.T) {
	if IsRetryable(nil) {
		t.Error("IsRetryable(nil) = true")
	}
	if IsUserFacing(nil) {
		t.Error("IsUserFacing(nil) = true")
	}
	if GetSeverity(nil) != SeverityDebug {
		t.Errorf("GetSeverity(nil) = %v, want debug", GetSeverity(nil))
	}
	if UserMessage(nil) != "" {
		t.Errorf("UserMessage(nil) = %q, want empty", UserMessage(nil))
	}
}

func TestClassification_PlainErrors(t *testing.T) {
	plain := New("boom")
	if IsUserFacing(plain) {
		t.Error("plain errors should not be user facing")
	}
	if GetSeverity(plain) != SeverityError {
		t.Errorf("GetSeverity(plain) = %v, want error", GetSeverity(plain))
	}
	if got := UserMessage(plain); got != "unexpected error (see log for details)" {
		t.Errorf("UserMessage(plain) = %q", got)
	}

	notFound := Wrap(ErrJobNotFound, "job 7")
	if !IsUserFacing(notFound) {
		t.Error("wrapped ErrJobNotFound should be user facing")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "ctx") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	if Wrapf(nil, "ctx %d", 1) != nil {
		t.Error("Wrapf(nil) should return nil")
	}
	err := Wrapf(ErrUnknownStep, "step %d", 9)
	if err.Error() != "step 9: unknown step" {
		t.Errorf("Wrapf() = %q", err.Error())
	}
	if !Is(err, ErrUnknownStep) {
		t.Error("Wrapf should preserve the chain")
	}
}
