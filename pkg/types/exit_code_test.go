// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"testing"
)

func TestExitCodeValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		value     ExitCode
		wantValid bool
	}{
		{name: "success", value: ExitSuccess, wantValid: true},
		{name: "composition failed", value: ExitCompositionFailed, wantValid: true},
		{name: "failure", value: ExitFailure, wantValid: true},
		{name: "255 is valid", value: 255, wantValid: true},
		{name: "negative is invalid", value: -1},
		{name: "256 is invalid", value: 256},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.value.Validate()
			if tt.wantValid {
				if err != nil {
					t.Errorf("ExitCode(%d).Validate() = %v", tt.value, err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidExitCode) {
				t.Errorf("ExitCode(%d).Validate() = %v, want ErrInvalidExitCode", tt.value, err)
			}
		})
	}
}

func TestExitCodeIsSuccess(t *testing.T) {
	t.Parallel()

	if !ExitSuccess.IsSuccess() {
		t.Error("ExitSuccess.IsSuccess() = false")
	}
	if ExitCompositionFailed.IsSuccess() || ExitFailure.IsSuccess() {
		t.Error("failure codes must not report success")
	}
}

func TestExitCodeString(t *testing.T) {
	t.Parallel()

	if got := ExitFailure.String(); got != "2" {
		t.Errorf("ExitFailure.String() = %q, want %q", got, "2")
	}
}

func TestInvalidExitCodeError(t *testing.T) {
	t.Parallel()

	err := &InvalidExitCodeError{Value: 300}
	if got, want := err.Error(), "invalid exit code 300 (must be in range 0-255)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
