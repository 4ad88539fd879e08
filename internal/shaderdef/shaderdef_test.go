// SPDX-License-Identifier: MPL-2.0

package shaderdef

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Value
		wantErr bool
	}{
		{input: "true", want: Bool(true)},
		{input: "FALSE", want: Bool(false)},
		{input: " True ", want: Bool(true)},
		{input: "-7", want: Int(-7)},
		{input: "123", want: Int(123)},
		{input: "+5", want: Int(5)},
		{input: "7u", want: UInt(7)},
		{input: "7U", want: UInt(7)},
		{input: "4294967295u", want: UInt(4294967295)},
		{input: "-2147483648", want: Int(-2147483648)},
		{input: "yes", wantErr: true},
		{input: "1.5", wantErr: true},
		{input: "-7u", wantErr: true},
		{input: "u", wantErr: true},
		{input: "", wantErr: true},
		{input: "2147483648", wantErr: true},
		{input: "4294967296u", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := ParseValue(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidValue) {
					t.Fatalf("ParseValue(%q) error = %v, want ErrInvalidValue", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseValue(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseValue(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestGather_OverrideWins(t *testing.T) {
	t.Parallel()

	got, err := Gather([]string{"FOO", "BAR=1"}, []string{"BAR=2u"})
	if err != nil {
		t.Fatalf("Gather() unexpected error: %v", err)
	}

	want := Set{"FOO": Bool(true), "BAR": UInt(2)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Gather() mismatch (-want +got):\n%s", diff)
	}
}

func TestGather_SemicolonJoined(t *testing.T) {
	t.Parallel()

	got, err := Gather([]string{"ONE;TWO=123", "THREE=false;"}, []string{"ONE=-1;FOUR"})
	if err != nil {
		t.Fatalf("Gather() unexpected error: %v", err)
	}

	want := Set{
		"ONE":   Int(-1),
		"TWO":   Int(123),
		"THREE": Bool(false),
		"FOUR":  Bool(true),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Gather() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"FOUR", "ONE", "THREE", "TWO"}, got.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
}

func TestGather_Errors(t *testing.T) {
	t.Parallel()

	_, err := Gather([]string{"GOOD=1"}, []string{"BAD=maybe"})
	var ive *InvalidValueError
	if !errors.As(err, &ive) {
		t.Fatalf("Gather() error = %v, want *InvalidValueError", err)
	}
	if ive.Name != "BAD" || ive.Value != "maybe" {
		t.Errorf("InvalidValueError = %+v, want name BAD value maybe", ive)
	}

	if _, err := Gather([]string{"=1"}, nil); !errors.Is(err, ErrEmptyName) {
		t.Errorf("Gather(=1) error = %v, want ErrEmptyName", err)
	}
}

func TestGather_Empty(t *testing.T) {
	t.Parallel()

	got, err := Gather(nil, nil)
	if err != nil {
		t.Fatalf("Gather() unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Gather(nil, nil) = %v, want empty", got)
	}
}

func TestValue_String(t *testing.T) {
	t.Parallel()

	tests := map[string]Value{
		"true": Bool(true),
		"-3":   Int(-3),
		"9u":   UInt(9),
	}
	for want, v := range tests {
		if got := v.String(); got != want {
			t.Errorf("%#v.String() = %q, want %q", v, got, want)
		}
	}
}
