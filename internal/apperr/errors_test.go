package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsMatchesByCode(t *testing.T) {
	err := Authorization("jane", "DELETE_CLIENT_CHECKER")
	wrapped := fmt.Errorf("approve command 3: %w", err)

	if !errors.Is(wrapped, ErrAuthorization) {
		t.Fatalf("expected wrapped error to match ErrAuthorization")
	}
	if errors.Is(wrapped, ErrValidation) {
		t.Fatalf("authorization error must not match ErrValidation")
	}
	if got := CodeOf(wrapped); got != CodeAuthorization {
		t.Errorf("CodeOf = %q, want %q", got, CodeAuthorization)
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "message only",
			err:  New(CodeConflict, "command %d is already checked", 4),
			want: "command 4 is already checked",
		},
		{
			name: "code when message empty",
			err:  &Error{Code: CodeRollback},
			want: "rollback",
		},
		{
			name: "parameter errors appended",
			err: Validation([]ParameterError{
				{Parameter: "firstname", Message: "The parameter firstname is mandatory."},
				{Parameter: "officeId", Message: "The parameter officeId must be a number."},
			}),
			want: "validation errors exist: The parameter firstname is mandatory.; The parameter officeId must be a number.",
		},
		{
			name: "cause appended",
			err:  Wrap(CodeNotFound, errors.New("no rows"), "client 9 not found"),
			want: "client 9 not found: no rows",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCodeOfPlainError(t *testing.T) {
	if got := CodeOf(errors.New("boom")); got != "" {
		t.Errorf("CodeOf = %q, want empty", got)
	}
}
