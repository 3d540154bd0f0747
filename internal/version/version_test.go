package version

import "testing"

func TestString(t *testing.T) {
	old := Commit
	t.Cleanup(func() { Commit = old })

	Commit = "0123456789abcdef"
	if got, want := String(), "mkc dev (commit: 0123456, built: unknown)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	Commit = "abc"
	if got, want := String(), "mkc dev (commit: abc, built: unknown)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
