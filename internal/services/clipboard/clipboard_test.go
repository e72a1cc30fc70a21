package clipboard

import (
	"errors"
	"testing"
)

func TestServiceCopy(t *testing.T) {
	writeFailure := errors.New("xclip exited 1")
	testCases := []struct {
		name        string
		unsupported bool
		writeError  error
		expected    error
		expectWrite bool
	}{
		{name: "copies", expectWrite: true},
		{name: "unsupported", unsupported: true, expected: ErrUnsupported},
		{name: "write_failure", writeError: writeFailure, expected: writeFailure, expectWrite: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var written string
			wrote := false
			service := &Service{
				unsupported: func() bool { return testCase.unsupported },
				writeAll: func(text string) error {
					wrote = true
					written = text
					return testCase.writeError
				},
			}
			err := service.Copy("ABC\n")
			if !errors.Is(err, testCase.expected) {
				t.Fatalf("expected %v, got %v", testCase.expected, err)
			}
			if wrote != testCase.expectWrite {
				t.Fatalf("expected write %t, got %t", testCase.expectWrite, wrote)
			}
			if testCase.expectWrite && written != "ABC\n" {
				t.Fatalf("unexpected clipboard text %q", written)
			}
		})
	}
}
