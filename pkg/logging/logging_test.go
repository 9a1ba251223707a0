package logging

import "testing"

func TestSetup(t *testing.T) {
	for _, debug := range []bool{false, true} {
		l, err := Setup(debug, "codehelper", "test")
		if err != nil {
			t.Fatalf("Setup(debug=%v) returned error: %v", debug, err)
		}
		if l == nil || Logger != l {
			t.Fatalf("Setup(debug=%v) did not install the logger", debug)
		}
		if got := l.Core().Enabled(-1); got != debug {
			t.Fatalf("debug level enabled = %v; want %v", got, debug)
		}
	}
}
