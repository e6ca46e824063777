package util

import (
	"net"
	"testing"
)

func TestFindAvailablePort_SkipsBusyPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	busy := ln.Addr().(*net.TCPAddr).Port

	got, err := FindAvailablePort("127.0.0.1", busy, 20)
	if err != nil {
		t.Fatalf("FindAvailablePort: %v", err)
	}
	if got == busy {
		t.Fatalf("returned busy port %d", busy)
	}
}

func TestFindAvailablePort_NoAttempts(t *testing.T) {
	if _, err := FindAvailablePort("127.0.0.1", 20262, 0); err == nil {
		t.Fatalf("expected error with zero attempts")
	}
}
