package platform

import (
	"context"
	"os/exec"
	"testing"
	"time"
)

func newTestRestarter(t *testing.T, command ...string) (*CommandRestarter, *[]int) {
	t.Helper()
	var codes []int
	r := NewCommandRestarter(command)
	r.grace = time.Millisecond
	r.exit = func(code int) { codes = append(codes, code) }
	return r, &codes
}

func TestRestart_NoCommandExits(t *testing.T) {
	r, codes := newTestRestarter(t)

	if err := r.Restart(context.Background(), "factory reset"); err != nil {
		t.Fatalf("Restart() error = %v", err)
	}
	if len(*codes) != 1 || (*codes)[0] != RestartExitCode {
		t.Errorf("exit codes = %v, want [%d]", *codes, RestartExitCode)
	}
}

func TestRestart_Command(t *testing.T) {
	for _, bin := range []string{"true", "false"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not available: %v", bin, err)
		}
	}

	tests := []struct {
		name    string
		command string
		wantErr bool
	}{
		{"success waits then exits", "true", false},
		{"failure exits immediately", "false", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, codes := newTestRestarter(t, tt.command)

			err := r.Restart(context.Background(), "test")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Restart() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(*codes) != 1 {
				t.Errorf("exit called %d times, want 1", len(*codes))
			}
		})
	}
}
