//go:build unix

package fsx

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"testing"
)

func TestIsEXDEV(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"bare", syscall.EXDEV, true},
		{"link_error", &os.LinkError{Op: "rename", Old: "/tmp/a", New: "/mnt/b", Err: syscall.EXDEV}, true},
		{"wrapped", fmt.Errorf("写入失败：%w", &os.LinkError{Op: "rename", Err: syscall.EXDEV}), true},
		{"other_errno", &os.LinkError{Op: "rename", Err: syscall.EACCES}, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isEXDEV(tc.err); got != tc.want {
				t.Fatalf("isEXDEV(%v)=%v，期望 %v", tc.err, got, tc.want)
			}
		})
	}
}
