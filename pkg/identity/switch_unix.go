//go:build unix

package identity

import (
	"os"
	"syscall"
)

// OSSwitcher changes the process identity with setgid(2) and setuid(2).
type OSSwitcher struct{}

// Setgid changes the group id of the process.
func (OSSwitcher) Setgid(gid int) error { return syscall.Setgid(gid) }

// Setuid changes the user id of the process.
func (OSSwitcher) Setuid(uid int) error { return syscall.Setuid(uid) }

// CurrentUID returns the real user id of the process.
func (OSResolver) CurrentUID() int { return os.Getuid() }

// CurrentGID returns the real group id of the process.
func (OSResolver) CurrentGID() int { return os.Getgid() }
