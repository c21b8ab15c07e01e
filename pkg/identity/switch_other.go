//go:build !unix

package identity

import "errors"

var errUnsupported = errors.New("changing process identity is not supported on this platform")

// OSSwitcher is unavailable on this platform.
type OSSwitcher struct{}

// Setgid always fails.
func (OSSwitcher) Setgid(int) error { return errUnsupported }

// Setuid always fails.
func (OSSwitcher) Setuid(int) error { return errUnsupported }

// CurrentUID returns -1 on platforms without numeric user ids.
func (OSResolver) CurrentUID() int { return -1 }

// CurrentGID returns -1 on platforms without numeric group ids.
func (OSResolver) CurrentGID() int { return -1 }
