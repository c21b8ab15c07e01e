package identity

import "fmt"

// Switcher changes the effective identity of the running process.
type Switcher interface {
	Setgid(gid int) error
	Setuid(uid int) error
}

// FakeSwitcher records identity changes instead of performing them.
type FakeSwitcher struct {
	Calls []string
	Err   error
}

// Setgid records the group change.
func (f *FakeSwitcher) Setgid(gid int) error {
	f.Calls = append(f.Calls, fmt.Sprintf("setgid(%d)", gid))
	return f.Err
}

// Setuid records the user change.
func (f *FakeSwitcher) Setuid(uid int) error {
	f.Calls = append(f.Calls, fmt.Sprintf("setuid(%d)", uid))
	return f.Err
}

// Drop switches the process to group and then user. Nil accounts and
// accounts matching the current identity are left alone. The group is
// changed first since dropping the user usually removes the right to do so.
func Drop(r Resolver, s Switcher, usr, group *Account, debugf func(format string, args ...interface{})) error {
	if debugf == nil {
		debugf = func(string, ...interface{}) {}
	}

	if group != nil && group.ID != r.CurrentGID() {
		debugf("Dropping group privileges to '%s':'%d'", group.Name, group.ID)
		if err := s.Setgid(group.ID); err != nil {
			return fmt.Errorf("unable to change group to '%s' (%d): %w", group.Name, group.ID, err)
		}
	}

	if usr != nil && usr.ID != r.CurrentUID() {
		debugf("Dropping user privileges to '%s':'%d'", usr.Name, usr.ID)
		if err := s.Setuid(usr.ID); err != nil {
			return fmt.Errorf("unable to change user to '%s' (%d): %w", usr.Name, usr.ID, err)
		}
	}

	return nil
}
