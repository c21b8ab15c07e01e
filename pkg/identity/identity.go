// Package identity resolves operating system accounts and switches the
// process to them.
//
// Lookups go through the Resolver interface and privilege changes through
// the Switcher interface, so both can be replaced by fakes in tests.
package identity

import (
	"errors"
	"fmt"
	"os/user"
	"strconv"
)

// ErrUnknownAccount is returned when neither the name nor the numeric id
// matches an account.
var ErrUnknownAccount = errors.New("unknown account")

// Account is a resolved user or group.
type Account struct {
	Name string `json:"name"`
	ID   int    `json:"id"`
}

// Resolver looks up user and group accounts. A lookup tries the value as a
// name first and falls back to treating it as a numeric id.
type Resolver interface {
	LookupUser(nameOrID string) (Account, error)
	LookupGroup(nameOrID string) (Account, error)
	CurrentUID() int
	CurrentGID() int
}

// OSResolver resolves accounts through the operating system account database.
type OSResolver struct{}

// LookupUser resolves a user by name or uid.
func (OSResolver) LookupUser(nameOrID string) (Account, error) {
	u, err := user.Lookup(nameOrID)
	if err != nil {
		if _, convErr := strconv.Atoi(nameOrID); convErr != nil {
			return Account{}, fmt.Errorf("user %q: %w", nameOrID, ErrUnknownAccount)
		}
		u, err = user.LookupId(nameOrID)
		if err != nil {
			return Account{}, fmt.Errorf("user %q: %w", nameOrID, ErrUnknownAccount)
		}
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return Account{}, fmt.Errorf("user %q has non-numeric uid %q", u.Username, u.Uid)
	}
	return Account{Name: u.Username, ID: uid}, nil
}

// LookupGroup resolves a group by name or gid.
func (OSResolver) LookupGroup(nameOrID string) (Account, error) {
	g, err := user.LookupGroup(nameOrID)
	if err != nil {
		if _, convErr := strconv.Atoi(nameOrID); convErr != nil {
			return Account{}, fmt.Errorf("group %q: %w", nameOrID, ErrUnknownAccount)
		}
		g, err = user.LookupGroupId(nameOrID)
		if err != nil {
			return Account{}, fmt.Errorf("group %q: %w", nameOrID, ErrUnknownAccount)
		}
	}
	gid, err := strconv.Atoi(g.Gid)
	if err != nil {
		return Account{}, fmt.Errorf("group %q has non-numeric gid %q", g.Name, g.Gid)
	}
	return Account{Name: g.Name, ID: gid}, nil
}

// FakeResolver is an in-memory Resolver for tests.
type FakeResolver struct {
	Users  []Account
	Groups []Account
	UID    int
	GID    int
}

// LookupUser resolves a user from Users.
func (f *FakeResolver) LookupUser(nameOrID string) (Account, error) {
	if a, ok := lookup(f.Users, nameOrID); ok {
		return a, nil
	}
	return Account{}, fmt.Errorf("user %q: %w", nameOrID, ErrUnknownAccount)
}

// LookupGroup resolves a group from Groups.
func (f *FakeResolver) LookupGroup(nameOrID string) (Account, error) {
	if a, ok := lookup(f.Groups, nameOrID); ok {
		return a, nil
	}
	return Account{}, fmt.Errorf("group %q: %w", nameOrID, ErrUnknownAccount)
}

// CurrentUID returns UID.
func (f *FakeResolver) CurrentUID() int { return f.UID }

// CurrentGID returns GID.
func (f *FakeResolver) CurrentGID() int { return f.GID }

func lookup(accounts []Account, nameOrID string) (Account, bool) {
	for _, a := range accounts {
		if a.Name == nameOrID {
			return a, true
		}
	}
	id, err := strconv.Atoi(nameOrID)
	if err != nil {
		return Account{}, false
	}
	for _, a := range accounts {
		if a.ID == id {
			return a, true
		}
	}
	return Account{}, false
}
