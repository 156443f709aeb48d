package auth

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Roles known to the session layer.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

var ErrBadCredentials = errors.New("invalid username or password")

// User is the signed-in identity exposed to handlers.
type User struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type account struct {
	user User
	hash []byte
}

// Accounts is the fixed demo account table.
type Accounts struct {
	byName map[string]account
}

// NewAccounts hashes the two demo passwords. The staff account's display
// name must match the name check-ins are recorded under.
func NewAccounts(adminPassword, staffPassword string) (*Accounts, error) {
	a := &Accounts{byName: make(map[string]account, 2)}
	seed := []struct {
		user     User
		password string
	}{
		{User{Username: "admin", Name: "Admin User", Role: RoleAdmin}, adminPassword},
		{User{Username: "staff", Name: "Staff User", Role: RoleStaff}, staffPassword},
	}
	for _, s := range seed {
		if s.password == "" {
			return nil, errors.New("empty password for " + s.user.Username)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(s.password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		a.byName[s.user.Username] = account{user: s.user, hash: hash}
	}
	return a, nil
}

// Authenticate checks username and password.
func (a *Accounts) Authenticate(username, password string) (User, error) {
	acc, ok := a.byName[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		return User{}, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		return User{}, ErrBadCredentials
	}
	return acc.user, nil
}

// Lookup returns the account for username, used when refreshing sessions.
func (a *Accounts) Lookup(username string) (User, bool) {
	acc, ok := a.byName[username]
	return acc.user, ok
}
