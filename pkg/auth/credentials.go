package auth

import (
	"crypto/subtle"
	"errors"
	"strings"
)

var ErrNoPassword = errors.New("operator password not set")

// Credentials of the single operator allowed into the web UI.
type Credentials struct {
	Username string
	Password string
}

// Validate makes sure both parts of the credentials are set.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return errors.New("operator username required")
	}
	if c.Password == "" {
		return ErrNoPassword
	}
	return nil
}

// Check compares the submitted username and password in constant time.
func (c Credentials) Check(username, password string) bool {
	if c.Validate() != nil {
		return false
	}
	u := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(username)), []byte(c.Username))
	p := subtle.ConstantTimeCompare([]byte(password), []byte(c.Password))
	return u&p == 1
}
