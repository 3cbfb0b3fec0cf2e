package model

import (
	"regexp"
)

const maxAddressLength = 128

var addressRegex = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Address identifies a pledger or the beneficiary.
type Address string

// ParseAddress validates a caller supplied address.
func ParseAddress(s string) (Address, error) {
	if s == "" || len(s) > maxAddressLength || !addressRegex.MatchString(s) {
		return "", ErrInvalidAddress
	}

	return Address(s), nil
}

func (a Address) String() string {
	return string(a)
}
