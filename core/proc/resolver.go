package proc

import (
	"strconv"

	"golang.org/x/sys/unix"
)

// ParseFileNumber parses a non-negative decimal integer that fits in 31 bits.
// Only ASCII digits are accepted; leading zeros are fine.
func ParseFileNumber(token string) (int, error) {
	for _, c := range token {
		if c < '0' || c > '9' {
			return 0, &Error{Kind: BadNumericToken, Token: token}
		}
	}
	n, err := strconv.ParseUint(token, 10, 31)
	if err != nil {
		return 0, &Error{Kind: BadNumericToken, Token: token, Err: err}
	}
	return int(n), nil
}

// Resolver turns redirection tokens into descriptors.
type Resolver struct {
	Descriptors *DescriptorRegistry
}

// Resolve maps "i", "o" and "e" to the parent's current standard streams and
// anything else to the descriptor of that file number.
func (r Resolver) Resolve(token string) (int, error) {
	switch token {
	case "i":
		return unix.Stdin, nil
	case "o":
		return unix.Stdout, nil
	case "e":
		return unix.Stderr, nil
	}

	n, err := ParseFileNumber(token)
	if err != nil {
		return -1, &Error{Kind: BadRedirectionToken, Token: token, Err: err}
	}
	return r.Descriptors.Resolve(n)
}
