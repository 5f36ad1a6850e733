package locate

import (
	"errors"
	"fmt"
	"strings"
)

// Policy selects how a JSON key path is matched against raw text.
type Policy uint8

const (
	PolicyFirstMatch Policy = iota
	PolicyLegacy
	PolicyScoped
)

// ErrUnknownPolicy reports an unsupported locator name.
var ErrUnknownPolicy = errors.New("unknown locator policy")

func (p Policy) String() string {
	switch p {
	case PolicyFirstMatch:
		return "first-match"
	case PolicyLegacy:
		return "legacy"
	case PolicyScoped:
		return "scoped"
	}
	return fmt.Sprintf("Policy(%d)", uint8(p))
}

// ParsePolicy converts a locator name to a Policy. Empty selects PolicyFirstMatch.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first-match":
		return PolicyFirstMatch, nil
	case "legacy":
		return PolicyLegacy, nil
	case "scoped":
		return PolicyScoped, nil
	default:
		return PolicyFirstMatch, fmt.Errorf("%w %q (expected first-match|legacy|scoped)", ErrUnknownPolicy, s)
	}
}
