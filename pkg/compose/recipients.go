package compose

import (
	"net/mail"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Override is an operator's recipient list for one role.
// The zero value means "not provided": the role's defaults apply.
// Replace with no addresses means "clear the defaults".
type Override struct {
	addrs    []string
	provided bool
}

// Keep leaves the role's defaults in place.
func Keep() Override { return Override{} }

// Replace makes addrs authoritative for the role, even when empty.
func Replace(addrs ...string) Override {
	return Override{addrs: slices.Clone(addrs), provided: true}
}

// Provided reports whether the operator supplied a list.
func (o Override) Provided() bool { return o.provided }

// Addresses returns the supplied list (nil when not provided).
func (o Override) Addresses() []string { return slices.Clone(o.addrs) }

// Overrides carries the operator's per-role overrides.
type Overrides struct {
	To Override
	CC Override
}

// Recipients is the resolved address list per role.
type Recipients struct {
	To []string `json:"to"`
	CC []string `json:"cc"`
}

// ResolveRecipients merges template defaults with operator overrides.
// Output lists are deduplicated case-insensitively, first occurrence wins.
func ResolveRecipients(d Defaults, o Overrides) Recipients {
	return Recipients{
		To: resolveRole(d.To, o.To),
		CC: resolveRole(d.CC, o.CC),
	}
}

func resolveRole(defaults []Contact, o Override) []string {
	if o.provided {
		return Dedupe(o.addrs)
	}
	addrs := make([]string, 0, len(defaults))
	for _, c := range defaults {
		addrs = append(addrs, c.Email)
	}
	return Dedupe(addrs)
}

// AddressKey is the comparison key for an address: trimmed and case-folded.
func AddressKey(addr string) string {
	// a Caser is stateful and must not be shared between goroutines
	return cases.Fold().String(strings.TrimSpace(addr))
}

// Dedupe drops blank and repeated addresses, keeping the first spelling seen.
func Dedupe(addrs []string) []string {
	out := make([]string, 0, len(addrs))
	seen := make(map[string]struct{}, len(addrs))
	for _, a := range addrs {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		k := AddressKey(a)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, a)
	}
	return out
}

// ValidAddress reports whether addr is a bare email address.
func ValidAddress(addr string) bool {
	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return false
	}
	return parsed.Name == "" && parsed.Address == strings.TrimSpace(addr)
}

// invalidAddresses returns the entries of addrs that fail ValidAddress.
func invalidAddresses(addrs ...[]string) []string {
	var bad []string
	for _, list := range addrs {
		for _, a := range list {
			if !ValidAddress(a) {
				bad = append(bad, a)
			}
		}
	}
	return bad
}
