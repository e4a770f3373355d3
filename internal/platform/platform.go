package platform

import (
	"fmt"
	"strings"
)

// Type identifies one of the three external compliance portals. None of them
// exposes a programmatic API; uploads are performed by a human operator.
type Type string

const (
	Nalanda   Type = "nalanda"
	SiteDocs  Type = "sitedocs"
	Veriforce Type = "veriforce"
)

// All lists every supported portal.
func All() []Type {
	return []Type{Nalanda, SiteDocs, Veriforce}
}

// Parse normalizes raw into a Type.
func Parse(raw string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(raw))) {
	case Nalanda:
		return Nalanda, nil
	case SiteDocs:
		return SiteDocs, nil
	case Veriforce:
		return Veriforce, nil
	default:
		return "", fmt.Errorf("unknown platform %q", raw)
	}
}

// Valid reports whether t is a known portal.
func (t Type) Valid() bool {
	_, err := Parse(string(t))
	return err == nil
}

func (t Type) String() string {
	return string(t)
}
