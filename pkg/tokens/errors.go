package tokens

import (
	"fmt"

	"gitlab.com/tozd/go/errors"
)

var (
	// ErrNoTokenAvailable is returned by selection when neither tier matched and no
	// component specification was supplied.
	ErrNoTokenAvailable = errors.Base("no semantic or primitive token satisfies the request")

	// ErrInvalidComponentSpec is returned when a component token cannot be minted.
	ErrInvalidComponentSpec = errors.Base("invalid component token specification")
)

// DuplicateTokenError is raised when a name is registered twice without overwrite.
type DuplicateTokenError struct {
	Kind Kind
	Name string
}

func (e *DuplicateTokenError) Error() string {
	return fmt.Sprintf("%s token %q is already registered", e.Kind, e.Name)
}

// UnsupportedPlatformError is raised for platform strings outside ios/android/web.
type UnsupportedPlatformError struct {
	Platform string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported platform %q: expected one of ios, android, web", e.Platform)
}

// UnresolvedReferenceError is raised when a semantic token is converted but a
// primitive it references does not exist.
type UnresolvedReferenceError struct {
	Token     string
	Role      string
	Reference string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("semantic token %q references non-existent primitive %q (role %s)", e.Token, e.Reference, e.Role)
}
