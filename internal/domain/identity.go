package domain

// IdentityKind discriminates the two favorite-set owners
type IdentityKind string

const (
	IdentityAnonymous     IdentityKind = "anonymous"
	IdentityAuthenticated IdentityKind = "authenticated"
)

// Identity is a tagged variant: an anonymous device or an authenticated user.
// It determines which backing store favorite operations dispatch to.
type Identity struct {
	Kind IdentityKind `json:"kind"`
	Key  string       `json:"key"` // device id for anonymous, user id for authenticated
}

// Anonymous returns a device-scoped identity
func Anonymous(deviceID string) Identity {
	return Identity{Kind: IdentityAnonymous, Key: deviceID}
}

// Authenticated returns a user-scoped identity
func Authenticated(userID string) Identity {
	return Identity{Kind: IdentityAuthenticated, Key: userID}
}

// IsAuthenticated reports whether the identity belongs to a signed-in user
func (i Identity) IsAuthenticated() bool {
	return i.Kind == IdentityAuthenticated
}

// IsZero reports whether the identity is unset
func (i Identity) IsZero() bool {
	return i.Kind == "" || i.Key == ""
}
