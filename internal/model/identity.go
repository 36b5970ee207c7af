package model

type ContextKey string

const (
	IdentityKey ContextKey = "identity"
)

// Identity is who a request acts for: an anonymous device, an authenticated
// account, or both (a signed-in user on a known device).
type Identity struct {
	DeviceID string `json:"deviceId,omitempty"`
	UserID   string `json:"userId,omitempty"`
}

func (i Identity) IsAuthenticated() bool {
	return i.UserID != ""
}

func (i Identity) IsZero() bool {
	return i.DeviceID == "" && i.UserID == ""
}
