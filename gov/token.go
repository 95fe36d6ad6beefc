package gov

import "fmt"

// ControllerToken is the capability to act as one controller of one
// identity. It is an immutable value; holding one grants nothing on other
// identities.
type ControllerToken struct {
	identityID   string
	controllerID string
}

// NewControllerToken returns a token for controllerID acting on identityID.
func NewControllerToken(identityID, controllerID string) (ControllerToken, error) {
	if identityID == "" || controllerID == "" {
		return ControllerToken{}, newError(KindUnauthorized, "GOV-AUTH-000", "controller token requires identity and controller IDs")
	}
	return ControllerToken{identityID: identityID, controllerID: controllerID}, nil
}

func (t ControllerToken) IdentityID() string   { return t.identityID }
func (t ControllerToken) ControllerID() string { return t.controllerID }

func (t ControllerToken) String() string {
	return fmt.Sprintf("%s@%s", t.controllerID, t.identityID)
}

func (t ControllerToken) authorize(identityID string) error {
	if t.controllerID == "" {
		return newError(KindUnauthorized, "GOV-AUTH-000", "zero controller token")
	}
	if t.identityID != identityID {
		return newError(KindUnauthorized, "GOV-AUTH-001", fmt.Sprintf("token for %s cannot act on identity %s", t.identityID, identityID))
	}
	return nil
}
