package base

// Role is derived from the caller and the ledger owner; it is never stored on
// its own.
type Role uint8

const (
	RoleParticipant Role = iota
	RoleOwner
)

func RoleOf(caller, owner Address) Role {
	if !caller.IsEmpty() && caller.Equal(owner) {
		return RoleOwner
	}

	return RoleParticipant
}

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "Owner"
	case RoleParticipant:
		return "Participant"
	default:
		return "<unknown Role>"
	}
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}
