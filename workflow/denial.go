package workflow

// Denial is the reason an action is refused locally.
type Denial uint8

const (
	DenialNone Denial = iota
	DenialWrongRole
	DenialWrongPhase
	DenialSubmissionAlreadyPending
	DenialInvalidPayload
	DenialAlreadyVoted
	DenialNoSession
)

func (d Denial) String() string {
	switch d {
	case DenialNone:
		return "None"
	case DenialWrongRole:
		return "WrongRole"
	case DenialWrongPhase:
		return "WrongPhase"
	case DenialSubmissionAlreadyPending:
		return "SubmissionAlreadyPending"
	case DenialInvalidPayload:
		return "InvalidPayload"
	case DenialAlreadyVoted:
		return "AlreadyVoted"
	case DenialNoSession:
		return "NoSession"
	default:
		return "<unknown Denial>"
	}
}

func (d Denial) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
