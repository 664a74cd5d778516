package base

// VoterStatus is what the session knows about the caller's voter record.
// Known is false when the record could not be read.
type VoterStatus struct {
	Known           bool   `json:"known"`
	Registered      bool   `json:"registered"`
	HasVoted        bool   `json:"has_voted"`
	VotedProposalID uint64 `json:"voted_proposal_id,omitempty"`
}

func (vs VoterStatus) IsUnregistered() bool {
	return vs.Known && !vs.Registered
}

func (vs VoterStatus) IsVoted() bool {
	return vs.Known && vs.HasVoted
}
