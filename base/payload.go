package base

// Payload carries the arguments of an action. Which field is used depends on
// the action: Voter for RegisterVoter, Description for SubmitProposal and
// ProposalID for CastVote.
type Payload struct {
	Voter       Address `json:"voter,omitempty"`
	Description string  `json:"description,omitempty"`
	ProposalID  uint64  `json:"proposal_id,omitempty"`
}
