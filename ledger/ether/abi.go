package etherledger

// ContractABI is the interface of the voting contract.
const ContractABI = `[
	{"type":"function","name":"owner","stateMutability":"view","inputs":[],
		"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"workflowStatus","stateMutability":"view","inputs":[],
		"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"getVoter","stateMutability":"view",
		"inputs":[{"name":"_addr","type":"address"}],
		"outputs":[
			{"name":"isRegistered","type":"bool"},
			{"name":"hasVoted","type":"bool"},
			{"name":"votedProposalId","type":"uint256"}]},
	{"type":"function","name":"getOneProposal","stateMutability":"view",
		"inputs":[{"name":"_id","type":"uint256"}],
		"outputs":[
			{"name":"description","type":"string"},
			{"name":"voteCount","type":"uint256"}]},
	{"type":"function","name":"getWinner","stateMutability":"view","inputs":[],
		"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"addVoter","stateMutability":"nonpayable",
		"inputs":[{"name":"_addr","type":"address"}],"outputs":[]},
	{"type":"function","name":"startProposalsRegistering","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"addProposal","stateMutability":"nonpayable",
		"inputs":[{"name":"_desc","type":"string"}],"outputs":[]},
	{"type":"function","name":"endProposalsRegistering","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"startVotingSession","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"setVote","stateMutability":"nonpayable",
		"inputs":[{"name":"_id","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"endVotingSession","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"tallyVotes","stateMutability":"nonpayable","inputs":[],"outputs":[]}
]`

const (
	methodOwner          = "owner"
	methodWorkflowStatus = "workflowStatus"
	methodGetVoter       = "getVoter"
	methodGetOneProposal = "getOneProposal"
	methodGetWinner      = "getWinner"
)
