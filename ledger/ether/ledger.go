package etherledger

import (
	"context"
	"math/big"
	"strings"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spikeekips/mitum-voting/base"
	"github.com/spikeekips/mitum-voting/identity"
	"github.com/spikeekips/mitum-voting/ledger"
	"github.com/spikeekips/mitum-voting/util/localtime"
	"github.com/spikeekips/mitum-voting/util/logging"
)

var (
	DefaultWaitTimeout         = time.Minute * 2
	DefaultMaxProposals uint64 = 1000
)

// Backend is the part of the ethereum node the ledger needs; *ethclient.Client
// satisfies it.
type Backend interface {
	CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error)
	EstimateGas(context.Context, ethereum.CallMsg) (uint64, error)
	PendingNonceAt(context.Context, common.Address) (uint64, error)
	SuggestGasPrice(context.Context) (*big.Int, error)
	SendTransaction(context.Context, *types.Transaction) error
	TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error)
	CodeAt(context.Context, common.Address, *big.Int) ([]byte, error)
}

// Ledger is the ledger.Client of the voting contract deployed on an ethereum
// chain. Submissions are signed by the signer and Submit waits until the
// transaction is mined.
type Ledger struct {
	*logging.Logging
	backend      Backend
	contract     common.Address
	abi          abi.ABI
	signer       identity.Signer
	chainID      *big.Int
	waitTimeout  time.Duration
	maxProposals uint64
}

func New(backend Backend, contract base.Address, signer identity.Signer, chainID *big.Int) (*Ledger, error) {
	if err := contract.IsValid(nil); err != nil {
		return nil, errors.Wrap(err, "invalid contract address")
	}

	if chainID == nil || chainID.Sign() < 1 {
		return nil, errors.Errorf("invalid chain id, %v", chainID)
	}

	parsed, err := abi.JSON(strings.NewReader(ContractABI))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse contract abi")
	}

	return &Ledger{
		Logging: logging.NewLogging(func(c zerolog.Context) zerolog.Context {
			return c.Str("module", "ether-ledger").Str("contract", contract.String())
		}),
		backend:      backend,
		contract:     contract.Ether(),
		abi:          parsed,
		signer:       signer,
		chainID:      chainID,
		waitTimeout:  DefaultWaitTimeout,
		maxProposals: DefaultMaxProposals,
	}, nil
}

// Dial connects to the node at uri. When chainID is nil, it is asked to the
// node.
func Dial(
	ctx context.Context, uri string, contract base.Address, signer identity.Signer, chainID *big.Int,
) (*Ledger, *ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, uri)
	if err != nil {
		return nil, nil, ledger.UnreachableError.Wrap(errors.Wrapf(err, "failed to dial %q", uri))
	}

	if chainID == nil {
		i, err := client.ChainID(ctx)
		if err != nil {
			client.Close()

			return nil, nil, ledger.UnreachableError.Wrap(errors.Wrap(err, "failed to get chain id"))
		}

		chainID = i
	}

	lg, err := New(client, contract, signer, chainID)
	if err != nil {
		client.Close()

		return nil, nil, err
	}

	return lg, client, nil
}

func (lg *Ledger) SetWaitTimeout(d time.Duration) *Ledger {
	if d > 0 {
		lg.waitTimeout = d
	}

	return lg
}

func (lg *Ledger) SetMaxProposals(n uint64) *Ledger {
	if n > 0 {
		lg.maxProposals = n
	}

	return lg
}

func (lg *Ledger) Read(ctx context.Context, q ledger.Query) (interface{}, error) {
	switch q.Kind {
	case ledger.QueryOwner:
		return lg.owner(ctx, q.Caller)
	case ledger.QueryPhase:
		return lg.phase(ctx, q.Caller)
	case ledger.QueryVoter:
		return lg.voter(ctx, q.Caller, q.Voter)
	case ledger.QueryProposals:
		return lg.proposals(ctx, q.Caller)
	case ledger.QueryWinner:
		return lg.winner(ctx, q.Caller)
	default:
		return nil, ledger.UnknownQueryError.Errorf("query=%d", q.Kind)
	}
}

func (lg *Ledger) Submit(
	ctx context.Context,
	action base.ActionKind,
	payload base.Payload,
	caller base.Address,
) (ledger.Receipt, error) {
	method, args, err := submission(action, payload)
	if err != nil {
		return ledger.Receipt{}, err
	}

	data, err := lg.abi.Pack(method, args...)
	if err != nil {
		return ledger.Receipt{}, errors.Wrapf(err, "failed to pack %s", method)
	}

	l := lg.Log().With().Str("method", method).Str("caller", caller.String()).Logger()

	from := caller.Ether()
	msg := ethereum.CallMsg{From: from, To: &lg.contract, Data: data}

	// NOTE estimating gas runs the call; the revert is found before sending
	gas, err := lg.backend.EstimateGas(ctx, msg)
	if err != nil {
		return ledger.Receipt{}, classify(err)
	}

	nonce, err := lg.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return ledger.Receipt{}, classify(err)
	}

	gasPrice, err := lg.backend.SuggestGasPrice(ctx)
	if err != nil {
		return ledger.Receipt{}, classify(err)
	}

	tx, err := lg.signer.SignTx(caller, types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &lg.contract,
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     data,
	}), lg.chainID)
	if err != nil {
		return ledger.Receipt{}, errors.Wrap(err, "failed to sign transaction")
	}

	if err := lg.backend.SendTransaction(ctx, tx); err != nil {
		return ledger.Receipt{}, classify(err)
	}

	l.Debug().Str("tx", tx.Hash().Hex()).Uint64("nonce", nonce).Uint64("gas", gas).Msg("transaction sent")

	wctx, cancel := context.WithTimeout(ctx, lg.waitTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(wctx, lg.backend, tx)
	if err != nil {
		return ledger.Receipt{}, ledger.UnreachableError.Wrap(errors.Wrapf(err, "failed to wait transaction, %q", tx.Hash().Hex()))
	}

	if receipt.Status == types.ReceiptStatusFailed {
		reason := lg.replayRevert(ctx, msg, receipt.BlockNumber)

		l.Debug().Str("tx", tx.Hash().Hex()).Str("reason", reason).Msg("transaction reverted")

		return ledger.Receipt{}, ledger.NewRevertError(reason)
	}

	var height uint64
	if receipt.BlockNumber != nil {
		height = receipt.BlockNumber.Uint64()
	}

	l.Debug().Str("tx", tx.Hash().Hex()).Uint64("block", height).Msg("transaction mined")

	return ledger.Receipt{
		TxHash:      tx.Hash().Hex(),
		BlockNumber: height,
		ConfirmedAt: localtime.UTCNow(),
	}, nil
}

// replayRevert calls the failed transaction again at its block to find the
// reason.
func (lg *Ledger) replayRevert(ctx context.Context, msg ethereum.CallMsg, height *big.Int) string {
	_, err := lg.backend.CallContract(ctx, msg, height)
	if err == nil {
		return "transaction reverted"
	}

	if reason, ok := revertReason(err); ok {
		return reason
	}

	return "transaction reverted"
}

func (lg *Ledger) call(ctx context.Context, caller base.Address, method string, args ...interface{}) (
	[]interface{}, error,
) {
	data, err := lg.abi.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to pack %s", method)
	}

	msg := ethereum.CallMsg{To: &lg.contract, Data: data}
	if !caller.IsEmpty() {
		msg.From = caller.Ether()
	}

	b, err := lg.backend.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, classify(err)
	}

	i, err := lg.abi.Unpack(method, b)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to unpack %s", method)
	}

	return i, nil
}

func (lg *Ledger) owner(ctx context.Context, caller base.Address) (base.Address, error) {
	i, err := lg.call(ctx, caller, methodOwner)
	if err != nil {
		return base.EmptyAddress, err
	}

	a, ok := i[0].(common.Address)
	if !ok {
		return base.EmptyAddress, errors.Errorf("unexpected owner, %T", i[0])
	}

	return base.AddressFromEther(a), nil
}

func (lg *Ledger) phase(ctx context.Context, caller base.Address) (base.Phase, error) {
	i, err := lg.call(ctx, caller, methodWorkflowStatus)
	if err != nil {
		return 0, err
	}

	u, ok := i[0].(uint8)
	if !ok {
		return 0, errors.Errorf("unexpected workflow status, %T", i[0])
	}

	ph := base.Phase(u)

	return ph, ph.IsValid(nil)
}

func (lg *Ledger) voter(ctx context.Context, caller, voter base.Address) (base.VoterStatus, error) {
	i, err := lg.call(ctx, caller, methodGetVoter, voter.Ether())
	if err != nil {
		return base.VoterStatus{}, err
	}

	registered, ok0 := i[0].(bool)
	voted, ok1 := i[1].(bool)
	id, ok2 := i[2].(*big.Int)

	if !ok0 || !ok1 || !ok2 {
		return base.VoterStatus{}, errors.Errorf("unexpected voter, %T, %T, %T", i[0], i[1], i[2])
	}

	return base.VoterStatus{
		Known:           true,
		Registered:      registered,
		HasVoted:        voted,
		VotedProposalID: id.Uint64(),
	}, nil
}

// proposals reads the proposals one by one from id 1 until the contract
// reverts.
func (lg *Ledger) proposals(ctx context.Context, caller base.Address) ([]base.Proposal, error) {
	var ps []base.Proposal

	for id := uint64(1); id <= lg.maxProposals; id++ {
		i, err := lg.call(ctx, caller, methodGetOneProposal, new(big.Int).SetUint64(id))
		if err != nil {
			if _, ok := ledger.IsRevert(err); !ok {
				return nil, err
			}

			if id == 1 {
				// NOTE the revert may come from a caller who is not allowed to read
				if _, verr := lg.voter(ctx, caller, caller); verr != nil {
					return nil, err
				}
			}

			break
		}

		description, ok0 := i[0].(string)
		count, ok1 := i[1].(*big.Int)

		if !ok0 || !ok1 {
			return nil, errors.Errorf("unexpected proposal, %T, %T", i[0], i[1])
		}

		ps = append(ps, base.Proposal{ID: id, Description: description, VoteCount: count.Uint64()})
	}

	if ps == nil {
		ps = []base.Proposal{}
	}

	return ps, nil
}

func (lg *Ledger) winner(ctx context.Context, caller base.Address) (uint64, error) {
	i, err := lg.call(ctx, caller, methodGetWinner)
	if err != nil {
		return 0, err
	}

	id, ok := i[0].(*big.Int)
	if !ok {
		return 0, errors.Errorf("unexpected winner, %T", i[0])
	}

	return id.Uint64(), nil
}

func submission(action base.ActionKind, payload base.Payload) (string, []interface{}, error) {
	switch action {
	case base.ActionRegisterVoter:
		return "addVoter", []interface{}{payload.Voter.Ether()}, nil
	case base.ActionOpenProposalsRegistration:
		return "startProposalsRegistering", nil, nil
	case base.ActionSubmitProposal:
		return "addProposal", []interface{}{payload.Description}, nil
	case base.ActionCloseProposalsRegistration:
		return "endProposalsRegistering", nil, nil
	case base.ActionOpenVotingSession:
		return "startVotingSession", nil, nil
	case base.ActionCastVote:
		return "setVote", []interface{}{new(big.Int).SetUint64(payload.ProposalID)}, nil
	case base.ActionCloseVotingSession:
		return "endVotingSession", nil, nil
	case base.ActionTallyVotes:
		return "tallyVotes", nil, nil
	default:
		return "", nil, ledger.UnknownActionError.Errorf("action=%s", action)
	}
}
