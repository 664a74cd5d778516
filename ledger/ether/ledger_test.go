package etherledger

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"testing"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	etherCrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/spikeekips/mitum-voting/base"
	"github.com/spikeekips/mitum-voting/identity"
	"github.com/spikeekips/mitum-voting/ledger"
	"github.com/stretchr/testify/suite"
)

var contract = base.Address("0xd9145CCE52D386f254917e481eB44e9943F39138")

type revertError struct {
	reason string
}

func (er revertError) Error() string {
	return "execution reverted"
}

func (er revertError) ErrorCode() int {
	return 3
}

func (er revertError) ErrorData() interface{} {
	st, _ := abi.NewType("string", "", nil)
	b, _ := abi.Arguments{{Type: st}}.Pack(er.reason)

	return hexutil.Encode(append(etherCrypto.Keccak256([]byte("Error(string)"))[:4], b...))
}

type callFunc func(method string, from common.Address, args []interface{}) ([]interface{}, error)

type fakeBackend struct {
	sync.Mutex
	abi     abi.ABI
	call    callFunc
	status  uint64
	sent    []*types.Transaction
	offline bool
}

func newFakeBackend(f callFunc) *fakeBackend {
	parsed, err := abi.JSON(strings.NewReader(ContractABI))
	if err != nil {
		panic(err)
	}

	return &fakeBackend{abi: parsed, call: f, status: types.ReceiptStatusSuccessful}
}

func (b *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if b.offline {
		return nil, errors.Errorf("dial tcp: connection refused")
	}

	m, err := b.abi.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}

	args, err := m.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}

	outs, err := b.call(m.Name, msg.From, args)
	if err != nil {
		return nil, err
	}

	return m.Outputs.Pack(outs...)
}

func (b *fakeBackend) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	if _, err := b.CallContract(ctx, msg, nil); err != nil {
		return 0, err
	}

	return 21000, nil
}

func (*fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return 3, nil
}

func (*fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1000000000), nil
}

func (b *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	b.Lock()
	defer b.Unlock()

	b.sent = append(b.sent, tx)

	return nil
}

func (b *fakeBackend) TransactionReceipt(_ context.Context, h common.Hash) (*types.Receipt, error) {
	return &types.Receipt{Status: b.status, TxHash: h, BlockNumber: big.NewInt(7)}, nil
}

func (*fakeBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x1}, nil
}

type testLedger struct {
	suite.Suite
	kr     *identity.KeyRing
	caller base.Address
}

func (t *testLedger) SetupTest() {
	pk, err := etherCrypto.GenerateKey()
	t.NoError(err)

	kr, err := identity.NewKeyRing([]string{hexutil.Encode(etherCrypto.FromECDSA(pk))})
	t.NoError(err)

	t.kr = kr
	t.caller = kr.Addresses()[0]
}

func (t *testLedger) newLedger(f callFunc) (*Ledger, *fakeBackend) {
	b := newFakeBackend(f)

	lg, err := New(b, contract, t.kr, big.NewInt(1337))
	t.NoError(err)

	return lg, b
}

func (t *testLedger) TestNewInvalid() {
	_, err := New(newFakeBackend(nil), base.Address("0x1"), t.kr, big.NewInt(1))
	t.True(errors.Is(err, base.InvalidAddressError))

	_, err = New(newFakeBackend(nil), contract, t.kr, nil)
	t.Error(err)
}

func (t *testLedger) TestReadOwnerAndPhase() {
	owner := common.HexToAddress("0x5B38Da6a701c568545dCfcB03FcB875f56beddC4")

	lg, _ := t.newLedger(func(method string, _ common.Address, _ []interface{}) ([]interface{}, error) {
		switch method {
		case methodOwner:
			return []interface{}{owner}, nil
		case methodWorkflowStatus:
			return []interface{}{uint8(base.PhaseVotingSessionStarted)}, nil
		default:
			return nil, errors.Errorf("unexpected method, %q", method)
		}
	})

	a, err := ledger.Owner(context.Background(), lg)
	t.NoError(err)
	t.True(a.Equal(base.AddressFromEther(owner)))

	ph, err := ledger.Phase(context.Background(), lg)
	t.NoError(err)
	t.Equal(base.PhaseVotingSessionStarted, ph)
}

func (t *testLedger) TestReadInvalidPhase() {
	lg, _ := t.newLedger(func(string, common.Address, []interface{}) ([]interface{}, error) {
		return []interface{}{uint8(9)}, nil
	})

	_, err := ledger.Phase(context.Background(), lg)
	t.True(errors.Is(err, base.InvalidPhaseError))
}

func (t *testLedger) TestReadVoter() {
	lg, _ := t.newLedger(func(method string, from common.Address, args []interface{}) ([]interface{}, error) {
		t.Equal(methodGetVoter, method)
		t.Equal(t.caller.Ether(), from)
		t.Equal(t.caller.Ether(), args[0])

		return []interface{}{true, true, big.NewInt(2)}, nil
	})

	vs, err := ledger.Voter(context.Background(), lg, t.caller, t.caller)
	t.NoError(err)
	t.Equal(base.VoterStatus{Known: true, Registered: true, HasVoted: true, VotedProposalID: 2}, vs)
}

func (t *testLedger) TestReadProposals() {
	descriptions := []string{"a", "b", "c"}

	lg, _ := t.newLedger(func(method string, _ common.Address, args []interface{}) ([]interface{}, error) {
		switch method {
		case methodGetOneProposal:
			id := args[0].(*big.Int).Uint64()
			if id > uint64(len(descriptions)) {
				return nil, revertError{reason: "Proposal not found"}
			}

			return []interface{}{descriptions[id-1], new(big.Int).SetUint64(id * 2)}, nil
		default:
			return nil, errors.Errorf("unexpected method, %q", method)
		}
	})

	ps, err := ledger.Proposals(context.Background(), lg, t.caller)
	t.NoError(err)
	t.Equal([]base.Proposal{
		{ID: 1, Description: "a", VoteCount: 2},
		{ID: 2, Description: "b", VoteCount: 4},
		{ID: 3, Description: "c", VoteCount: 6},
	}, ps)
}

func (t *testLedger) TestReadProposalsEmpty() {
	lg, _ := t.newLedger(func(method string, _ common.Address, _ []interface{}) ([]interface{}, error) {
		switch method {
		case methodGetOneProposal:
			return nil, revertError{reason: "Proposal not found"}
		case methodGetVoter:
			return []interface{}{true, false, big.NewInt(0)}, nil
		default:
			return nil, errors.Errorf("unexpected method, %q", method)
		}
	})

	ps, err := ledger.Proposals(context.Background(), lg, t.caller)
	t.NoError(err)
	t.Empty(ps)
}

func (t *testLedger) TestReadProposalsNotVoter() {
	lg, _ := t.newLedger(func(string, common.Address, []interface{}) ([]interface{}, error) {
		return nil, revertError{reason: "You're not a voter"}
	})

	_, err := ledger.Proposals(context.Background(), lg, t.caller)

	reason, ok := ledger.IsRevert(err)
	t.True(ok)
	t.Equal("You're not a voter", reason)
}

func (t *testLedger) TestReadWinner() {
	lg, _ := t.newLedger(func(string, common.Address, []interface{}) ([]interface{}, error) {
		return []interface{}{big.NewInt(2)}, nil
	})

	id, err := ledger.Winner(context.Background(), lg, t.caller)
	t.NoError(err)
	t.Equal(uint64(2), id)
}

func (t *testLedger) TestReadUnreachable() {
	lg, b := t.newLedger(nil)
	b.offline = true

	_, err := ledger.Owner(context.Background(), lg)
	t.True(errors.Is(err, ledger.UnreachableError))

	_, ok := ledger.IsRevert(err)
	t.False(ok)
}

func (t *testLedger) TestSubmit() {
	var called []interface{}

	lg, b := t.newLedger(func(method string, from common.Address, args []interface{}) ([]interface{}, error) {
		t.Equal("addProposal", method)
		t.Equal(t.caller.Ether(), from)

		called = args

		return nil, nil
	})

	r, err := lg.Submit(context.Background(), base.ActionSubmitProposal, base.Payload{Description: "more trees"}, t.caller)
	t.NoError(err)
	t.Equal(uint64(7), r.BlockNumber)
	t.Equal([]interface{}{"more trees"}, called)

	t.Equal(1, len(b.sent))
	tx := b.sent[0]
	t.Equal(r.TxHash, tx.Hash().Hex())
	t.Equal(uint64(3), tx.Nonce())

	sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(1337)), tx)
	t.NoError(err)
	t.Equal(t.caller.Ether(), sender)
}

func (t *testLedger) TestSubmitReverted() {
	lg, b := t.newLedger(func(string, common.Address, []interface{}) ([]interface{}, error) {
		return nil, revertError{reason: "Ownable: caller is not the owner"}
	})

	_, err := lg.Submit(context.Background(), base.ActionOpenVotingSession, base.Payload{}, t.caller)

	reason, ok := ledger.IsRevert(err)
	t.True(ok)
	t.Equal("Ownable: caller is not the owner", reason)
	t.Empty(b.sent)
}

func (t *testLedger) TestSubmitMinedButFailed() {
	var mined bool

	lg, b := t.newLedger(func(string, common.Address, []interface{}) ([]interface{}, error) {
		if mined {
			return nil, revertError{reason: "You have already voted"}
		}

		return nil, nil
	})
	b.status = types.ReceiptStatusFailed

	lg.backend = &minedHook{fakeBackend: b, mined: func() { mined = true }}

	_, err := lg.Submit(context.Background(), base.ActionCastVote, base.Payload{ProposalID: 1}, t.caller)

	reason, ok := ledger.IsRevert(err)
	t.True(ok, "%+v", err)
	t.Equal("You have already voted", reason)
}

func (t *testLedger) TestSubmitUnknownSigner() {
	lg, _ := t.newLedger(func(string, common.Address, []interface{}) ([]interface{}, error) {
		return nil, nil
	})

	other := base.Address("0x4B20993Bc481177ec7E8f571ceCaE8A9e22C02db")

	_, err := lg.Submit(context.Background(), base.ActionTallyVotes, base.Payload{}, other)
	t.True(errors.Is(err, identity.UnknownKeyError))
}

func (t *testLedger) TestSubmitUnknownAction() {
	lg, _ := t.newLedger(nil)

	_, err := lg.Submit(context.Background(), base.ActionReadWinner, base.Payload{}, t.caller)
	t.True(errors.Is(err, ledger.UnknownActionError))
}

type minedHook struct {
	*fakeBackend
	mined func()
}

func (b *minedHook) TransactionReceipt(ctx context.Context, h common.Hash) (*types.Receipt, error) {
	b.mined()

	return b.fakeBackend.TransactionReceipt(ctx, h)
}

func TestLedger(t *testing.T) {
	suite.Run(t, new(testLedger))
}

type testClassify struct {
	suite.Suite
}

func (t *testClassify) TestDataError() {
	err := classify(revertError{reason: "Proposal not found"})

	reason, ok := ledger.IsRevert(err)
	t.True(ok)
	t.Equal("Proposal not found", reason)
}

func (t *testClassify) TestMessage() {
	for _, s := range []string{
		"execution reverted: Votes are not tallied yet",
		"VM Exception while processing transaction: revert Votes are not tallied yet",
	} {
		reason, ok := ledger.IsRevert(classify(errors.New(s)))
		t.True(ok, s)
		t.Equal("Votes are not tallied yet", reason)
	}
}

func (t *testClassify) TestUnreachable() {
	err := classify(context.DeadlineExceeded)
	t.True(errors.Is(err, ledger.UnreachableError))
	t.True(errors.Is(err, context.DeadlineExceeded))

	t.Nil(classify(nil))
}

func TestClassify(t *testing.T) {
	suite.Run(t, new(testClassify))
}
