package identity

import (
	"crypto/ecdsa"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/core/types"
	etherCrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/spikeekips/mitum-voting/base"
	"github.com/spikeekips/mitum-voting/util"
)

var UnknownKeyError = util.NewError("unknown key")

// Signer signs transactions on behalf of a caller.
type Signer interface {
	SignTx(base.Address, *types.Transaction, *big.Int) (*types.Transaction, error)
}

// KeyRing holds secp256k1 private keys; the active key is the current
// identity. It is a Provider and a Signer.
type KeyRing struct {
	*Switcher
	sync.RWMutex
	keys  map[string]*ecdsa.PrivateKey
	order []base.Address
}

// NewKeyRing loads hex encoded private keys; the first one becomes active.
func NewKeyRing(hexkeys []string) (*KeyRing, error) {
	kr := &KeyRing{
		Switcher: NewSwitcher(base.EmptyAddress),
		keys:     map[string]*ecdsa.PrivateKey{},
	}

	for i := range hexkeys {
		if _, err := kr.Add(hexkeys[i]); err != nil {
			return nil, errors.Wrapf(err, "failed to load key #%d", i)
		}
	}

	if len(kr.order) > 0 {
		kr.Switcher.current = kr.order[0]
	}

	return kr, nil
}

func (kr *KeyRing) Add(hexkey string) (base.Address, error) {
	pk, err := etherCrypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexkey), "0x"))
	if err != nil {
		return base.EmptyAddress, errors.Wrap(err, "invalid private key")
	}

	a := base.AddressFromEther(etherCrypto.PubkeyToAddress(pk.PublicKey))

	kr.Lock()
	defer kr.Unlock()

	if _, found := kr.keys[a.Key()]; !found {
		kr.order = append(kr.order, a)
	}

	kr.keys[a.Key()] = pk

	return a, nil
}

func (kr *KeyRing) Addresses() []base.Address {
	kr.RLock()
	defer kr.RUnlock()

	as := make([]base.Address, len(kr.order))
	copy(as, kr.order)

	return as
}

// Select makes the key of a the current identity.
func (kr *KeyRing) Select(a base.Address) error {
	kr.RLock()
	_, found := kr.keys[a.Key()]
	kr.RUnlock()

	if !found {
		return UnknownKeyError.Errorf("address=%q", a)
	}

	kr.Switch(a)

	return nil
}

func (kr *KeyRing) SignTx(a base.Address, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	kr.RLock()
	pk, found := kr.keys[a.Key()]
	kr.RUnlock()

	if !found {
		return nil, UnknownKeyError.Errorf("address=%q", a)
	}

	return types.SignTx(tx, types.LatestSignerForChainID(chainID), pk)
}
