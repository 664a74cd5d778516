package base

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

var InvalidAddressError = errors.New("invalid address")

// Address identifies a caller or the ledger owner. Addresses are compared
// case-insensitively.
type Address string

var EmptyAddress = Address("")

func NewAddress(s string) (Address, error) {
	a := Address(strings.TrimSpace(s))

	return a, a.IsValid(nil)
}

func AddressFromEther(a common.Address) Address {
	return Address(a.Hex())
}

func (a Address) String() string {
	return string(a)
}

func (a Address) IsEmpty() bool {
	return len(a) < 1
}

func (a Address) IsValid([]byte) error {
	if a.IsEmpty() {
		return errors.Wrap(InvalidAddressError, "empty address")
	}

	if !common.IsHexAddress(string(a)) {
		return errors.Wrapf(InvalidAddressError, "not hex address, %q", a)
	}

	return nil
}

func (a Address) Equal(b Address) bool {
	return strings.EqualFold(string(a), string(b))
}

// Ether returns the ethereum address; zero address for invalid one.
func (a Address) Ether() common.Address {
	return common.HexToAddress(string(a))
}

// Key is the normalized form used as map key.
func (a Address) Key() string {
	return strings.ToLower(string(a))
}
