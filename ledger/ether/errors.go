package etherledger

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/spikeekips/mitum-voting/ledger"
)

var revertPrefixes = []string{
	"execution reverted: ",
	"VM Exception while processing transaction: revert ",
	"reverted with reason string ",
}

// classify turns the error of the node into *ledger.RevertError when the
// contract refused the call; anything else is the ledger being unreachable.
func classify(err error) error {
	if err == nil {
		return nil
	}

	if reason, ok := revertReason(err); ok {
		return ledger.NewRevertError(reason)
	}

	return ledger.UnreachableError.Wrap(err)
}

func revertReason(err error) (string, bool) {
	var de rpc.DataError
	if errors.As(err, &de) {
		if s, ok := de.ErrorData().(string); ok {
			if b, derr := hexutil.Decode(s); derr == nil {
				if reason, uerr := abi.UnpackRevert(b); uerr == nil {
					return reason, true
				}
			}
		}
	}

	msg := err.Error()

	for i := range revertPrefixes {
		if j := strings.Index(msg, revertPrefixes[i]); j >= 0 {
			return strings.Trim(strings.TrimSpace(msg[j+len(revertPrefixes[i]):]), "'\""), true
		}
	}

	if strings.Contains(msg, "execution reverted") {
		return "execution reverted", true
	}

	return "", false
}
