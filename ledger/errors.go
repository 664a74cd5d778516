package ledger

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spikeekips/mitum-voting/util"
)

var (
	UnreachableError   = util.NewError("ledger unreachable")
	UnknownQueryError  = util.NewError("unknown query")
	UnknownActionError = util.NewError("unknown action")
)

// RevertError is the ledger refusing a call. Reason is kept as the ledger
// returned it.
type RevertError struct {
	Reason string
}

func NewRevertError(reason string) *RevertError {
	return &RevertError{Reason: reason}
}

func (er *RevertError) Error() string {
	return fmt.Sprintf("reverted: %s", er.Reason)
}

// IsRevert returns the revert reason found in the error chain.
func IsRevert(err error) (string, bool) {
	var re *RevertError
	if !errors.As(err, &re) {
		return "", false
	}

	return re.Reason, true
}
