package storage

import (
	"github.com/pkg/errors"
	"github.com/spikeekips/mitum-voting/util"
)

var (
	NotFoundError = util.NewError("not found")
	StorageError  = util.NewError("storage error")
)

func WrapStorageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, NotFoundError):
		return err
	case errors.Is(err, StorageError):
		return err
	default:
		return StorageError.Wrap(err)
	}
}
