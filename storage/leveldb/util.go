package leveldbstorage

import (
	"github.com/oklog/ulid"
	"github.com/spikeekips/mitum-voting/storage"
	"github.com/spikeekips/mitum-voting/util"
	leveldbErrors "github.com/syndtr/goleveldb/leveldb/errors"
)

var (
	keyPrefixOutcome   = []byte{0x00, 0x01}
	keyPrefixOutcomeID = []byte{0x00, 0x02}
)

func leveldbOutcomeKey(id ulid.ULID) []byte {
	return util.ConcatBytesSlice(keyPrefixOutcome, id[:])
}

func leveldbOutcomeIDKey(id string) []byte {
	return util.ConcatBytesSlice(keyPrefixOutcomeID, []byte(id))
}

func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if err == leveldbErrors.ErrNotFound { // nolint:errorlint
		return storage.NotFoundError.Wrap(err)
	}

	return storage.WrapStorageError(err)
}
