package leveldbstorage

import (
	"time"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spikeekips/mitum-voting/base"
	"github.com/spikeekips/mitum-voting/ledger"
	"github.com/spikeekips/mitum-voting/session"
	"github.com/spikeekips/mitum-voting/storage"
	"github.com/spikeekips/mitum-voting/util"
	"github.com/spikeekips/mitum-voting/util/logging"
	"github.com/spikeekips/mitum-voting/workflow"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	leveldbStorage "github.com/syndtr/goleveldb/leveldb/storage"
	leveldbutil "github.com/syndtr/goleveldb/leveldb/util"
)

// Journal keeps the outcomes of the session in leveldb. Outcomes are keyed by
// ULID of their time, so iterating the keys follows the order they were
// appended.
type Journal struct {
	*logging.Logging
	db *leveldb.DB
}

func NewJournal(db *leveldb.DB) *Journal {
	return &Journal{
		Logging: logging.NewLogging(func(c zerolog.Context) zerolog.Context {
			return c.Str("module", "leveldb-journal")
		}),
		db: db,
	}
}

func OpenJournal(path string) (*Journal, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{ErrorIfMissing: false})
	if err != nil {
		return nil, wrapError(errors.Wrapf(err, "failed to open journal, %q", path))
	}

	return NewJournal(db), nil
}

func NewMemJournal() *Journal {
	db, _ := leveldb.Open(leveldbStorage.NewMemStorage(), nil)

	return NewJournal(db)
}

func (j *Journal) Close() error {
	return wrapError(j.db.Close())
}

func (j *Journal) Append(o session.Outcome) error {
	b, err := rlp.EncodeToBytes(newOutcomeRecord(o))
	if err != nil {
		return errors.Wrap(err, "failed to encode outcome")
	}

	key := leveldbOutcomeKey(util.ULID(o.At))

	batch := &leveldb.Batch{}
	batch.Put(key, b)
	batch.Put(leveldbOutcomeIDKey(o.ID), key)

	if err := j.db.Write(batch, nil); err != nil {
		return wrapError(err)
	}

	j.Log().Trace().Str("id", o.ID).Stringer("kind", o.Kind).Stringer("action", o.Action).Msg("outcome journaled")

	return nil
}

// Outcome finds the outcome by its id.
func (j *Journal) Outcome(id string) (session.Outcome, bool, error) {
	key, err := j.db.Get(leveldbOutcomeIDKey(id), nil)
	if err != nil {
		if errors.Is(wrapError(err), storage.NotFoundError) {
			return session.Outcome{}, false, nil
		}

		return session.Outcome{}, false, wrapError(err)
	}

	b, err := j.db.Get(key, nil)
	if err != nil {
		if errors.Is(wrapError(err), storage.NotFoundError) {
			return session.Outcome{}, false, nil
		}

		return session.Outcome{}, false, wrapError(err)
	}

	o, err := decodeOutcome(b)
	if err != nil {
		return session.Outcome{}, false, err
	}

	return o, true, nil
}

// Outcomes returns the latest outcomes first; limit < 1 returns all.
func (j *Journal) Outcomes(limit int) ([]session.Outcome, error) {
	var outcomes []session.Outcome

	if err := j.iter(keyPrefixOutcome, func(_, value []byte) (bool, error) {
		o, err := decodeOutcome(value)
		if err != nil {
			return false, err
		}

		outcomes = append(outcomes, o)

		return limit < 1 || len(outcomes) < limit, nil
	}, false); err != nil {
		return nil, err
	}

	return outcomes, nil
}

func (j *Journal) Clean() error {
	batch := &leveldb.Batch{}

	if err := j.iter(nil, func(key, _ []byte) (bool, error) {
		batch.Delete(key)

		return true, nil
	}, true); err != nil {
		return err
	}

	return wrapError(j.db.Write(batch, nil))
}

func (j *Journal) iter(
	prefix []byte,
	callback func([]byte /* key */, []byte /* value */) (bool, error),
	sort bool,
) error {
	iter := j.db.NewIterator(leveldbutil.BytesPrefix(prefix), nil)
	defer iter.Release()

	var seek func() bool
	var next func() bool
	if sort {
		seek = iter.First
		next = iter.Next
	} else {
		seek = iter.Last
		next = iter.Prev
	}

	if !seek() {
		return nil
	}

	for {
		if keep, err := callback(util.CopyBytes(iter.Key()), util.CopyBytes(iter.Value())); err != nil {
			return err
		} else if !keep {
			break
		}

		if !next() {
			break
		}
	}

	return wrapError(iter.Error())
}

type outcomeRecord struct {
	ID                string
	Kind              uint8
	Action            uint8
	Caller            string
	Denial            uint8
	Failure           uint8
	Detail            string
	Phase             uint8
	HasReceipt        bool
	TxHash            string
	BlockNumber       uint64
	ConfirmedAt       uint64
	HasWinner         bool
	WinnerID          uint64
	WinnerDescription string
	WinnerVoteCount   uint64
	At                uint64
}

func newOutcomeRecord(o session.Outcome) outcomeRecord {
	r := outcomeRecord{
		ID:      o.ID,
		Kind:    uint8(o.Kind),
		Action:  uint8(o.Action),
		Caller:  o.Caller.String(),
		Denial:  uint8(o.Denial),
		Failure: uint8(o.Failure),
		Detail:  o.Detail,
		Phase:   uint8(o.Phase),
		At:      uint64(o.At.UnixNano()),
	}

	if o.Receipt != nil {
		r.HasReceipt = true
		r.TxHash = o.Receipt.TxHash
		r.BlockNumber = o.Receipt.BlockNumber
		r.ConfirmedAt = uint64(o.Receipt.ConfirmedAt.UnixNano())
	}

	if o.Winner != nil {
		r.HasWinner = true
		r.WinnerID = o.Winner.ID
		r.WinnerDescription = o.Winner.Description
		r.WinnerVoteCount = o.Winner.VoteCount
	}

	return r
}

func (r outcomeRecord) outcome() session.Outcome {
	o := session.Outcome{
		ID:      r.ID,
		Kind:    session.OutcomeKind(r.Kind),
		Action:  base.ActionKind(r.Action),
		Caller:  base.Address(r.Caller),
		Denial:  workflow.Denial(r.Denial),
		Failure: session.FailureKind(r.Failure),
		Detail:  r.Detail,
		Phase:   base.Phase(r.Phase),
		At:      time.Unix(0, int64(r.At)).UTC(),
	}

	if r.HasReceipt {
		o.Receipt = &ledger.Receipt{
			TxHash:      r.TxHash,
			BlockNumber: r.BlockNumber,
			ConfirmedAt: time.Unix(0, int64(r.ConfirmedAt)).UTC(),
		}
	}

	if r.HasWinner {
		o.Winner = &session.WinnerResult{
			ID:          r.WinnerID,
			Description: r.WinnerDescription,
			VoteCount:   r.WinnerVoteCount,
		}
	}

	return o
}

func decodeOutcome(b []byte) (session.Outcome, error) {
	var r outcomeRecord
	if err := rlp.DecodeBytes(b, &r); err != nil {
		return session.Outcome{}, errors.Wrap(err, "failed to decode outcome")
	}

	return r.outcome(), nil
}
