package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"voting-ledger/internal/blockchain/votingfamily"
	"voting-ledger/internal/voting"

	"github.com/dgraph-io/badger/v2"
	"go.uber.org/zap"
)

// the ledger is kept whole under a single key, in the same CBOR form as the
// on-chain entry
var ledgerKey = []byte("voting/ledger")

// Store is a voting.Store backed by an embedded badger database.
type Store struct {
	db     *badger.DB
	logger *zap.Logger
}

var _ voting.Store = (*Store)(nil)

// Open opens (or creates) the database in dir.
func Open(logger *zap.Logger, dir string) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, errors.New("failed to open the badger database: " + err.Error())
	}
	logger.Debug("badger database opened", zap.String("dir", dir))
	return New(logger, db), nil
}

func New(logger *zap.Logger, db *badger.DB) *Store {
	return &Store{db: db, logger: logger}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Load(ctx context.Context) (voting.State, bool, error) {
	var raw []byte
	err := s.db.View(retrieve(ledgerKey, &raw))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return voting.State{}, false, nil
	}
	if err != nil {
		return voting.State{}, false, err
	}

	state, err := votingfamily.DecodeState(raw)
	if err != nil {
		return voting.State{}, false, err
	}
	return state, true, nil
}

func (s *Store) Save(ctx context.Context, state voting.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	val, err := votingfamily.EncodeState(state)
	if err != nil {
		return err
	}
	return retryOnConflict(s.db.Update, upsert(ledgerKey, val))
}

// retrieve copies the value under key into val.
func retrieve(key []byte, val *[]byte) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		item, err := tx.Get(key)
		if err != nil {
			return err
		}
		*val, err = item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("could not load data: %w", err)
		}
		return nil
	}
}

// upsert stores val under key, replacing any previous value.
func upsert(key []byte, val []byte) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		if err := tx.Set(key, val); err != nil {
			return fmt.Errorf("could not store data: %w", err)
		}
		return nil
	}
}

func retryOnConflict(action func(func(*badger.Txn) error) error, op func(tx *badger.Txn) error) error {
	for {
		err := action(op)
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		return err
	}
}
