package mongodb

import (
	"context"
	"errors"
	"time"
	"voting-ledger/internal/model"
	"voting-ledger/internal/voting"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	ledgerCollection = "ledger"
	ledgerID         = "ledger"
)

type storedLedger struct {
	ID        string       `bson:"_id" json:"id"`
	State     voting.State `bson:"state" json:"state"`
	UpdatedAt time.Time    `bson:"updatedAt" json:"updatedAt"`
}

var _ voting.Store = (*Repository)(nil)

// Load reads the ledger document; found is false if it was never saved.
func (b *Repository) Load(ctx context.Context) (voting.State, bool, error) {
	coll := b.client.Database(b.dbName).Collection(ledgerCollection)

	var stored storedLedger
	err := coll.FindOne(ctx, bson.M{"_id": ledgerID}).Decode(&stored)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return voting.State{}, false, nil
	}
	if err != nil {
		return voting.State{}, false, errors.New("failed to read the ledger: " + err.Error())
	}

	if !stored.State.Phase.IsValid() {
		return voting.State{}, false, errors.New("stored ledger holds an invalid phase: " + stored.State.Phase.String())
	}
	if stored.State.Voters == nil {
		stored.State.Voters = make(map[string]model.Voter)
	}
	return stored.State, true, nil
}

// Save replaces the ledger document as a whole, creating it on first use.
func (b *Repository) Save(ctx context.Context, state voting.State) error {
	coll := b.client.Database(b.dbName).Collection(ledgerCollection)

	stored := storedLedger{
		ID:        ledgerID,
		State:     state,
		UpdatedAt: time.Now().UTC(),
	}

	result, err := coll.ReplaceOne(ctx, bson.M{"_id": ledgerID}, stored, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.New("failed to save the ledger: " + err.Error())
	}
	if result.MatchedCount == 0 && result.UpsertedCount == 0 {
		return errors.New("ledger document was neither replaced nor inserted")
	}

	b.logger.Debug("ledger saved", zap.Stringer("phase", state.Phase), zap.Int("proposals", len(state.Proposals)))
	return nil
}

// Drop removes the ledger document.
func (b *Repository) Drop(ctx context.Context) error {
	coll := b.client.Database(b.dbName).Collection(ledgerCollection)
	if _, err := coll.DeleteOne(ctx, bson.M{"_id": ledgerID}); err != nil {
		return errors.New("failed to drop the ledger: " + err.Error())
	}
	return nil
}
