package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gradeidea/roast-service/internal/core/domain"
)

const collectionAccounts = "token_accounts"

// LedgerRepository implements ports.TokenLedger on a single document per
// owner. Debits rely on MongoDB's single-document atomicity: the balance
// check and the decrement are one conditional update, so the balance can
// never go negative no matter how many debits race.
type LedgerRepository struct {
	col *mongo.Collection
}

func NewLedgerRepository(db *mongo.Database) *LedgerRepository {
	return &LedgerRepository{col: db.Collection(collectionAccounts)}
}

// Balance returns the current balance, 0 when the account does not exist.
func (r *LedgerRepository) Balance(ctx context.Context, owner string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var account domain.TokenAccount
	err := r.col.FindOne(ctx, bson.M{"owner": owner}).Decode(&account)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, fmt.Errorf("ledger balance: %w", err)
	}
	return account.Balance, nil
}

// TryDebitOne decrements the balance by 1 only when it is at least 1.
// A zero match means the account is missing or under-funded; either way
// nothing was mutated.
func (r *LedgerRepository) TryDebitOne(ctx context.Context, owner string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"owner": owner, "balance": bson.M{"$gte": 1}}
	update := bson.M{
		"$inc": bson.M{"balance": -1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("ledger debit: %w", err)
	}
	if res.ModifiedCount == 0 {
		return domain.ErrInsufficientBalance
	}
	return nil
}

// Credit adds amount to the balance, lazily creating the account.
func (r *LedgerRepository) Credit(ctx context.Context, owner string, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("ledger credit: amount must be positive, got %d", amount)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC()
	update := bson.M{
		"$inc":         bson.M{"balance": amount},
		"$set":         bson.M{"updated_at": now},
		"$setOnInsert": bson.M{"created_at": now},
	}

	_, err := r.col.UpdateOne(ctx, bson.M{"owner": owner}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("ledger credit: %w", err)
	}
	return nil
}

// EnsureIndexes creates necessary indexes on the token_accounts collection.
func (r *LedgerRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "owner", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
