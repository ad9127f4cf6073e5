// Package mongo implements ports.Store on MongoDB. The cached balance is
// maintained with a single $inc upsert. InTx needs a replica set or a
// sharded cluster, as MongoDB offers transactions only there.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/ports"
)

const (
	usersCollection    = "users"
	incomesCollection  = "incomes"
	expensesCollection = "expenses"
	goalsCollection    = "goals"
	duesCollection     = "due_items"
	balancesCollection = "balances"
)

var _ ports.Store = (*Store)(nil)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri, verifies the connection and ensures indexes on database.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := &Store{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	slog.Info("Connected to MongoDB", "database", database)
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create users.email index: %w", err)
	}
	for _, c := range []struct{ name, field string }{
		{incomesCollection, "date"},
		{expensesCollection, "date"},
		{goalsCollection, "target_date"},
		{duesCollection, "due_date"},
	} {
		_, err := s.db.Collection(c.name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: c.field, Value: -1}},
		})
		if err != nil {
			return fmt.Errorf("create %s index: %w", c.name, err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// InTx runs fn in a multi-document transaction with snapshot reads. The
// driver retries fn on transient write conflicts.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx ports.Store) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(context.WithoutCancel(ctx))

	txOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc, txView{s})
	}, txOpts)
	return err
}

// txView is the store inside a transaction; nested units join it.
type txView struct{ *Store }

func (v txView) InTx(ctx context.Context, fn func(ctx context.Context, tx ports.Store) error) error {
	return fn(ctx, v)
}

func (s *Store) coll(name string) *mongo.Collection { return s.db.Collection(name) }

// ownedFilter matches document id only when it belongs to userID.
func ownedFilter(userID, id string) bson.M {
	return bson.M{"_id": id, "user_id": userID}
}

func findAll[D interface{ toCore() (T, error) }, T any](ctx context.Context, c *mongo.Collection, filter any, opts *options.FindOptions) ([]T, error) {
	cur, err := c.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", c.Name(), err)
	}
	defer cur.Close(ctx)

	var out []T
	for cur.Next(ctx) {
		var doc D
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", c.Name(), err)
		}
		v, err := doc.toCore()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, cur.Err()
}

func findOne[D interface{ toCore() (T, error) }, T any](ctx context.Context, c *mongo.Collection, filter any) (T, error) {
	var doc D
	err := c.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		var zero T
		return zero, core.ErrNotFound
	}
	if err != nil {
		var zero T
		return zero, fmt.Errorf("find one %s: %w", c.Name(), err)
	}
	return doc.toCore()
}

func (s *Store) replaceOwned(ctx context.Context, name, userID, id string, doc any) error {
	res, err := s.coll(name).ReplaceOne(ctx, ownedFilter(userID, id), doc)
	if err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	if res.MatchedCount == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) deleteOwned(ctx context.Context, name, userID, id string) error {
	res, err := s.coll(name).DeleteOne(ctx, ownedFilter(userID, id))
	if err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	if res.DeletedCount == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) insert(ctx context.Context, name string, doc any) error {
	if _, err := s.coll(name).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert %s: %w", name, err)
	}
	return nil
}

func newestFirst(field string) *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: field, Value: -1}, {Key: "_id", Value: -1}})
}

func oldestFirst(field string) *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: field, Value: 1}, {Key: "_id", Value: 1}})
}

// Users

func (s *Store) CreateUser(ctx context.Context, u core.User) error {
	_, err := s.coll(usersCollection).InsertOne(ctx, userDocFrom(u))
	if mongo.IsDuplicateKeyError(err) {
		return core.ErrEmailInUse
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	return findOne[userDoc, core.User](ctx, s.coll(usersCollection), bson.M{"email": email})
}

func (s *Store) GetUserByID(ctx context.Context, id string) (core.User, error) {
	return findOne[userDoc, core.User](ctx, s.coll(usersCollection), bson.M{"_id": id})
}

func (s *Store) ListUserIDs(ctx context.Context) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.coll(usersCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	var ids []string
	for cur.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode user id: %w", err)
		}
		ids = append(ids, doc.ID)
	}
	return ids, cur.Err()
}

// Incomes

func (s *Store) ListIncomes(ctx context.Context, userID string) ([]core.Income, error) {
	return findAll[incomeDoc, core.Income](ctx, s.coll(incomesCollection), bson.M{"user_id": userID}, newestFirst("date"))
}

func (s *Store) GetIncome(ctx context.Context, userID, id string) (core.Income, error) {
	return findOne[incomeDoc, core.Income](ctx, s.coll(incomesCollection), ownedFilter(userID, id))
}

func (s *Store) CreateIncome(ctx context.Context, in core.Income) error {
	return s.insert(ctx, incomesCollection, incomeDocFrom(in))
}

func (s *Store) UpdateIncome(ctx context.Context, in core.Income) error {
	return s.replaceOwned(ctx, incomesCollection, in.UserID, in.ID, incomeDocFrom(in))
}

func (s *Store) DeleteIncome(ctx context.Context, userID, id string) error {
	return s.deleteOwned(ctx, incomesCollection, userID, id)
}

// Expenses

func (s *Store) ListExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	return findAll[expenseDoc, core.Expense](ctx, s.coll(expensesCollection), bson.M{"user_id": userID}, newestFirst("date"))
}

func (s *Store) GetExpense(ctx context.Context, userID, id string) (core.Expense, error) {
	return findOne[expenseDoc, core.Expense](ctx, s.coll(expensesCollection), ownedFilter(userID, id))
}

func (s *Store) CreateExpense(ctx context.Context, e core.Expense) error {
	return s.insert(ctx, expensesCollection, expenseDocFrom(e))
}

func (s *Store) UpdateExpense(ctx context.Context, e core.Expense) error {
	return s.replaceOwned(ctx, expensesCollection, e.UserID, e.ID, expenseDocFrom(e))
}

func (s *Store) DeleteExpense(ctx context.Context, userID, id string) error {
	return s.deleteOwned(ctx, expensesCollection, userID, id)
}

// Goals

func (s *Store) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	return findAll[goalDoc, core.Goal](ctx, s.coll(goalsCollection), bson.M{"user_id": userID}, oldestFirst("target_date"))
}

func (s *Store) GetGoal(ctx context.Context, userID, id string) (core.Goal, error) {
	return findOne[goalDoc, core.Goal](ctx, s.coll(goalsCollection), ownedFilter(userID, id))
}

func (s *Store) CreateGoal(ctx context.Context, g core.Goal) error {
	return s.insert(ctx, goalsCollection, goalDocFrom(g))
}

func (s *Store) UpdateGoal(ctx context.Context, g core.Goal) error {
	return s.replaceOwned(ctx, goalsCollection, g.UserID, g.ID, goalDocFrom(g))
}

func (s *Store) DeleteGoal(ctx context.Context, userID, id string) error {
	return s.deleteOwned(ctx, goalsCollection, userID, id)
}

// Due items

func (s *Store) ListDueItems(ctx context.Context, userID string) ([]core.DueItem, error) {
	return findAll[dueItemDoc, core.DueItem](ctx, s.coll(duesCollection), bson.M{"user_id": userID}, oldestFirst("due_date"))
}

func (s *Store) GetDueItem(ctx context.Context, userID, id string) (core.DueItem, error) {
	return findOne[dueItemDoc, core.DueItem](ctx, s.coll(duesCollection), ownedFilter(userID, id))
}

func (s *Store) CreateDueItem(ctx context.Context, d core.DueItem) error {
	return s.insert(ctx, duesCollection, dueItemDocFrom(d))
}

func (s *Store) UpdateDueItem(ctx context.Context, d core.DueItem) error {
	return s.replaceOwned(ctx, duesCollection, d.UserID, d.ID, dueItemDocFrom(d))
}

func (s *Store) DeleteDueItem(ctx context.Context, userID, id string) error {
	return s.deleteOwned(ctx, duesCollection, userID, id)
}

// Balances

func (s *Store) GetBalance(ctx context.Context, userID string) (core.Balance, error) {
	return findOne[balanceDoc, core.Balance](ctx, s.coll(balancesCollection), bson.M{"_id": userID})
}

func (s *Store) UpsertBalance(ctx context.Context, userID string, total core.Money) error {
	update := bson.M{"$set": bson.M{"total_cents": total.Cents(), "updated_at": time.Now().UTC()}}
	_, err := s.coll(balancesCollection).UpdateOne(ctx, bson.M{"_id": userID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert balance: %w", err)
	}
	return nil
}

// IncrementBalance applies delta with $inc; an absent document is created
// holding delta.
func (s *Store) IncrementBalance(ctx context.Context, userID string, delta core.Money) (core.Money, error) {
	update := incrementUpdate(delta, time.Now().UTC())
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc balanceDoc
	err := s.coll(balancesCollection).FindOneAndUpdate(ctx, bson.M{"_id": userID}, update, opts).Decode(&doc)
	if err != nil {
		return core.Money{}, fmt.Errorf("increment balance: %w", err)
	}
	return core.NewMoneyFromCents(doc.TotalCents), nil
}

func incrementUpdate(delta core.Money, now time.Time) bson.M {
	return bson.M{
		"$inc": bson.M{"total_cents": delta.Cents()},
		"$set": bson.M{"updated_at": now},
	}
}
