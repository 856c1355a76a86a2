package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	unitserrors "kosbook/internal/units/errors"
	"kosbook/pkg/config"
	mongotx "kosbook/pkg/db/mongo"
	"kosbook/pkg/model"
)

const (
	CollectionName = "Units"
)

type UnitRepository interface {
	Create(ctx context.Context, unit *model.Unit) error
	FindByID(ctx context.Context, id string) (*model.Unit, error)
	FindAll(ctx context.Context, filter *model.UnitFilter, limit int, offset int64) ([]*model.Unit, error)
	Count(ctx context.Context, filter *model.UnitFilter) (int64, error)
	Update(ctx context.Context, id string, unit *model.Unit) error
	Delete(ctx context.Context, id string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoUnitRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoUnitRepository(cfg *config.Config) UnitRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoUnitRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout bounds a store call unless it already runs inside a transaction,
// whose session context must not be wrapped.
func (r *mongoUnitRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		return context.WithTimeout(ctx, time.Until(deadline))
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoUnitRepository) Create(ctx context.Context, unit *model.Unit) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	unit.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if _, err := r.collection.InsertOne(ctx, unit); err != nil {
		return fmt.Errorf("failed to create unit: %w", err)
	}
	return nil
}

func (r *mongoUnitRepository) FindByID(ctx context.Context, id string) (*model.Unit, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var unit model.Unit
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&unit)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, unitserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find unit: %w", err)
	}

	return &unit, nil
}

func (r *mongoUnitRepository) FindAll(ctx context.Context, filter *model.UnitFilter, limit int, offset int64) ([]*model.Unit, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, buildBrowseFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find units: %w", err)
	}
	defer cursor.Close(ctx)

	var units []*model.Unit
	if err = cursor.All(ctx, &units); err != nil {
		return nil, fmt.Errorf("failed to decode units: %w", err)
	}

	return units, nil
}

func (r *mongoUnitRepository) Count(ctx context.Context, filter *model.UnitFilter) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildBrowseFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count units: %w", err)
	}
	return count, nil
}

func buildBrowseFilter(filter *model.UnitFilter) bson.M {
	query := bson.M{}
	if filter == nil {
		return query
	}
	if filter.City != "" {
		query["city"] = filter.City
	}
	if filter.GenderPolicy != "" {
		query["gender_policy"] = filter.GenderPolicy
	}
	if filter.MaxPrice > 0 {
		query["price_per_month"] = bson.M{"$lte": filter.MaxPrice}
	}
	return query
}

func (r *mongoUnitRepository) Update(ctx context.Context, id string, unit *model.Unit) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"name":            unit.Name,
			"address":         unit.Address,
			"city":            unit.City,
			"price_per_month": unit.PricePerMonth,
			"gender_policy":   unit.GenderPolicy,
			"room_count":      unit.RoomCount,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update unit: %w", err)
	}
	if result.MatchedCount == 0 {
		return unitserrors.ErrNotFound
	}

	return nil
}

func (r *mongoUnitRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete unit: %w", err)
	}
	if result.DeletedCount == 0 {
		return unitserrors.ErrNotFound
	}

	return nil
}

func (r *mongoUnitRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
