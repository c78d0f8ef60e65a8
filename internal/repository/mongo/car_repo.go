package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"autodealer/inventory/internal/domain"
	"autodealer/inventory/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const carCollectionName = "cars"

// mongoCarRepository implements repository.CarRepository
type mongoCarRepository struct {
	collection *mongo.Collection
}

// NewMongoCarRepository creates a new Car repository backed by MongoDB.
func NewMongoCarRepository(db *mongo.Database) repository.CarRepository {
	return &mongoCarRepository{
		collection: db.Collection(carCollectionName),
	}
}

// Create inserts a new car listing.
func (r *mongoCarRepository) Create(ctx context.Context, car *domain.Car) (primitive.ObjectID, error) {
	if car.VIN == "" || car.AdminID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("car VIN and admin ID are required")
	}

	car.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	car.CreatedAt = now
	car.UpdatedAt = now
	if car.Photos == nil {
		car.Photos = []string{}
	}

	if _, err := r.collection.InsertOne(ctx, car); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, fmt.Errorf("car with VIN %q: %w", car.VIN, repository.ErrDuplicate)
		}
		return primitive.NilObjectID, err
	}
	return car.ID, nil
}

// GetByID retrieves a car by its ID.
func (r *mongoCarRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Car, error) {
	var car domain.Car
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&car)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &car, nil
}

// List returns one page of cars matching filter, newest first.
func (r *mongoCarRepository) List(ctx context.Context, filter domain.CarFilter, page domain.PageRequest) ([]domain.Car, int64, error) {
	query := carQuery(filter)
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))

	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	cars := []domain.Car{}
	if err = cursor.All(ctx, &cars); err != nil {
		return nil, 0, err
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	return cars, total, nil
}

func carQuery(filter domain.CarFilter) bson.M {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Brand != "" {
		query["brand"] = containsFold(filter.Brand)
	}
	return query
}

// Update replaces the stored car, keeping its owner and creation time.
func (r *mongoCarRepository) Update(ctx context.Context, car *domain.Car) error {
	if car.ID == primitive.NilObjectID {
		return errors.New("car ID is required for update")
	}
	car.UpdatedAt = time.Now().UTC()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": car.ID}, car)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("car with VIN %q: %w", car.VIN, repository.ErrDuplicate)
		}
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// IncrementViews bumps the view counter by one.
func (r *mongoCarRepository) IncrementViews(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"views": 1}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a car listing.
func (r *mongoCarRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CountByAdmin groups cars by owner for the given admins.
func (r *mongoCarRepository) CountByAdmin(ctx context.Context, adminIDs []primitive.ObjectID) (map[primitive.ObjectID]int64, error) {
	counts := make(map[primitive.ObjectID]int64, len(adminIDs))
	if len(adminIDs) == 0 {
		return counts, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"adminId": bson.M{"$in": adminIDs}}}},
		{{Key: "$group", Value: bson.M{"_id": "$adminId", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		AdminID primitive.ObjectID `bson:"_id"`
		Count   int64              `bson:"count"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.AdminID] = row.Count
	}
	return counts, nil
}

// EnsureCarIndexes creates necessary indexes for the cars collection.
func EnsureCarIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "vin", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "adminId", Value: 1}},
		},
		{
			// list filter + sort
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create indexes for %s: %w", collection.Name(), err)
	}
	return nil
}
