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

const partCollectionName = "parts"

// mongoPartRepository implements repository.PartRepository
type mongoPartRepository struct {
	collection *mongo.Collection
}

// NewMongoPartRepository creates a new Part repository backed by MongoDB.
func NewMongoPartRepository(db *mongo.Database) repository.PartRepository {
	return &mongoPartRepository{
		collection: db.Collection(partCollectionName),
	}
}

func (r *mongoPartRepository) Create(ctx context.Context, part *domain.Part) (primitive.ObjectID, error) {
	if part.Name == "" || part.AdminID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("part name and admin ID are required")
	}

	part.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	part.CreatedAt = now
	part.UpdatedAt = now
	if part.Photos == nil {
		part.Photos = []string{}
	}

	if _, err := r.collection.InsertOne(ctx, part); err != nil {
		return primitive.NilObjectID, err
	}
	return part.ID, nil
}

func (r *mongoPartRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Part, error) {
	var part domain.Part
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&part)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &part, nil
}

func partQuery(filter domain.PartFilter) bson.M {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Condition != "" {
		query["condition"] = filter.Condition
	}
	if filter.Brand != "" {
		query["brand"] = containsFold(filter.Brand)
	}
	if filter.Model != "" {
		query["model"] = containsFold(filter.Model)
	}
	return query
}

// List returns one page of parts matching filter, newest first.
func (r *mongoPartRepository) List(ctx context.Context, filter domain.PartFilter, page domain.PageRequest) ([]domain.Part, int64, error) {
	query := partQuery(filter)
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))

	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	parts := []domain.Part{}
	if err = cursor.All(ctx, &parts); err != nil {
		return nil, 0, err
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	return parts, total, nil
}

func (r *mongoPartRepository) Update(ctx context.Context, part *domain.Part) error {
	if part.ID == primitive.NilObjectID {
		return errors.New("part ID is required for update")
	}
	part.UpdatedAt = time.Now().UTC()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": part.ID}, part)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoPartRepository) IncrementViews(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"views": 1}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoPartRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsurePartIndexes creates necessary indexes for the parts collection.
func EnsurePartIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "adminId", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "category", Value: 1}, {Key: "createdAt", Value: -1}},
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create indexes for %s: %w", collection.Name(), err)
	}
	return nil
}
