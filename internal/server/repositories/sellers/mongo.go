package sellers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/linkup/internal/common"
	"github.com/dmitrijs2005/linkup/internal/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository stores one document per seller. Uniqueness of email and
// businessNameHash comes from the indexes created by EnsureIndexes.
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

// EnsureIndexes creates the unique indexes the repository relies on.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "businessNameHash", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("create seller indexes: %w", err)
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, s *models.Seller) error {
	if _, err := r.col.InsertOne(ctx, s); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (*models.Seller, error) {
	var s models.Seller
	if err := r.col.FindOne(ctx, filter).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &s, nil
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (*models.Seller, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoRepository) FindByEmail(ctx context.Context, email string) (*models.Seller, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoRepository) FindByBusinessNameHash(ctx context.Context, hash string) (*models.Seller, error) {
	return r.findOne(ctx, bson.M{"businessNameHash": hash})
}

func (r *MongoRepository) Update(ctx context.Context, s *models.Seller) error {
	s.UpdatedAt = time.Now().UTC()

	set := bson.M{
		"passwordHash": s.PasswordHash,
		"updatedAt":    s.UpdatedAt,
	}
	unset := bson.M{}
	if s.Wallet != nil {
		set["wallet"] = s.Wallet
	} else {
		unset["wallet"] = ""
	}
	if s.VerifiedAt != nil {
		set["verifiedAt"] = s.VerifiedAt
	} else {
		unset["verifiedAt"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := r.col.UpdateByID(ctx, s.ID, update)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}
