package repomanager

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/linkup/internal/server/repositories/otpcodes"
	"github.com/dmitrijs2005/linkup/internal/server/repositories/sellers"
	"github.com/dmitrijs2005/linkup/internal/server/repositories/sessions"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	sellersCollection  = "sellers"
	otpCollection      = "otp_challenges"
	sessionsCollection = "sessions"
)

// MongoRepositoryManager vends MongoDB-backed repositories. Expired OTP
// challenges and sessions are removed by TTL indexes.
type MongoRepositoryManager struct {
	client   *mongo.Client
	sellers  *sellers.MongoRepository
	otpCodes *otpcodes.MongoRepository
	sessions *sessions.MongoRepository
}

// NewMongoRepositoryManager connects to uri and pings the deployment.
func NewMongoRepositoryManager(ctx context.Context, uri, dbName string) (*MongoRepositoryManager, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return NewMongoRepositoryManagerFromDatabase(client, client.Database(dbName)), nil
}

func NewMongoRepositoryManagerFromDatabase(client *mongo.Client, db *mongo.Database) *MongoRepositoryManager {
	return &MongoRepositoryManager{
		client:   client,
		sellers:  sellers.NewMongoRepository(db.Collection(sellersCollection)),
		otpCodes: otpcodes.NewMongoRepository(db.Collection(otpCollection)),
		sessions: sessions.NewMongoRepository(db.Collection(sessionsCollection)),
	}
}

func (m *MongoRepositoryManager) Sellers() sellers.Repository   { return m.sellers }
func (m *MongoRepositoryManager) OtpCodes() otpcodes.Repository { return m.otpCodes }
func (m *MongoRepositoryManager) Sessions() sessions.Repository { return m.sessions }

func (m *MongoRepositoryManager) Init(ctx context.Context) error {
	for _, ensure := range []func(context.Context) error{
		m.sellers.EnsureIndexes,
		m.otpCodes.EnsureIndexes,
		m.sessions.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (m *MongoRepositoryManager) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
