package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mcoot/creaturegame/internal/model"
	"github.com/mcoot/creaturegame/internal/storage"
)

const (
	accountsCollection = "accounts"
	profilesCollection = "profiles"
)

// Config holds MongoDB connection settings
type Config struct {
	URI      string
	Database string

	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
}

// DefaultConfig returns defaults suitable for a local mongod
func DefaultConfig() Config {
	return Config{
		URI:                    "mongodb://localhost:27017",
		Database:               "creaturegame",
		ConnectTimeout:         30 * time.Second,
		ServerSelectionTimeout: 10 * time.Second,
	}
}

// Storage is a MongoDB-backed implementation of the storage interface
type Storage struct {
	client   *mongo.Client
	accounts *mongo.Collection
	profiles *mongo.Collection
}

// New connects to MongoDB, verifies the connection and ensures indexes exist
func New(cfg Config) (*Storage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.URI)
	clientOptions.SetServerSelectionTimeout(cfg.ServerSelectionTimeout)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	s := NewWithDatabase(client.Database(cfg.Database))
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// NewWithDatabase creates a storage over an existing database handle (for testing)
func NewWithDatabase(db *mongo.Database) *Storage {
	return &Storage{
		client:   db.Client(),
		accounts: db.Collection(accountsCollection),
		profiles: db.Collection(profilesCollection),
	}
}

// EnsureIndexes creates the unique lookup indexes on the accounts collection
func (s *Storage) EnsureIndexes(ctx context.Context) error {
	_, err := s.accounts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "google_subject", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	})
	return err
}

// Close disconnects the client
func (s *Storage) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Ping checks the primary is reachable
func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Account operations

func (s *Storage) CreateAccount(ctx context.Context, account *model.Account) error {
	_, err := s.accounts.InsertOne(ctx, toAccountDocument(account))
	if mongo.IsDuplicateKeyError(err) {
		if strings.Contains(err.Error(), "google_subject") {
			return model.ErrGoogleLinked
		}
		return model.ErrEmailInUse
	}
	return err
}

func (s *Storage) SaveAccount(ctx context.Context, account *model.Account) error {
	res, err := s.accounts.ReplaceOne(ctx, bson.M{"_id": string(account.ID)}, toAccountDocument(account))
	if mongo.IsDuplicateKeyError(err) {
		return model.ErrGoogleLinked
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return model.ErrAccountNotFound
	}
	return nil
}

func (s *Storage) GetAccount(ctx context.Context, id model.IdentityID) (*model.Account, error) {
	return s.findAccount(ctx, bson.M{"_id": string(id)})
}

func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	return s.findAccount(ctx, bson.M{"email": email})
}

func (s *Storage) GetAccountByGoogleSubject(ctx context.Context, subject string) (*model.Account, error) {
	return s.findAccount(ctx, bson.M{"google_subject": subject})
}

func (s *Storage) findAccount(ctx context.Context, filter bson.M) (*model.Account, error) {
	var doc accountDocument
	err := s.accounts.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

// Profile operations

func (s *Storage) CreateProfile(ctx context.Context, profile *model.Profile) error {
	_, err := s.profiles.InsertOne(ctx, toProfileDocument(profile))
	if mongo.IsDuplicateKeyError(err) {
		return model.ErrProfileExists
	}
	return err
}

func (s *Storage) GetProfile(ctx context.Context, id model.IdentityID) (*model.Profile, error) {
	var doc profileDocument
	err := s.profiles.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

func (s *Storage) UpdateProfile(ctx context.Context, id model.IdentityID, update model.ProfileUpdate, now time.Time) error {
	set := bson.M{"updated_at": now}
	if update.Username != nil {
		set["username"] = *update.Username
	}
	if update.Elo != nil {
		set["elo"] = *update.Elo
	}
	if update.ProfileImageURL != nil {
		set["profile_image_url"] = *update.ProfileImageURL
	}
	return s.updateProfile(ctx, id, set)
}

func (s *Storage) TouchLastLogin(ctx context.Context, id model.IdentityID, now time.Time) error {
	return s.updateProfile(ctx, id, bson.M{"last_login_at": now})
}

func (s *Storage) updateProfile(ctx context.Context, id model.IdentityID, set bson.M) error {
	res, err := s.profiles.UpdateOne(ctx, bson.M{"_id": string(id)}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return model.ErrProfileNotFound
	}
	return nil
}
