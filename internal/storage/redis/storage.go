package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/creaturegame/internal/model"
	"github.com/mcoot/creaturegame/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
// Accounts are stored as JSON strings with SETNX-guarded lookup indexes;
// profiles are stored as hashes so partial updates touch only the changed fields.
type Storage struct {
	client *redis.Client
	cfg    Config
	keys   keys
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultConfig().KeyPrefix
	}
	return &Storage{
		client: client,
		cfg:    cfg,
		keys:   keys{prefix: prefix},
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ping checks the Redis server responds
func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Account operations

func (s *Storage) CreateAccount(ctx context.Context, account *model.Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return err
	}

	claimed, err := s.client.SetNX(ctx, s.keys.emailIndex(account.Email), string(account.ID), 0).Result()
	if err != nil {
		return err
	}
	if !claimed {
		return model.ErrEmailInUse
	}

	if account.GoogleSubject != "" {
		linked, err := s.client.SetNX(ctx, s.keys.googleIndex(account.GoogleSubject), string(account.ID), 0).Result()
		if err != nil || !linked {
			s.client.Del(ctx, s.keys.emailIndex(account.Email))
			if err != nil {
				return err
			}
			return model.ErrGoogleLinked
		}
	}

	return s.client.Set(ctx, s.keys.account(account.ID), data, 0).Err()
}

func (s *Storage) SaveAccount(ctx context.Context, account *model.Account) error {
	existing, err := s.GetAccount(ctx, account.ID)
	if err != nil {
		return err
	}

	if account.GoogleSubject != "" && account.GoogleSubject != existing.GoogleSubject {
		if err := s.claimGoogleSubject(ctx, account.GoogleSubject, account.ID); err != nil {
			return err
		}
	}

	data, err := json.Marshal(account)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.keys.account(account.ID), data, 0).Err()
}

func (s *Storage) claimGoogleSubject(ctx context.Context, subject string, id model.IdentityID) error {
	key := s.keys.googleIndex(subject)
	claimed, err := s.client.SetNX(ctx, key, string(id), 0).Result()
	if err != nil {
		return err
	}
	if claimed {
		return nil
	}
	owner, err := s.client.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	if owner != string(id) {
		return model.ErrGoogleLinked
	}
	return nil
}

func (s *Storage) GetAccount(ctx context.Context, id model.IdentityID) (*model.Account, error) {
	data, err := s.client.Get(ctx, s.keys.account(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}

	var account model.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	return s.accountByIndex(ctx, s.keys.emailIndex(email))
}

func (s *Storage) GetAccountByGoogleSubject(ctx context.Context, subject string) (*model.Account, error) {
	return s.accountByIndex(ctx, s.keys.googleIndex(subject))
}

func (s *Storage) accountByIndex(ctx context.Context, indexKey string) (*model.Account, error) {
	id, err := s.client.Get(ctx, indexKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}
	return s.GetAccount(ctx, model.IdentityID(id))
}

// Profile operations

func (s *Storage) CreateProfile(ctx context.Context, profile *model.Profile) error {
	key := s.keys.profile(profile.ID)

	created, err := s.client.HSetNX(ctx, key, fieldID, string(profile.ID)).Result()
	if err != nil {
		return err
	}
	if !created {
		return model.ErrProfileExists
	}

	return s.client.HSet(ctx, key, map[string]interface{}{
		fieldUsername:        profile.Username,
		fieldEmail:           profile.Email,
		fieldElo:             profile.Elo,
		fieldProfileImageURL: profile.ProfileImageURL,
		fieldCreatedAt:       formatTime(profile.CreatedAt),
		fieldUpdatedAt:       formatTime(profile.UpdatedAt),
		fieldLastLoginAt:     formatTime(profile.LastLoginAt),
	}).Err()
}

func (s *Storage) GetProfile(ctx context.Context, id model.IdentityID) (*model.Profile, error) {
	fields, err := s.client.HGetAll(ctx, s.keys.profile(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, model.ErrProfileNotFound
	}
	return decodeProfile(fields)
}

func (s *Storage) UpdateProfile(ctx context.Context, id model.IdentityID, update model.ProfileUpdate, now time.Time) error {
	key := s.keys.profile(id)
	if err := s.requireProfile(ctx, key); err != nil {
		return err
	}

	values := map[string]interface{}{
		fieldUpdatedAt: formatTime(now),
	}
	if update.Username != nil {
		values[fieldUsername] = *update.Username
	}
	if update.Elo != nil {
		values[fieldElo] = *update.Elo
	}
	if update.ProfileImageURL != nil {
		values[fieldProfileImageURL] = *update.ProfileImageURL
	}
	return s.client.HSet(ctx, key, values).Err()
}

func (s *Storage) TouchLastLogin(ctx context.Context, id model.IdentityID, now time.Time) error {
	key := s.keys.profile(id)
	if err := s.requireProfile(ctx, key); err != nil {
		return err
	}
	return s.client.HSet(ctx, key, fieldLastLoginAt, formatTime(now)).Err()
}

func (s *Storage) requireProfile(ctx context.Context, key string) error {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrProfileNotFound
	}
	return nil
}

func decodeProfile(fields map[string]string) (*model.Profile, error) {
	elo, err := strconv.Atoi(fields[fieldElo])
	if err != nil {
		return nil, fmt.Errorf("decode profile elo: %w", err)
	}

	profile := &model.Profile{
		ID:              model.IdentityID(fields[fieldID]),
		Username:        fields[fieldUsername],
		Email:           fields[fieldEmail],
		Elo:             elo,
		ProfileImageURL: fields[fieldProfileImageURL],
	}
	if profile.CreatedAt, err = parseTime(fields[fieldCreatedAt]); err != nil {
		return nil, err
	}
	if profile.UpdatedAt, err = parseTime(fields[fieldUpdatedAt]); err != nil {
		return nil, err
	}
	if profile.LastLoginAt, err = parseTime(fields[fieldLastLoginAt]); err != nil {
		return nil, err
	}
	return profile, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode profile timestamp: %w", err)
	}
	return t, nil
}
