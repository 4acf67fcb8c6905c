package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hms/hospital-system/internal/core/domain"
	"github.com/hms/hospital-system/internal/core/ports"
)

const (
	usersCollection    = "users"
	profilesCollection = "patient_profiles"
)

// caseInsensitive matches the collation of the unique indexes, so lookups and
// constraints agree on what counts as "the same" email or username.
var caseInsensitive = options.Collation{Locale: "en", Strength: 2}

// CredentialRepository persists user credentials and patient profiles in
// MongoDB.
type CredentialRepository struct {
	client   *mongo.Client
	users    *mongo.Collection
	profiles *mongo.Collection
}

func NewCredentialRepository(db *mongo.Database) *CredentialRepository {
	return &CredentialRepository{
		client:   db.Client(),
		users:    db.Collection(usersCollection),
		profiles: db.Collection(profilesCollection),
	}
}

var _ ports.CredentialRepository = (*CredentialRepository)(nil)

type userDoc struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	FirstName         string             `bson:"first_name"`
	LastName          string             `bson:"last_name"`
	Email             string             `bson:"email"`
	Username          string             `bson:"username,omitempty"`
	PasswordHash      string             `bson:"password_hash"`
	Role              string             `bson:"role"`
	Enabled           bool               `bson:"enabled"`
	AccountNonLocked  bool               `bson:"account_non_locked"`
	AccountNonExpired bool               `bson:"account_non_expired"`
	CreatedAt         time.Time          `bson:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at"`
	LastLoginAt       *time.Time         `bson:"last_login_at,omitempty"`
	ResetToken        string             `bson:"reset_token,omitempty"`
	ResetTokenExpiry  *time.Time         `bson:"reset_token_expiry,omitempty"`
}

type profileDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	UserID        primitive.ObjectID `bson:"user_id"`
	FirstName     string             `bson:"first_name"`
	LastName      string             `bson:"last_name"`
	ContactNumber string             `bson:"contact_number"`
	DateOfBirth   *time.Time         `bson:"date_of_birth,omitempty"`
	Gender        string             `bson:"gender,omitempty"`
	Address       string             `bson:"address,omitempty"`
	CreatedAt     time.Time          `bson:"created_at"`
}

func toUserDoc(u *domain.User) userDoc {
	return userDoc{
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		Email:             u.Email,
		Username:          u.Username,
		PasswordHash:      u.PasswordHash,
		Role:              string(u.Role),
		Enabled:           u.Enabled,
		AccountNonLocked:  u.AccountNonLocked,
		AccountNonExpired: u.AccountNonExpired,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
		LastLoginAt:       u.LastLoginAt,
		ResetToken:        u.ResetToken,
		ResetTokenExpiry:  u.ResetTokenExpiry,
	}
}

func (d userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:                d.ID.Hex(),
		FirstName:         d.FirstName,
		LastName:          d.LastName,
		Email:             d.Email,
		Username:          d.Username,
		PasswordHash:      d.PasswordHash,
		Role:              domain.Role(d.Role),
		Enabled:           d.Enabled,
		AccountNonLocked:  d.AccountNonLocked,
		AccountNonExpired: d.AccountNonExpired,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
		LastLoginAt:       d.LastLoginAt,
		ResetToken:        d.ResetToken,
		ResetTokenExpiry:  d.ResetTokenExpiry,
	}
}

func (r *CredentialRepository) findOne(ctx context.Context, filter bson.M, collated bool) (*domain.User, error) {
	opts := options.FindOne()
	if collated {
		opts.SetCollation(&caseInsensitive)
	}

	var doc userDoc
	if err := r.users.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *CredentialRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email}, true)
}

func (r *CredentialRepository) FindByUsernameOrEmail(ctx context.Context, identifier string) (*domain.User, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"username": identifier},
		bson.M{"email": identifier},
	}}
	return r.findOne(ctx, filter, true)
}

func (r *CredentialRepository) FindByResetToken(ctx context.Context, token string) (*domain.User, error) {
	// Token lookup is exact: reset tokens are opaque and case-sensitive.
	return r.findOne(ctx, bson.M{"reset_token": token}, false)
}

func (r *CredentialRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, bson.M{"email": email})
}

func (r *CredentialRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, bson.M{"username": username})
}

func (r *CredentialRepository) exists(ctx context.Context, filter bson.M) (bool, error) {
	opts := options.Count().SetLimit(1).SetCollation(&caseInsensitive)
	n, err := r.users.CountDocuments(ctx, filter, opts)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n > 0, nil
}

// CreateWithProfile inserts the user and its patient profile in one
// transaction so a profile never exists without its account or vice versa.
func (r *CredentialRepository) CreateWithProfile(ctx context.Context, user *domain.User, profile *domain.PatientProfile) (*domain.User, error) {
	session, err := r.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	doc := toUserDoc(user)
	if doc.Username == "" {
		// Accounts without a chosen username log in by email; storing the
		// email as the username keeps FindByUsernameOrEmail uniform.
		doc.Username = user.Email
	}

	created, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		res, err := r.users.InsertOne(sc, doc)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, fmt.Errorf("%w: account already exists", domain.ErrDuplicateResource)
			}
			return nil, fmt.Errorf("insert user: %w", err)
		}
		userID := res.InsertedID.(primitive.ObjectID)

		pdoc := profileDoc{
			UserID:        userID,
			FirstName:     profile.FirstName,
			LastName:      profile.LastName,
			ContactNumber: profile.ContactNumber,
			DateOfBirth:   profile.DateOfBirth,
			Gender:        profile.Gender,
			Address:       profile.Address,
			CreatedAt:     profile.CreatedAt,
		}
		if _, err := r.profiles.InsertOne(sc, pdoc); err != nil {
			return nil, fmt.Errorf("insert patient profile: %w", err)
		}

		out := *user
		out.ID = userID.Hex()
		out.Username = doc.Username
		return &out, nil
	})
	if err != nil {
		return nil, err
	}
	return created.(*domain.User), nil
}

func (r *CredentialRepository) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrNotFound
	}

	res, err := r.users.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"last_login_at": at, "updated_at": at}},
	)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CredentialRepository) SetResetToken(ctx context.Context, userID, token string, expiry time.Time) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrNotFound
	}

	res, err := r.users.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{
			"reset_token":        token,
			"reset_token_expiry": expiry,
			"updated_at":         time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ClearResetToken removes the reset token only if it still matches. The
// token in the filter makes the clear a compare-and-swap: a token already
// replaced or consumed by a concurrent request yields ErrNotFound.
func (r *CredentialRepository) ClearResetToken(ctx context.Context, userID, token string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrNotFound
	}

	res, err := r.users.UpdateOne(ctx,
		bson.M{"_id": oid, "reset_token": token},
		bson.M{"$unset": bson.M{"reset_token": "", "reset_token_expiry": ""}},
	)
	if err != nil {
		return fmt.Errorf("clear reset token: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ConsumeResetToken atomically swaps the password hash and burns the token.
// Matching on both _id and reset_token guarantees a token is spent at most
// once even under concurrent reset attempts.
func (r *CredentialRepository) ConsumeResetToken(ctx context.Context, userID, token, newPasswordHash string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrNotFound
	}

	res, err := r.users.UpdateOne(ctx,
		bson.M{"_id": oid, "reset_token": token},
		bson.M{
			"$set":   bson.M{"password_hash": newPasswordHash, "updated_at": time.Now().UTC()},
			"$unset": bson.M{"reset_token": "", "reset_token_expiry": ""},
		},
	)
	if err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
