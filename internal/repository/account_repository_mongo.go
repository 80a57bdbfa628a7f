package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/spec-kit/account-service/internal/domain"
)

type mongoAccountRepository struct {
	coll *mongo.Collection
}

// NewMongoAccountRepository returns a repository over the given users collection.
func NewMongoAccountRepository(coll *mongo.Collection) AccountRepository {
	return &mongoAccountRepository{coll: coll}
}

// EnsureAccountIndexes creates the unique email index that closes the
// check-then-create gap of concurrent signups.
func EnsureAccountIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_email"),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

func (r *mongoAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, account); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateAccount
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *mongoAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *mongoAccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *mongoAccountRepository) Update(ctx context.Context, id string, patch domain.AccountPatch) (*domain.Account, error) {
	if patch.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	set := patchToSet(patch)
	set = append(set, bson.E{Key: "updatedAt", Value: time.Now().UTC()})

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var account domain.Account
	err := r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "$set", Value: set}}, opts).Decode(&account)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("update account: %w", err)
	}
	return &account, nil
}

func (r *mongoAccountRepository) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, readpref.Primary())
}

func (r *mongoAccountRepository) findOne(ctx context.Context, filter bson.D) (*domain.Account, error) {
	var account domain.Account
	if err := r.coll.FindOne(ctx, filter).Decode(&account); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// patchToSet maps non-nil patch fields to their document keys.
func patchToSet(p domain.AccountPatch) bson.D {
	var set bson.D
	str := func(key string, v *string) {
		if v != nil {
			set = append(set, bson.E{Key: key, Value: *v})
		}
	}
	str("password", p.PasswordHash)
	if p.IsOnline != nil {
		set = append(set, bson.E{Key: "isOnline", Value: *p.IsOnline})
	}
	str("accessToken", p.LastAccessToken)
	str("firstName", p.FirstName)
	str("lastName", p.LastName)
	str("nickName", p.NickName)
	str("phone", p.Phone)
	str("location", p.Location)
	str("bio", p.Bio)
	str("picture", p.Picture)
	str("facebookLink", p.FacebookLink)
	str("twitterLink", p.TwitterLink)
	str("instagramLink", p.InstagramLink)
	str("linkedinLink", p.LinkedinLink)
	str("youtubeLink", p.YoutubeLink)
	return set
}
