package services

import (
	"context"
	"time"

	"github.com/arzan03/codedrop/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CodeStore is the metadata store the redemption engine runs against.
// db.MongoCodeStore is the production implementation; tests substitute an
// in-memory one with the same atomicity guarantees.
type CodeStore interface {
	Exists(ctx context.Context, code string) (bool, error)
	Insert(ctx context.Context, rec *models.Code) error
	FindByCode(ctx context.Context, code string) (*models.Code, error)

	// ConsumeUse applies the redeemability check and, for count-limited
	// records, the decrement as one atomic operation. It returns
	// models.ErrCodeNotFound for unknown codes and models.ErrCodeExpired for
	// records that are out of time or uses (losing a decrement race counts
	// as expired).
	ConsumeUse(ctx context.Context, code string, now time.Time) (*models.Code, error)

	ListExpired(ctx context.Context, now time.Time) ([]models.Code, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) error
	DeleteByCode(ctx context.Context, code string) error
	List(ctx context.Context, page, size int64) ([]models.Code, int64, error)
}

// OptionStore holds the admin-editable key/value settings.
type OptionStore interface {
	All(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
}
