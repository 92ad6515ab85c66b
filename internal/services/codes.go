package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/arzan03/codedrop/internal/models"
	"github.com/arzan03/codedrop/internal/storage"
	"github.com/google/uuid"
)

// Share policy styles as they arrive on the wire.
const (
	StyleCount = "1" // value = number of uses, expiry capped at one day
	StyleDay   = "2" // value = number of days, unlimited uses
)

const insertRetries = 3

// SharePolicy is the caller-supplied expiry rule for a new share.
type SharePolicy struct {
	Style string
	Value int
}

// CodeService implements sharing and redemption of pickup codes.
type CodeService struct {
	store   CodeStore
	storage storage.Storage
	gen     *CodeGenerator
	maxSize int64
	maxDays int
	now     func() time.Time
}

func NewCodeService(store CodeStore, blobs storage.Storage, gen *CodeGenerator, maxSize int64, maxDays int) *CodeService {
	return &CodeService{
		store:   store,
		storage: blobs,
		gen:     gen,
		maxSize: maxSize,
		maxDays: maxDays,
		now:     time.Now,
	}
}

// policyLimits turns a share policy into the record's count and expiry time.
func (s *CodeService) policyLimits(p SharePolicy) (int, time.Time, error) {
	now := s.now()
	switch p.Style {
	case StyleCount:
		if p.Value < 1 {
			return 0, time.Time{}, fmt.Errorf("%w: use count must be at least 1", models.ErrInvalidSharePolicy)
		}
		return p.Value, now.Add(24 * time.Hour), nil
	case StyleDay:
		if p.Value < 1 || p.Value > s.maxDays {
			return 0, time.Time{}, fmt.Errorf("%w: days must be between 1 and %d", models.ErrInvalidSharePolicy, s.maxDays)
		}
		return -1, now.Add(time.Duration(p.Value) * 24 * time.Hour), nil
	default:
		return -1, now.Add(24 * time.Hour), nil
	}
}

// ShareText stores a text share and returns the created record.
func (s *CodeService) ShareText(ctx context.Context, text string, p SharePolicy) (*models.Code, error) {
	if int64(len(text)) > s.maxSize {
		return nil, models.ErrPayloadTooLarge
	}
	count, expTime, err := s.policyLimits(p)
	if err != nil {
		return nil, err
	}

	rec := &models.Code{
		Key:       uuid.NewString(),
		Type:      models.TypeText,
		Text:      text,
		Name:      "text share",
		Size:      int64(len(text)),
		Count:     count,
		ExpTime:   expTime,
		CreatedAt: s.now(),
	}
	if err := s.insertWithFreshCode(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ShareFile stores a file share. The metadata record is persisted before the
// blob write, which runs in the background; the pickup code returns to the
// caller immediately. A failed blob write leaves the record undownloadable
// rather than pretending success.
func (s *CodeService) ShareFile(ctx context.Context, name, contentType string, data []byte, p SharePolicy) (*models.Code, error) {
	if int64(len(data)) > s.maxSize {
		return nil, models.ErrPayloadTooLarge
	}
	count, expTime, err := s.policyLimits(p)
	if err != nil {
		return nil, err
	}
	if contentType == "" || contentType == models.TypeText {
		contentType = "application/octet-stream"
	}

	key := uuid.NewString()
	object := fmt.Sprintf("%s_%s", key, name)

	rec := &models.Code{
		Key:       key,
		Type:      contentType,
		Text:      object,
		Name:      name,
		Size:      int64(len(data)),
		Count:     count,
		ExpTime:   expTime,
		CreatedAt: s.now(),
	}
	if err := s.insertWithFreshCode(ctx, rec); err != nil {
		return nil, err
	}

	go func() {
		uploadCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := s.storage.Save(uploadCtx, object, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
			log.Printf("background upload failed for code %s: %v", rec.Code, err)
		}
	}()

	return rec, nil
}

// insertWithFreshCode allocates a code and inserts the record, drawing a new
// code when the insert loses the uniqueness race.
func (s *CodeService) insertWithFreshCode(ctx context.Context, rec *models.Code) error {
	for i := 0; i < insertRetries; i++ {
		code, err := s.gen.Generate(ctx)
		if err != nil {
			return err
		}
		rec.Code = code
		err = s.store.Insert(ctx, rec)
		if err == nil {
			return nil
		}
		if !errors.Is(err, models.ErrCodeTaken) {
			return err
		}
	}
	return ErrCodeSpaceExhausted
}

// Redeem consumes one use of a code and returns its payload descriptor.
// Unknown codes return models.ErrCodeNotFound; exhausted or timed-out codes
// return models.ErrCodeExpired.
func (s *CodeService) Redeem(ctx context.Context, code string) (*models.Payload, error) {
	rec, err := s.store.ConsumeUse(ctx, code, s.now())
	if err != nil {
		return nil, err
	}
	return s.describe(ctx, rec)
}

// Fetch returns a code's payload without consuming a use. Used by the
// content endpoint after a successful redemption.
func (s *CodeService) Fetch(ctx context.Context, code string) (*models.Payload, error) {
	rec, err := s.store.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !rec.Redeemable(s.now()) {
		return nil, models.ErrCodeExpired
	}
	return s.describe(ctx, rec)
}

// describe builds the payload descriptor, resolving file blobs to a
// retrievable URL.
func (s *CodeService) describe(ctx context.Context, rec *models.Code) (*models.Payload, error) {
	payload := &models.Payload{
		Code: rec.Code,
		Type: rec.Type,
		Text: rec.Text,
		Name: rec.Name,
	}
	if rec.Type != models.TypeText {
		url, err := s.storage.PresignedURL(ctx, rec.Text, rec.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
		}
		payload.Text = url
	}
	return payload, nil
}

// AdminItem is one row of the admin listing.
type AdminItem struct {
	ID      string    `json:"id"`
	Code    string    `json:"code"`
	Name    string    `json:"name"`
	Type    string    `json:"type"`
	Size    int64     `json:"size"`
	Count   int       `json:"count"`
	ExpTime time.Time `json:"exp_time"`
	Text    string    `json:"text"`
}

// AdminList returns one page of records with file blobs resolved to URLs.
// Resolution failures are logged per record so one bad blob cannot break
// the listing.
func (s *CodeService) AdminList(ctx context.Context, page, size int64) ([]AdminItem, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 10
	}
	recs, total, err := s.store.List(ctx, page, size)
	if err != nil {
		return nil, 0, err
	}

	items := make([]AdminItem, 0, len(recs))
	for _, rec := range recs {
		item := AdminItem{
			ID:      rec.ID.Hex(),
			Code:    rec.Code,
			Name:    rec.Name,
			Type:    rec.Type,
			Size:    rec.Size,
			Count:   rec.Count,
			ExpTime: rec.ExpTime,
			Text:    rec.Text,
		}
		if rec.Type != models.TypeText {
			url, err := s.storage.PresignedURL(ctx, rec.Text, rec.Name)
			if err != nil {
				log.Printf("failed to resolve blob for code %s: %v", rec.Code, err)
				item.Text = ""
			} else {
				item.Text = url
			}
		}
		items = append(items, item)
	}
	return items, total, nil
}

// AdminDelete force-removes a record and, for file shares, its blob.
func (s *CodeService) AdminDelete(ctx context.Context, code string) error {
	rec, err := s.store.FindByCode(ctx, code)
	if err != nil {
		return err
	}
	if rec.Type != models.TypeText {
		if err := s.storage.Remove(ctx, rec.Text); err != nil {
			return fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
		}
	}
	return s.store.DeleteByCode(ctx, code)
}
