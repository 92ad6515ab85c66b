package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TypeText marks records whose payload is literal text rather than a stored blob.
const TypeText = "text"

// Code is one share: a pickup code plus the payload it redeems to.
// For text shares Text holds the content itself; for file shares Text holds
// the object name under which the blob lives in storage.
type Code struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code      string             `bson:"code" json:"code"`
	Key       string             `bson:"key" json:"-"`
	Type      string             `bson:"type" json:"type"`
	Text      string             `bson:"text" json:"text"`
	Name      string             `bson:"name" json:"name"`
	Size      int64              `bson:"size" json:"size"`
	Count     int                `bson:"count" json:"count"` // -1 means unlimited uses
	ExpTime   time.Time          `bson:"exp_time" json:"exp_time"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Redeemable reports whether the record can still be redeemed at the given
// instant: not past its expiry time and with uses remaining.
func (c *Code) Redeemable(now time.Time) bool {
	return now.Before(c.ExpTime) && (c.Count == -1 || c.Count > 0)
}

// Payload is what a successful redemption returns to the caller.
// For file shares Text carries a retrievable URL instead of the object name.
type Payload struct {
	Code string `json:"code"`
	Type string `json:"type"`
	Text string `json:"text"`
	Name string `json:"name"`
}
