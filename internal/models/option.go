package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Option is one admin-editable configuration row.
type Option struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Key   string             `bson:"key" json:"key"`
	Value string             `bson:"value" json:"value"`
}
