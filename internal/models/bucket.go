package models

import (
	"encoding/json"
	"fmt"
)

// Bucket names one persisted collection.
type Bucket string

const (
	BucketRecipes Bucket = "recipes"
	BucketPlan    Bucket = "plan"
	BucketProfile Bucket = "profile"
)

var Buckets = []Bucket{BucketRecipes, BucketPlan, BucketProfile}

// ParseBucket validates a bucket name from a URL or command line.
func ParseBucket(s string) (Bucket, error) {
	switch b := Bucket(s); b {
	case BucketRecipes, BucketPlan, BucketProfile:
		return b, nil
	}
	return "", fmt.Errorf("unknown bucket %q", s)
}

// IsCollection reports whether the bucket holds a JSON array of entities with ids.
func (b Bucket) IsCollection() bool {
	return b == BucketRecipes || b == BucketPlan
}

// BucketResponse is returned by bucket reads.
type BucketResponse struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	Revision int64           `json:"revision"`
}

// WriteResponse is returned by bucket writes and renames.
type WriteResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Revision int64  `json:"revision"`
}
