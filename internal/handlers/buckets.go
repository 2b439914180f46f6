package handlers

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/blake2b"

	"github.com/AnshRaj112/canteen-backend/internal/models"
	"github.com/AnshRaj112/canteen-backend/internal/services"
)

// maxBucketBody bounds a bucket write. Recipes may carry inline data-URL images.
const maxBucketBody = 20 << 20

func bucketParam(r *http.Request) (models.Bucket, error) {
	b, err := models.ParseBucket(chi.URLParam(r, "bucket"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", services.ErrInvalidBucket, err)
	}
	return b, nil
}

// bucketETag is a strong validator over the bucket bytes.
func bucketETag(data []byte) string {
	sum := blake2b.Sum256(data)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

// GetBucket returns one bucket with the household revision it reflects.
func GetBucket(w http.ResponseWriter, r *http.Request) {
	bucket, err := bucketParam(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	data, rev, err := householdService.LoadBucket(r.Context(), chi.URLParam(r, "id"), bucket)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	etag := bucketETag(data)
	w.Header().Set("ETag", etag)
	w.Header().Set("X-Revision", strconv.FormatInt(rev, 10))
	w.Header().Set("Cache-Control", "no-cache")
	if inm := r.Header.Get("If-None-Match"); inm != "" && etagMatches(inm, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	writeJSON(w, http.StatusOK, models.BucketResponse{
		Success:  true,
		Data:     data,
		Revision: rev,
	})
}

// PutBucket replaces a bucket with the request body (last writer wins).
func PutBucket(w http.ResponseWriter, r *http.Request) {
	writeBucket(w, r, householdService.ReplaceBucket)
}

// MergeBucket upserts the entities in the request body by id and never deletes.
func MergeBucket(w http.ResponseWriter, r *http.Request) {
	writeBucket(w, r, householdService.MergeBucket)
}

type bucketWriter func(ctx context.Context, id string, bucket models.Bucket, data json.RawMessage, origin string) (int64, error)

func writeBucket(w http.ResponseWriter, r *http.Request, write bucketWriter) {
	bucket, err := bucketParam(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBucketBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Bucket too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	if !json.Valid(body) {
		writeError(w, http.StatusBadRequest, "Bucket must be valid JSON")
		return
	}

	rev, err := write(r.Context(), chi.URLParam(r, "id"), bucket, body, clientID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("X-Revision", strconv.FormatInt(rev, 10))
	writeJSON(w, http.StatusOK, models.WriteResponse{Success: true, Revision: rev})
}
