package model

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

// Response is a single submission to a form. Data holds the answers as a
// JSON object keyed by field id; values are whatever the form produced
// (strings, numbers, arrays for checkbox fields).
type Response struct {
	ID          string                 `json:"id" bson:"_id"`
	FormID      string                 `json:"formId" bson:"formId"`
	Data        map[string]interface{} `json:"data" bson:"data"`
	SubmittedAt int64                  `json:"submittedAt" bson:"submittedAt"`
	UpdatedAt   int64                  `json:"updatedAt" bson:"updatedAt"`
}

// NewResponse creates a response with a fresh ID and timestamps.
func NewResponse(formID string, data map[string]interface{}) *Response {
	now := time.Now().UnixMilli()
	return &Response{
		ID:          uuid.New().String(),
		FormID:      formID,
		Data:        data,
		SubmittedAt: now,
		UpdatedAt:   now,
	}
}

// SubmissionID derives a stable response ID from a client-supplied
// idempotency token, so retried submissions collapse to one record.
func SubmissionID(formID, clientToken string) string {
	hash := blake3.Sum256([]byte(formID + ":" + clientToken))
	return hex.EncodeToString(hash[:16])
}
