package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GeocodeReview is a resolution queued for human review, usually because it
// scored below the confidence threshold or matched nothing at all.
type GeocodeReview struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	RawText        string             `bson:"raw_text" json:"raw_text"`
	NormalizedText string             `bson:"normalized_text" json:"normalized_text"`
	AutoResult     GeocodeResult      `bson:"auto_result" json:"auto_result"`
	Score          float64            `bson:"score" json:"score"`
	Alternatives   []MatchCandidate   `bson:"alternatives" json:"alternatives"`
	Status         string             `bson:"status" json:"status"`
	ManualResult   *GeocodeResult     `bson:"manual_result,omitempty" json:"manual_result,omitempty"`
	ReviewerID     *string            `bson:"reviewer_id,omitempty" json:"reviewer_id,omitempty"`
	ReviewedAt     *time.Time         `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}

// Review status values.
const (
	ReviewStatusPending  = "pending"
	ReviewStatusInReview = "in_review"
	ReviewStatusApproved = "approved"
	ReviewStatusRejected = "rejected"
)

// NewGeocodeReview queues a finished resolution for review.
func NewGeocodeReview(result GeocodeResult) *GeocodeReview {
	return &GeocodeReview{
		RawText:        result.InputText,
		NormalizedText: result.NormalizedText,
		AutoResult:     result,
		Score:          result.Score,
		Alternatives:   result.Alternatives,
		Status:         ReviewStatusPending,
		CreatedAt:      time.Now(),
	}
}

// IsValidReviewStatus reports whether s is a known review status.
func IsValidReviewStatus(s string) bool {
	switch s {
	case ReviewStatusPending, ReviewStatusInReview, ReviewStatusApproved, ReviewStatusRejected:
		return true
	}
	return false
}

// Approve accepts the automatic result.
func (gr *GeocodeReview) Approve(reviewerID string) {
	gr.Status = ReviewStatusApproved
	gr.ReviewerID = &reviewerID
	now := time.Now()
	gr.ReviewedAt = &now
}

// Reject discards the automatic result.
func (gr *GeocodeReview) Reject(reviewerID string) {
	gr.Status = ReviewStatusRejected
	gr.ReviewerID = &reviewerID
	now := time.Now()
	gr.ReviewedAt = &now
}

// SetManualResult replaces the automatic result with a corrected one and
// closes the review.
func (gr *GeocodeReview) SetManualResult(result GeocodeResult, reviewerID string) {
	gr.ManualResult = &result
	gr.Status = ReviewStatusApproved
	gr.ReviewerID = &reviewerID
	now := time.Now()
	gr.ReviewedAt = &now
}

// IsPending reports whether the review is still open.
func (gr *GeocodeReview) IsPending() bool {
	return gr.Status == ReviewStatusPending
}

// IsCompleted reports whether the review reached a terminal status.
func (gr *GeocodeReview) IsCompleted() bool {
	return gr.Status == ReviewStatusApproved || gr.Status == ReviewStatusRejected
}

// FinalResult returns the manual correction when present, otherwise the
// automatic result.
func (gr *GeocodeReview) FinalResult() GeocodeResult {
	if gr.ManualResult != nil {
		return *gr.ManualResult
	}
	return gr.AutoResult
}
