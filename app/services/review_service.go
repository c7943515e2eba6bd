package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/ssd-geocoder/app/models"
)

// ReviewService manages the human review queue. Resolutions scoring below
// the threshold are queued; reviewers approve, reject, or correct them, and
// corrections can record learned aliases for the next index rebuild.
type ReviewService struct {
	reviews   *mongo.Collection
	aliases   *mongo.Collection
	threshold float64
	logger    *zap.Logger
}

// NewReviewService creates the review collections and their indexes.
func NewReviewService(db *mongo.Database, threshold float64, logger *zap.Logger) *ReviewService {
	reviews := db.Collection("geocode_reviews")
	aliases := db.Collection("learned_aliases")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	reviewIndexes := []mongo.IndexModel{
		{Keys: bson.D{bson.E{Key: "status", Value: 1}}},
		{Keys: bson.D{bson.E{Key: "created_at", Value: -1}}},
		{Keys: bson.D{bson.E{Key: "score", Value: 1}}},
	}
	if _, err := reviews.Indexes().CreateMany(ctx, reviewIndexes); err != nil {
		logger.Warn("could not create geocode_reviews indexes", zap.Error(err))
	}

	aliasIndexes := []mongo.IndexModel{
		{Keys: bson.D{bson.E{Key: "alias", Value: 1}, bson.E{Key: "layer", Value: 1}, bson.E{Key: "feature_id", Value: 1}}},
		{Keys: bson.D{bson.E{Key: "layer", Value: 1}, bson.E{Key: "feature_id", Value: 1}}},
	}
	if _, err := aliases.Indexes().CreateMany(ctx, aliasIndexes); err != nil {
		logger.Warn("could not create learned_aliases indexes", zap.Error(err))
	}

	return &ReviewService{
		reviews:   reviews,
		aliases:   aliases,
		threshold: threshold,
		logger:    logger,
	}
}

// ShouldReview reports whether a result belongs in the queue. No-match
// results score zero and always qualify.
func (rs *ReviewService) ShouldReview(result *models.GeocodeResult) bool {
	return result != nil && result.Score < rs.threshold
}

// Enqueue stores a resolution for review. A text with a review already
// pending is not queued twice.
func (rs *ReviewService) Enqueue(ctx context.Context, result *models.GeocodeResult) error {
	pending := bson.M{
		"normalized_text": result.NormalizedText,
		"status":          models.ReviewStatusPending,
	}
	if n, err := rs.reviews.CountDocuments(ctx, pending); err == nil && n > 0 {
		return nil
	}

	review := models.NewGeocodeReview(*result)

	if _, err := rs.reviews.InsertOne(ctx, review); err != nil {
		return fmt.Errorf("enqueue review: %w", err)
	}

	rs.logger.Debug("queued for review",
		zap.String("text", result.InputText),
		zap.Float64("score", result.Score))
	return nil
}

// List returns reviews filtered by status, newest first, plus the total for
// that filter.
func (rs *ReviewService) List(ctx context.Context, status string, limit, offset int64) ([]models.GeocodeReview, int64, error) {
	filter := bson.M{}
	if status != "" {
		if !models.IsValidReviewStatus(status) {
			return nil, 0, fmt.Errorf("unknown review status %q", status)
		}
		filter["status"] = status
	}

	total, err := rs.reviews.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{bson.E{Key: "created_at", Value: -1}}).
		SetSkip(offset).
		SetLimit(limit)

	cursor, err := rs.reviews.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.GeocodeReview
	if err := cursor.All(ctx, &out); err != nil {
		return nil, 0, fmt.Errorf("decode reviews: %w", err)
	}
	return out, total, nil
}

// Approve accepts the automatic result.
func (rs *ReviewService) Approve(ctx context.Context, id, reviewerID string) (*models.GeocodeReview, error) {
	review, err := rs.get(ctx, id)
	if err != nil {
		return nil, err
	}

	review.Approve(reviewerID)
	if err := rs.replace(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// Reject discards the automatic result.
func (rs *ReviewService) Reject(ctx context.Context, id, reviewerID string) (*models.GeocodeReview, error) {
	review, err := rs.get(ctx, id)
	if err != nil {
		return nil, err
	}

	review.Reject(reviewerID)
	if err := rs.replace(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// Correct closes the review with a manual result. When learnAlias is set and
// the correction resolved a feature, the original spelling is recorded as a
// learned alias for that feature.
func (rs *ReviewService) Correct(ctx context.Context, id, reviewerID string, manual models.GeocodeResult, learnAlias bool) (*models.GeocodeReview, error) {
	review, err := rs.get(ctx, id)
	if err != nil {
		return nil, err
	}

	review.SetManualResult(manual, reviewerID)
	if err := rs.replace(ctx, review); err != nil {
		return nil, err
	}

	if learnAlias && manual.Matched() && review.NormalizedText != "" {
		if err := rs.recordAlias(ctx, review.NormalizedText, manual); err != nil {
			rs.logger.Warn("could not record learned alias", zap.Error(err))
		}
	}
	return review, nil
}

// CountPending returns the open queue size.
func (rs *ReviewService) CountPending(ctx context.Context) (int64, error) {
	return rs.reviews.CountDocuments(ctx, bson.M{"status": models.ReviewStatusPending})
}

// CountAliases returns the learned alias count.
func (rs *ReviewService) CountAliases(ctx context.Context) (int64, error) {
	return rs.aliases.CountDocuments(ctx, bson.M{})
}

func (rs *ReviewService) get(ctx context.Context, id string) (*models.GeocodeReview, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid review id %q", id)
	}

	var review models.GeocodeReview
	if err := rs.reviews.FindOne(ctx, bson.M{"_id": oid}).Decode(&review); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("review %s not found", id)
		}
		return nil, fmt.Errorf("load review: %w", err)
	}
	return &review, nil
}

func (rs *ReviewService) replace(ctx context.Context, review *models.GeocodeReview) error {
	if _, err := rs.reviews.ReplaceOne(ctx, bson.M{"_id": review.ID}, review); err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	return nil
}

// recordAlias upserts one alias per (alias, layer, feature) triple, bumping
// usage on repeats.
func (rs *ReviewService) recordAlias(ctx context.Context, alias string, manual models.GeocodeResult) error {
	filter := bson.M{
		"alias":      alias,
		"layer":      manual.ResolvedLayer,
		"feature_id": manual.FeatureID,
	}

	var existing models.LearnedAlias
	err := rs.aliases.FindOne(ctx, filter).Decode(&existing)
	if err == mongo.ErrNoDocuments {
		entry := models.NewLearnedAlias(alias, manual.MatchedName, manual.ResolvedLayer, manual.FeatureID, models.SourceManual)
		_, err = rs.aliases.InsertOne(ctx, entry)
		if err == nil {
			rs.logger.Info("learned alias recorded",
				zap.String("alias", alias),
				zap.String("layer", manual.ResolvedLayer.String()),
				zap.String("feature_id", manual.FeatureID))
		}
		return err
	}
	if err != nil {
		return err
	}

	existing.UpdateUsage()
	_, err = rs.aliases.ReplaceOne(ctx, bson.M{"_id": existing.ID}, existing)
	return err
}
