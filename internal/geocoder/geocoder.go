// Package geocoder orchestrates normalization, constraint parsing, index
// matching, context boosting and spatial hierarchy lookup into one
// resolution pipeline. Geocode never fails: every input yields a structured
// result, down to a zero-score one when nothing matched.
package geocoder

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ssd-geocoder/app/config"
	"github.com/ssd-geocoder/app/models"
	"github.com/ssd-geocoder/internal/external"
	"github.com/ssd-geocoder/internal/matcher"
	"github.com/ssd-geocoder/internal/metrics"
	"github.com/ssd-geocoder/internal/normalizer"
	"github.com/ssd-geocoder/internal/search"
	"github.com/ssd-geocoder/internal/spatial"
)

// ResultCache is the pipeline's view of the result cache. Keys are normalized
// input text. Implementations live with the caller, which owns their lifetime.
type ResultCache interface {
	Get(ctx context.Context, key string) (*models.GeocodeResult, bool, error)
	Set(ctx context.Context, key string, result *models.GeocodeResult) error
}

// Options tune one Geocode call. The zero value means defaults: cache on,
// configured alternatives limit.
type Options struct {
	SkipCache       bool
	MaxAlternatives int // 0 uses the configured limit, negative disables
}

// Geocoder resolves free-form place text against a feature index.
type Geocoder struct {
	index     search.FeatureIndex
	spatial   *spatial.HierarchyResolver
	cache     ResultCache
	extractor external.CandidateExtractor
	logger    *zap.Logger
}

// New wires a Geocoder. cache, extractor and logger may be nil.
func New(index search.FeatureIndex, resolver *spatial.HierarchyResolver, cache ResultCache, extractor external.CandidateExtractor, logger *zap.Logger) *Geocoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Geocoder{
		index:     index,
		spatial:   resolver,
		cache:     cache,
		extractor: extractor,
		logger:    logger,
	}
}

// Geocode resolves text with default options.
func (g *Geocoder) Geocode(ctx context.Context, text string) *models.GeocodeResult {
	return g.GeocodeWithOptions(ctx, text, Options{})
}

// GeocodeWithOptions resolves text through the cascade: settlement, boma,
// payam, then county/state without coordinates. Each stage is constraint
// validated; the first stage that survives validation wins.
func (g *Geocoder) GeocodeWithOptions(ctx context.Context, text string, opts Options) *models.GeocodeResult {
	start := time.Now()
	metrics.GeocodeRequestsTotal.Inc()
	defer func() {
		metrics.GeocodeDurationMs.Observe(float64(time.Since(start).Milliseconds()))
	}()

	normalized := normalizer.Normalize(text)
	result := &models.GeocodeResult{InputText: text, NormalizedText: normalized}
	if normalized == "" {
		return result
	}

	cons := matcher.ParseConstraints(text)
	useCache := g.cache != nil && config.C.Cache.Enabled && !opts.SkipCache

	// Constrained queries skip the cache read: the cached entry for this
	// normalized text may answer a differently constrained question.
	if useCache && cons.Empty() {
		cached, ok, err := g.cache.Get(ctx, normalized)
		switch {
		case err != nil:
			g.logger.Warn("cache read failed", zap.Error(err))
		case ok && cached != nil:
			metrics.CacheHitsTotal.Inc()
			return cached
		default:
			metrics.CacheMissesTotal.Inc()
		}
	}

	candidates := normalizer.GenerateCandidates(text)
	candidates, cons = g.extendWithExtractor(ctx, text, candidates, cons)

	hit := g.resolveSettlement(ctx, candidates, cons)
	if hit == nil {
		hit = g.resolvePolygonStage(ctx, models.LayerBoma, candidates, cons)
	}
	if hit == nil {
		hit = g.resolvePolygonStage(ctx, models.LayerPayam, candidates, cons)
	}
	if hit == nil {
		hit = g.resolveCoarse(ctx, candidates, cons)
	}

	if hit != nil {
		result.ResolvedLayer = hit.match.Layer
		result.FeatureID = hit.match.FeatureID
		result.MatchedName = hit.match.Name
		result.Score = hit.match.Score
		result.SetHierarchy(hit.hierarchy)
		if hit.match.Layer == models.LayerSettlement {
			result.Village = hit.match.Name
		}
		if hit.coords != nil {
			result.SetCoordinates(hit.coords.Lon, hit.coords.Lat)
		}
		result.ResolutionTooCoarse = hit.tooCoarse
		result.GazetteerVersion = hit.version

		metrics.StageMatchesTotal.WithLabelValues(hit.match.Layer.String()).Inc()
		if hit.tooCoarse {
			metrics.TooCoarseTotal.Inc()
		}
		g.logger.Info("resolved",
			zap.String("layer", hit.match.Layer.String()),
			zap.String("feature_id", hit.match.FeatureID),
			zap.Float64("score", hit.match.Score))
	} else {
		metrics.NoMatchTotal.Inc()
		g.logger.Info("no match", zap.String("normalized", normalized))
	}

	result.Alternatives = g.alternatives(ctx, candidates, cons, result, opts)

	if useCache {
		if err := g.cache.Set(ctx, normalized, result); err != nil {
			g.logger.Warn("cache write failed", zap.Error(err))
		}
	}
	return result
}

// stageHit carries one selected match through assembly.
type stageHit struct {
	match     models.MatchCandidate
	hierarchy models.AdminHierarchy
	coords    *spatial.Point
	version   string
	tooCoarse bool
}

// extendWithExtractor merges extractor candidates and gap-fills constraints.
// Extraction is best effort; failure leaves the deterministic set untouched.
func (g *Geocoder) extendWithExtractor(ctx context.Context, text string, candidates []string, cons models.Constraints) ([]string, models.Constraints) {
	if g.extractor == nil {
		return candidates, cons
	}
	metrics.ExtractorCallsTotal.Inc()
	extracted, err := g.extractor.Extract(ctx, text)
	if err != nil {
		metrics.ExtractorFailuresTotal.Inc()
		g.logger.Warn("candidate extractor failed", zap.Error(err))
		return candidates, cons
	}
	if extracted.Empty() {
		return candidates, cons
	}
	return mergeCandidates(candidates, extracted.Strings()), extracted.FillConstraints(cons)
}

// mergeCandidates appends normalized extras not already present.
func mergeCandidates(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base))
	for _, c := range base {
		seen[c] = struct{}{}
	}
	for _, e := range extra {
		n := normalizer.Normalize(e)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		base = append(base, n)
	}
	return base
}

// resolveSettlement tries the settlement layer. The village constraint and
// its " town" variant are queried ahead of the derived candidates. The best
// boosted match must clear the base threshold and, once selected, agree with
// the state and county constraints; a violation kills the whole stage rather
// than degrading to a weaker settlement.
func (g *Geocoder) resolveSettlement(ctx context.Context, candidates []string, cons models.Constraints) *stageHit {
	base := config.C.Thresholds.Base
	best := g.bestAcross(ctx, settlementQueue(candidates, cons), models.LayerSettlement, cons)
	if best.FeatureID == "" || best.Score < base {
		return nil
	}

	hit := g.buildHit(ctx, best)
	if violatesStateCounty(hit.hierarchy, cons) {
		g.logger.Info("settlement rejected by constraints",
			zap.String("feature_id", best.FeatureID),
			zap.String("state", hit.hierarchy.State),
			zap.String("county", hit.hierarchy.County))
		return nil
	}
	return hit
}

// resolvePolygonStage tries one polygon layer (boma or payam). The own-level
// constraint compares against the matched name; other levels compare against
// the computed hierarchy. A centroid failure downgrades to null coordinates
// instead of failing the stage.
func (g *Geocoder) resolvePolygonStage(ctx context.Context, layer models.Layer, candidates []string, cons models.Constraints) *stageHit {
	base := config.C.Thresholds.Base
	best := g.bestAcross(ctx, candidates, layer, cons)
	if best.FeatureID == "" || best.Score < base {
		return nil
	}

	hit := g.buildHit(ctx, best)
	if violatesConstraints(layer, best.Name, hit.hierarchy, cons) {
		g.logger.Info("stage rejected by constraints",
			zap.String("layer", layer.String()),
			zap.String("feature_id", best.FeatureID))
		return nil
	}
	return hit
}

// resolveCoarse tries county then state. A county win is always preferred
// over a state win; neither ever carries coordinates.
func (g *Geocoder) resolveCoarse(ctx context.Context, candidates []string, cons models.Constraints) *stageHit {
	base := config.C.Thresholds.Base
	for _, layer := range []models.Layer{models.LayerCounty, models.LayerState} {
		best := g.bestAcross(ctx, candidates, layer, cons)
		if best.FeatureID == "" || best.Score < base {
			continue
		}
		hit := g.buildHit(ctx, best)
		if violatesConstraints(layer, best.Name, hit.hierarchy, cons) {
			g.logger.Info("stage rejected by constraints",
				zap.String("layer", layer.String()),
				zap.String("feature_id", best.FeatureID))
			continue
		}
		hit.coords = nil
		hit.tooCoarse = true
		return hit
	}
	return nil
}

// bestAcross queries one layer with every candidate in order and keeps the
// best boosted match. Strict improvement keeps earlier, higher-priority
// candidates ahead on ties; a perfect score stops the scan.
func (g *Geocoder) bestAcross(ctx context.Context, candidates []string, layer models.Layer, cons models.Constraints) models.MatchCandidate {
	var best models.MatchCandidate
	for _, cand := range candidates {
		matches := g.queryLayer(ctx, cand, layer, config.C.Thresholds.Base, 0, cons)
		if len(matches) == 0 {
			continue
		}
		if matches[0].Score > best.Score {
			best = matches[0]
		}
		if best.Score >= 1 {
			break
		}
	}
	return best
}

// queryLayer runs one index query and boosts the hits against the
// constraints. Index failures degrade to an empty answer.
func (g *Geocoder) queryLayer(ctx context.Context, text string, layer models.Layer, threshold float64, limit int, cons models.Constraints) []models.MatchCandidate {
	label := layer.String()
	if label == "" {
		label = "all"
	}
	metrics.IndexQueriesTotal.WithLabelValues(label).Inc()

	hits, err := g.index.Search(ctx, search.SearchQuery{
		Text:        text,
		Layer:       layer,
		Threshold:   threshold,
		Limit:       limit,
		Constraints: cons,
	})
	if err != nil {
		metrics.IndexErrorsTotal.Inc()
		g.logger.Warn("index query failed",
			zap.String("layer", label),
			zap.Error(err))
		return nil
	}
	if len(hits) == 0 {
		return nil
	}
	cands := make([]models.MatchCandidate, 0, len(hits))
	for _, h := range hits {
		cands = append(cands, h.Candidate())
	}
	return matcher.Boost(cands, cons)
}

// buildHit assembles the selected match: feature lookup, centroid (stored or
// computed from geometry), stored hierarchy, own-level name, then spatial
// backfill of the remaining levels. Every lookup failure degrades locally.
func (g *Geocoder) buildHit(ctx context.Context, m models.MatchCandidate) *stageHit {
	hit := &stageHit{match: m}
	if m.Hierarchy != nil {
		hit.hierarchy = *m.Hierarchy
	}

	feature, err := g.index.GetFeature(ctx, m.Layer, m.FeatureID)
	if err != nil {
		g.logger.Warn("feature lookup failed",
			zap.String("layer", m.Layer.String()),
			zap.String("feature_id", m.FeatureID),
			zap.Error(err))
	} else {
		hit.hierarchy.Merge(feature.Hierarchy)
		hit.version = feature.GazetteerVersion
		if feature.HasCentroid() {
			hit.coords = &spatial.Point{Lon: *feature.CentroidLon, Lat: *feature.CentroidLat}
		}
	}

	if hit.coords == nil {
		if geom, gerr := g.index.GetGeometry(ctx, m.Layer, m.FeatureID); gerr == nil {
			if c, ok := geom.Centroid(); ok {
				hit.coords = &c
			}
		}
	}

	if field := m.Layer.HierarchyField(); field != "village" {
		hit.hierarchy.Set(field, m.Name)
		hit.hierarchy.SetID(field, m.FeatureID)
	}

	if hit.coords != nil && g.spatial != nil {
		hit.hierarchy.Merge(g.spatial.HierarchyFor(ctx, *hit.coords))
	}
	return hit
}

// alternatives gathers additional matches across every layer at a lowered
// threshold, deduplicated by (layer, feature id) with the primary excluded.
func (g *Geocoder) alternatives(ctx context.Context, candidates []string, cons models.Constraints, primary *models.GeocodeResult, opts Options) []models.MatchCandidate {
	if opts.MaxAlternatives < 0 {
		return nil
	}
	limit := config.C.Alternatives.Limit
	if opts.MaxAlternatives > 0 {
		limit = opts.MaxAlternatives
	}
	if limit <= 0 {
		return nil
	}
	threshold := config.C.Thresholds.Base * config.C.Alternatives.ThresholdFactor

	type altKey struct {
		layer models.Layer
		id    string
	}
	best := make(map[altKey]models.MatchCandidate)
	var order []altKey
	for _, cand := range candidates {
		for _, m := range g.queryLayer(ctx, cand, "", threshold, limit, cons) {
			if m.Layer == primary.ResolvedLayer && m.FeatureID == primary.FeatureID {
				continue
			}
			k := altKey{m.Layer, m.FeatureID}
			prev, seen := best[k]
			if !seen {
				best[k] = m
				order = append(order, k)
			} else if m.Score > prev.Score {
				best[k] = m
			}
		}
	}
	out := make([]models.MatchCandidate, 0, len(order))
	for _, k := range order {
		out = append(out, best[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Layer.Specificity() > out[j].Layer.Specificity()
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// settlementQueue puts the village constraint and its " town" variant ahead
// of the derived candidates.
func settlementQueue(candidates []string, cons models.Constraints) []string {
	v := normalizer.Normalize(cons.Village)
	if v == "" {
		return candidates
	}
	variant := v + " town"
	queue := make([]string, 0, len(candidates)+2)
	queue = append(queue, v)
	if !strings.HasSuffix(v, " town") {
		queue = append(queue, variant)
	}
	for _, c := range candidates {
		if c == v || c == variant {
			continue
		}
		queue = append(queue, c)
	}
	return queue
}

// violatesStateCounty is the settlement stage's post-selection check. Only
// state and county are reliable enough to reject on; missing values pass.
func violatesStateCounty(h models.AdminHierarchy, cons models.Constraints) bool {
	if cons.State != "" && h.State != "" && !matcher.NamesAgree(cons.State, h.State, "state") {
		return true
	}
	if cons.County != "" && h.County != "" && !matcher.NamesAgree(cons.County, h.County, "county") {
		return true
	}
	return false
}

// violatesConstraints validates a polygon-stage match: the constraint for the
// matched layer's own level compares against the matched name, every other
// level against the computed hierarchy. Missing values never conflict.
func violatesConstraints(layer models.Layer, matchedName string, h models.AdminHierarchy, cons models.Constraints) bool {
	own := layer.HierarchyField()
	checks := []struct{ field, want string }{
		{"state", cons.State},
		{"county", cons.County},
		{"payam", cons.Payam},
		{"boma", cons.Boma},
	}
	for _, c := range checks {
		if c.want == "" {
			continue
		}
		have := h.Get(c.field)
		if c.field == own {
			have = matchedName
		}
		if have == "" {
			continue
		}
		if !matcher.NamesAgree(c.want, have, c.field) {
			return true
		}
	}
	return false
}
