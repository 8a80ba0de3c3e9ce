package match

import (
	"go.uber.org/zap"

	"github.com/reelmap/locations-cli/internal/model"
)

// DefaultLandmarkThreshold is the hand-tuned minimum token-set score for
// accepting a landmark match.
const DefaultLandmarkThreshold = 90

// Matcher resolves location queries against the registry and landmark table.
type Matcher struct {
	index     *Index
	landmarks []model.LandmarkRecord
	threshold int
}

// NewMatcher creates a matcher. A non-positive threshold selects the default.
func NewMatcher(reg *model.Registry, landmarks []model.LandmarkRecord, threshold int) *Matcher {
	if threshold <= 0 {
		threshold = DefaultLandmarkThreshold
	}
	return &Matcher{
		index:     NewIndex(reg),
		landmarks: landmarks,
		threshold: threshold,
	}
}

// Resolve computes exactly one MatchResult per distinct normalized text.
// Duplicate texts across films reuse the memoized result. Deterministic:
// candidates keep registry order, landmarks keep table order, and ties keep
// the first seen.
func (m *Matcher) Resolve(queries []model.LocationQuery) map[string]model.MatchResult {
	log := zap.L().With(zap.String("component", "match.matcher"))

	texts := distinctTexts(queries)
	results := make(map[string]model.MatchResult, len(texts))

	streetMatched := 0
	for _, text := range texts {
		res := m.matchStreet(text)
		if res.Resolved() {
			streetMatched++
		}
		results[text] = res
	}
	log.Info("street pass complete",
		zap.Int("queries", len(texts)),
		zap.Int("matched", streetMatched),
	)

	landmarkMatched := 0
	for _, text := range texts {
		res := results[text]
		if res.Resolved() {
			continue
		}
		lm, score, ok := m.matchLandmark(text)
		// A landmark without a registered address cannot recover
		// coordinates; the query stays unresolved.
		if !ok || lm.Address == "" {
			continue
		}
		res.BestGuess = lm.Address
		res.Score = score
		res.Source = model.MatchSourceLandmark
		results[text] = res
		landmarkMatched++
	}
	log.Info("landmark pass complete", zap.Int("matched", landmarkMatched))

	return results
}

// matchStreet picks the candidate address with the highest token-sort score.
// The top candidate is accepted no matter how low its score; only an empty
// candidate set (or the sentinel itself) leaves the query unresolved.
func (m *Matcher) matchStreet(text string) model.MatchResult {
	res := model.MatchResult{QueryText: text, BestGuess: model.Unresolved}
	if text == model.Unresolved {
		return res
	}

	candidates := m.index.Candidates(text)
	if len(candidates) == 0 {
		return res
	}

	best, bestScore := "", -1
	for _, c := range candidates {
		if score := TokenSortRatio(text, c.FullAddress); score > bestScore {
			best, bestScore = c.FullAddress, score
		}
	}
	res.BestGuess = best
	res.Score = bestScore
	res.Source = model.MatchSourceStreet
	return res
}

// matchLandmark returns the best-scoring landmark when its token-set score
// clears the acceptance threshold.
func (m *Matcher) matchLandmark(text string) (model.LandmarkRecord, int, bool) {
	bestIdx, bestScore := -1, -1
	for i, lm := range m.landmarks {
		if score := TokenSetRatio(text, lm.Name); score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	if bestIdx == -1 || bestScore < m.threshold {
		return model.LandmarkRecord{}, bestScore, false
	}
	return m.landmarks[bestIdx], bestScore, true
}

// distinctTexts returns the unique normalized texts in first-seen order.
func distinctTexts(queries []model.LocationQuery) []string {
	seen := make(map[string]bool, len(queries))
	var out []string
	for _, q := range queries {
		if !seen[q.NormalizedText] {
			seen[q.NormalizedText] = true
			out = append(out, q.NormalizedText)
		}
	}
	return out
}
