// Package match scores listing rows against a normalized address query.
// The heuristics are deliberately address-specific token overlap, not
// general record linkage.
package match

import (
	"strings"

	"github.com/propscan/ownerdata/internal/address"
	"github.com/propscan/ownerdata/internal/model"
)

// Score weights. A candidate qualifies only at QualifyingScore or above,
// and the street-number component is mandatory: rows missing the query's
// street number are excluded before any other comparison.
const (
	streetNumberPoints = 50
	streetNamePoints   = 30
	sharedWordPoints   = 5

	QualifyingScore = 50
)

// Candidate pairs a store row with its fuzzy-match score.
type Candidate struct {
	Record model.ListingRecord
	Score  int
}

// Score computes the additive match score between a normalized query and a
// candidate's free-text address. Returns 0 when the candidate lacks the
// query's street number, or when the query has no street number at all.
func Score(query address.Normalized, candidateAddr string) int {
	if query.StreetNumber == "" {
		return 0
	}

	cand := address.NormalizeForMatching(candidateAddr)
	if !address.ContainsWord(strings.ToLower(candidateAddr), query.StreetNumber) {
		return 0
	}
	score := streetNumberPoints

	if query.StreetToken != "" && query.StreetToken == cand.StreetToken {
		score += streetNamePoints
	}

	// +5 per additional shared significant word, the street fields already
	// counted above excluded.
	candTokens := make(map[string]bool)
	for _, t := range address.Tokens(candidateAddr) {
		candTokens[t] = true
	}
	for _, t := range address.Tokens(query.Raw) {
		if t == query.StreetNumber || t == query.StreetToken {
			continue
		}
		if candTokens[t] {
			score += sharedWordPoints
		}
	}

	return score
}

// Best returns the highest-scoring qualifying candidate. On duplicate top
// scores the earliest candidate wins — callers pass rows in store
// iteration order, which keeps selection stable for a quiet table.
func Best(cands []Candidate) (Candidate, bool) {
	var best Candidate
	found := false
	for _, c := range cands {
		if c.Score < QualifyingScore {
			continue
		}
		if !found || c.Score > best.Score {
			best = c
			found = true
		}
	}
	return best, found
}

// Rank scores every record against the query and returns the candidates in
// input order. Non-qualifying rows are kept with their sub-threshold score
// so callers can log near misses.
func Rank(query address.Normalized, records []model.ListingRecord) []Candidate {
	cands := make([]Candidate, 0, len(records))
	for _, rec := range records {
		cands = append(cands, Candidate{Record: rec, Score: Score(query, rec.Address)})
	}
	return cands
}
