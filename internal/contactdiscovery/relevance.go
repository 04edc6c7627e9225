package contactdiscovery

import (
	"math"
	"time"

	"github.com/arc-self/ingest-fabric/pkg/adapters"
)

// relevance weights: recency halves every 90 days, frequency saturates via
// log growth so one very chatty thread can't dominate a contact seen once
// across many distinct surfaces, diversity rewards being seen from more
// than one source service, and completeness rewards having a resolved name.
const (
	recencyHalfLife = 90 * 24 * time.Hour
	weightRecency   = 0.4
	weightFrequency = 0.3
	weightDiversity = 0.2
	weightComplete  = 0.1
)

// score recomputes RelevanceScore for c as of now, using its already
// updated counters. Recomputed on every sighting, not just creation.
func score(c adapters.Contact, now time.Time) float64 {
	recency := recencyScore(c.LastSeen, now)
	frequency := frequencyScore(c.TotalEventCount)
	diversity := diversityScore(len(c.SourceServices))
	completeness := completenessScore(c)

	return weightRecency*recency + weightFrequency*frequency +
		weightDiversity*diversity + weightComplete*completeness
}

func recencyScore(lastSeen, now time.Time) float64 {
	if lastSeen.IsZero() {
		return 0
	}
	age := now.Sub(lastSeen)
	if age < 0 {
		age = 0
	}
	halfLives := float64(age) / float64(recencyHalfLife)
	return math.Pow(0.5, halfLives)
}

func frequencyScore(totalEvents int) float64 {
	if totalEvents <= 0 {
		return 0
	}
	// log1p(n) / log1p(50): a contact seen 50+ times saturates near 1.0.
	return math.Min(1.0, math.Log1p(float64(totalEvents))/math.Log1p(50))
}

func diversityScore(sourceServiceCount int) float64 {
	if sourceServiceCount <= 0 {
		return 0
	}
	return math.Min(1.0, float64(sourceServiceCount)/4.0)
}

func completenessScore(c adapters.Contact) float64 {
	if c.GivenName != "" && c.FamilyName != "" {
		return 1.0
	}
	if c.GivenName != "" || c.FamilyName != "" {
		return 0.5
	}
	return 0
}
