package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bionicotaku/lingo-feed-ranker/internal/scoring"
)

func TestDefaultMatchesScoringPackageValues(t *testing.T) {
	cfg := Default()
	assert.Equal(t, scoring.HalfLifeDays, cfg.HalfLifeDays)
	assert.Equal(t, scoring.HardSkipThreshold, cfg.HardSkipThreshold)
	assert.Equal(t, scoring.FeedSize, cfg.FeedSize)
}

func TestApplyPushesValuesIntoScoringPackage(t *testing.T) {
	before := Default()
	defer before.Apply()

	cfg := Default()
	cfg.HardSkipThreshold = 25
	cfg.DecayFactor = 0.5
	cfg.Apply()

	assert.Equal(t, 25, scoring.HardSkipThreshold)
	assert.Equal(t, 0.5, scoring.DecayFactor)
}
