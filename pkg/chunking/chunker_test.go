package chunking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func longWordContent() string {
	para := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 20)
	var b strings.Builder
	for i := 0; i < 10; i++ {
		b.WriteString(para)
		b.WriteString("\n\n")
	}
	return b.String()
}

func TestChunkSequenceIsContiguousAndLinked(t *testing.T) {
	rule := DefaultRule("word")
	result := Chunk("d1", longWordContent(), rule)

	require.Greater(t, len(result.Chunks), 1)
	assert.True(t, result.ValidateChunkSequence())
	assert.Equal(t, "", result.Chunks[0].PreviousChunkID)
	assert.Equal(t, "", result.Chunks[len(result.Chunks)-1].NextChunkID)
}

func TestChunkCoverageMeetsThreshold(t *testing.T) {
	content := longWordContent()
	rule := DefaultRule("word")
	result := Chunk("d1", content, rule)

	requiredCoverage := 0.9
	assert.GreaterOrEqual(t, result.ContentCoverage, requiredCoverage)
}

func TestChunkAllParentDocID(t *testing.T) {
	result := Chunk("d1", longWordContent(), DefaultRule("word"))
	for _, c := range result.Chunks {
		assert.Equal(t, "d1", c.ParentDocID)
	}
}

func TestChunkEmptyContent(t *testing.T) {
	result := Chunk("d1", "", DefaultRule("word"))
	assert.Equal(t, 0, result.TotalChunks)
}

func TestDefaultRuleBySourceType(t *testing.T) {
	assert.Equal(t, StrategyHybrid, DefaultRule("word").Strategy)
	assert.Equal(t, StrategySectionBoundaries, DefaultRule("sheet").Strategy)
	assert.Equal(t, StrategyPageLimits, DefaultRule("presentation").Strategy)
	assert.Equal(t, StrategyHybrid, DefaultRule("unknown").Strategy)
}
