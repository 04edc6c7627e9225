package chunking

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// Chunk splits content into DocumentChunks for parentDocID according to
// rule, honoring the invariants in §4.G: sequence numbers are 0-indexed,
// contiguous, and strictly increasing; previous/next links form a
// null-terminated doubly-linked list; offsets partition the source with
// overlap no larger than rule.OverlapSize; coverage is tracked so callers
// can verify it against a required threshold.
func Chunk(parentDocID, content string, rule Rule) Result {
	start := time.Now()

	boundaries := splitBoundaries(content, rule)
	chunks := make([]DocumentChunk, 0, len(boundaries))
	now := time.Now().UTC()

	var totalLen int
	var emptyChunks int

	for _, b := range boundaries {
		text := content[b.start:b.end]
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			emptyChunks++
			if emptyChunks > rule.MaxEmptyChunks {
				continue
			}
		}

		id, _ := uuid.NewV7()
		chunk := DocumentChunk{
			ID:               id.String(),
			ParentDocID:      parentDocID,
			ChunkSequence:    len(chunks),
			ChunkType:        classifyChunkType(trimmed, rule),
			Content:          text,
			ContentLength:    len(text),
			WordCount:        wordCount(text),
			ChunkingStrategy: rule.Strategy,
			ChunkSize:        rule.TargetChunkSize,
			OverlapSize:      rule.OverlapSize,
			StartOffset:      b.start,
			EndOffset:        b.end,
			SearchText:       trimmed,
			QualityScore:     qualityScore(trimmed, rule),
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		totalLen += chunk.ContentLength
		chunks = append(chunks, chunk)
	}

	// Link the doubly-linked list and fix up sequence numbers now that
	// empty-chunk drops may have shifted positions.
	for i := range chunks {
		chunks[i].ChunkSequence = i
		if i > 0 {
			chunks[i].PreviousChunkID = chunks[i-1].ID
		}
		if i < len(chunks)-1 {
			chunks[i].NextChunkID = chunks[i+1].ID
		}
	}

	var coveredChars int
	for _, c := range chunks {
		coveredChars += c.EndOffset - c.StartOffset
	}
	coverage := 0.0
	if len(content) > 0 {
		coverage = float64(coveredChars) / float64(len(content))
	}

	var qualitySum float64
	for _, c := range chunks {
		qualitySum += c.QualityScore
	}
	avgQuality := 0.0
	if len(chunks) > 0 {
		avgQuality = qualitySum / float64(len(chunks))
	}

	avgSize := 0.0
	if len(chunks) > 0 {
		avgSize = float64(totalLen) / float64(len(chunks))
	}
	variance := sizeVariance(chunks, avgSize)

	return Result{
		DocumentID:            parentDocID,
		Chunks:                chunks,
		TotalChunks:           len(chunks),
		TotalContentLength:    totalLen,
		AverageChunkSize:      avgSize,
		ChunkSizeVariance:     variance,
		ContentCoverage:       coverage,
		ChunkQualityScore:     avgQuality,
		EmptyChunks:           emptyChunks,
		ProcessingTimeSeconds: time.Since(start).Seconds(),
		ChunkingStrategy:      rule.Strategy,
		ChunkingRule:          rule,
		CreatedAt:             now,
	}
}

type boundary struct{ start, end int }

// splitBoundaries places chunk boundaries according to the rule's
// strategy. section_boundaries and semantic_breaks both key off blank-line
// paragraph breaks in the absence of richer document structure (the
// factory only hands the chunker plain text); page_limits and fixed_size
// fall straight to a fixed-size sliding window; hybrid prefers paragraph
// boundaries but falls back to fixed-size when a paragraph would exceed
// MaxChunkSize.
func splitBoundaries(content string, rule Rule) []boundary {
	switch rule.Strategy {
	case StrategyFixedSize, StrategyPageLimits:
		return fixedSizeBoundaries(content, rule)
	case StrategySectionBoundaries, StrategySemanticBreaks:
		return paragraphBoundaries(content, rule, true)
	default: // hybrid
		return paragraphBoundaries(content, rule, false)
	}
}

func fixedSizeBoundaries(content string, rule Rule) []boundary {
	n := len(content)
	if n == 0 {
		return nil
	}
	step := rule.TargetChunkSize - rule.OverlapSize
	if step <= 0 {
		step = rule.TargetChunkSize
	}
	var bounds []boundary
	for start := 0; start < n; start += step {
		end := start + rule.TargetChunkSize
		if end > n {
			end = n
		}
		bounds = append(bounds, boundary{start, end})
		if end == n {
			break
		}
	}
	return bounds
}

// paragraphBoundaries splits on blank lines, merging consecutive paragraphs
// until a chunk reaches TargetChunkSize (MinChunkSize is not consulted)
// and splitting any paragraph exceeding MaxChunkSize via the
// fixed-size window. strict=true additionally never merges across a
// detected header line ("#" prefix or a short all-caps line).
func paragraphBoundaries(content string, rule Rule, strict bool) []boundary {
	if len(content) == 0 {
		return nil
	}
	paras := splitParagraphs(content)

	var bounds []boundary
	cursor := 0
	curStart := -1

	flush := func(end int) {
		if curStart >= 0 && end > curStart {
			bounds = append(bounds, boundary{curStart, end})
		}
		curStart = -1
	}

	for _, p := range paras {
		pStart, pEnd := cursor, cursor+len(p)
		cursor = pEnd

		if pEnd-pStart > rule.MaxChunkSize {
			flush(pStart)
			for _, sub := range fixedSizeBoundaries(content[pStart:pEnd], rule) {
				bounds = append(bounds, boundary{sub.start + pStart, sub.end + pStart})
			}
			continue
		}

		if curStart < 0 {
			curStart = pStart
		}
		if pEnd-curStart >= rule.TargetChunkSize {
			flush(pEnd)
		}
		if strict && isHeaderLine(p) {
			flush(pEnd)
		}
	}
	flush(len(content))

	if len(bounds) == 0 {
		bounds = append(bounds, boundary{0, len(content)})
	}
	return bounds
}

func splitParagraphs(content string) []string {
	parts := strings.SplitAfter(content, "\n\n")
	return parts
}

func isHeaderLine(p string) bool {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		return false
	}
	if strings.HasPrefix(trimmed, "#") {
		return true
	}
	if len(trimmed) < 80 && trimmed == strings.ToUpper(trimmed) {
		return true
	}
	return false
}

func classifyChunkType(text string, rule Rule) ChunkType {
	switch {
	case isHeaderLine(text):
		return ChunkTypeHeader
	case rule.HandleTables && strings.Contains(text, "\t"):
		return ChunkTypeTable
	case rule.HandleLists && (strings.HasPrefix(strings.TrimSpace(text), "-") || strings.HasPrefix(strings.TrimSpace(text), "*")):
		return ChunkTypeList
	default:
		return ChunkTypeParagraph
	}
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// qualityScore is a heuristic in [0,1]: non-empty content, reasonable
// word density, and proximity to the rule's target size all raise it.
func qualityScore(text string, rule Rule) float64 {
	if text == "" {
		return 0
	}
	score := 0.5

	words := wordCount(text)
	if words > 3 {
		score += 0.2
	}

	letters := 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if len(text) > 0 && float64(letters)/float64(len(text)) > 0.5 {
		score += 0.2
	}

	if rule.TargetChunkSize > 0 {
		ratio := float64(len(text)) / float64(rule.TargetChunkSize)
		if ratio > 0.4 && ratio < 1.6 {
			score += 0.1
		}
	}

	if score > 1 {
		score = 1
	}
	return score
}

func sizeVariance(chunks []DocumentChunk, mean float64) float64 {
	if len(chunks) == 0 {
		return 0
	}
	var sumSq float64
	for _, c := range chunks {
		d := float64(c.ContentLength) - mean
		sumSq += d * d
	}
	return sumSq / float64(len(chunks))
}
