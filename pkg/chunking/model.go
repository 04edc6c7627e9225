// Package chunking splits large documents into sibling DocumentChunk
// records linked to a parent, per §4.G.
package chunking

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Strategy is the algorithm used to place chunk boundaries.
type Strategy string

const (
	StrategySectionBoundaries Strategy = "section_boundaries"
	StrategyPageLimits        Strategy = "page_limits"
	StrategySemanticBreaks    Strategy = "semantic_breaks"
	StrategyFixedSize         Strategy = "fixed_size"
	StrategyHybrid            Strategy = "hybrid"
)

// ChunkType tags the structural role of a chunk's source region.
type ChunkType string

const (
	ChunkTypeHeader    ChunkType = "header"
	ChunkTypeParagraph ChunkType = "paragraph"
	ChunkTypeSection   ChunkType = "section"
	ChunkTypePage      ChunkType = "page"
	ChunkTypeTable     ChunkType = "table"
	ChunkTypeList      ChunkType = "list"
	ChunkTypeImage     ChunkType = "image"
	ChunkTypeFootnote  ChunkType = "footnote"
	ChunkTypeComment   ChunkType = "comment"
	ChunkTypeMixed     ChunkType = "mixed"
)

// DocumentChunk is one sibling record of a chunked parent document.
type DocumentChunk struct {
	ID               string
	ParentDocID      string
	ChunkSequence    int
	ChunkType        ChunkType
	Content          string
	ContentLength    int
	WordCount        int
	Title            string
	SectionPath      string
	PageNumber       int
	ChunkingStrategy Strategy
	ChunkSize        int
	OverlapSize      int
	StartOffset      int
	EndOffset        int
	PreviousChunkID  string
	NextChunkID      string
	ChildChunkIDs    []string
	SearchText       string
	Keywords         []string
	QualityScore     float64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Rule parameterizes one chunking run.
type Rule struct {
	Name               string
	Strategy           Strategy
	MinChunkSize       int
	TargetChunkSize    int
	MaxChunkSize       int
	OverlapSize        int
	PreserveSections   bool
	PreserveParagraphs bool
	PreserveSentences  bool
	HandleTables       bool
	HandleLists        bool
	HandleImages       bool
	MinContentQuality  float64
	MaxEmptyChunks     int
	MaxProcessingTime  time.Duration
	BatchSize          int
}

// defaultRulesYAML is the literal rule table for each content type,
// parsed once at package init rather than hand-assembled in Go, so the
// tuning knobs read the same whether a future change moves this to a
// config file.
const defaultRulesYAML = `
word:
  name: word_default
  strategy: hybrid
  min_chunk_size: 500
  target_chunk_size: 1000
  max_chunk_size: 2000
  overlap_size: 100
  preserve_sections: true
  preserve_paragraphs: true
  preserve_sentences: true
  min_content_quality: 0.8
  max_empty_chunks: 2
  max_processing_time_seconds: 30
  batch_size: 50
sheet:
  name: sheet_default
  strategy: section_boundaries
  min_chunk_size: 300
  target_chunk_size: 800
  max_chunk_size: 1500
  overlap_size: 50
  preserve_sections: true
  handle_tables: true
  min_content_quality: 0.7
  max_empty_chunks: 2
  max_processing_time_seconds: 30
  batch_size: 50
presentation:
  name: presentation_default
  strategy: page_limits
  min_chunk_size: 400
  target_chunk_size: 900
  max_chunk_size: 1800
  overlap_size: 75
  preserve_sections: true
  handle_images: true
  min_content_quality: 0.75
  max_empty_chunks: 2
  max_processing_time_seconds: 30
  batch_size: 50
`

type yamlRule struct {
	Name                     string  `yaml:"name"`
	Strategy                 string  `yaml:"strategy"`
	MinChunkSize             int     `yaml:"min_chunk_size"`
	TargetChunkSize          int     `yaml:"target_chunk_size"`
	MaxChunkSize             int     `yaml:"max_chunk_size"`
	OverlapSize              int     `yaml:"overlap_size"`
	PreserveSections         bool    `yaml:"preserve_sections"`
	PreserveParagraphs       bool    `yaml:"preserve_paragraphs"`
	PreserveSentences        bool    `yaml:"preserve_sentences"`
	HandleTables             bool    `yaml:"handle_tables"`
	HandleLists              bool    `yaml:"handle_lists"`
	HandleImages             bool    `yaml:"handle_images"`
	MinContentQuality        float64 `yaml:"min_content_quality"`
	MaxEmptyChunks           int     `yaml:"max_empty_chunks"`
	MaxProcessingTimeSeconds int     `yaml:"max_processing_time_seconds"`
	BatchSize                int     `yaml:"batch_size"`
}

var defaultRules map[string]yamlRule

func init() {
	defaultRules = make(map[string]yamlRule)
	if err := yaml.Unmarshal([]byte(defaultRulesYAML), &defaultRules); err != nil {
		panic("chunking: malformed default rule table: " + err.Error())
	}
}

// DefaultRule returns the built-in rule set for contentType, mirroring the
// originating system's per-content-type defaults. Unknown content types
// fall back to the "word" rule set.
func DefaultRule(contentType string) Rule {
	r, ok := defaultRules[contentType]
	if !ok {
		r = defaultRules["word"]
	}
	return Rule{
		Name:               r.Name,
		Strategy:           Strategy(r.Strategy),
		MinChunkSize:       r.MinChunkSize,
		TargetChunkSize:    r.TargetChunkSize,
		MaxChunkSize:       r.MaxChunkSize,
		OverlapSize:        r.OverlapSize,
		PreserveSections:   r.PreserveSections,
		PreserveParagraphs: r.PreserveParagraphs,
		PreserveSentences:  r.PreserveSentences,
		HandleTables:       r.HandleTables,
		HandleLists:        r.HandleLists,
		HandleImages:       r.HandleImages,
		MinContentQuality:  r.MinContentQuality,
		MaxEmptyChunks:     r.MaxEmptyChunks,
		MaxProcessingTime:  time.Duration(r.MaxProcessingTimeSeconds) * time.Second,
		BatchSize:          r.BatchSize,
	}
}

// Result is the outcome of a chunking run over one document.
type Result struct {
	DocumentID            string
	Chunks                []DocumentChunk
	TotalChunks           int
	TotalContentLength    int
	AverageChunkSize      float64
	ChunkSizeVariance     float64
	ContentCoverage       float64
	ChunkQualityScore     float64
	EmptyChunks           int
	ProcessingTimeSeconds float64
	ChunkingStrategy      Strategy
	ChunkingRule          Rule
	CreatedAt             time.Time
}

// ChunkBySequence returns the chunk at the given 0-indexed sequence, or
// false if out of range.
func (r Result) ChunkBySequence(seq int) (DocumentChunk, bool) {
	if seq < 0 || seq >= len(r.Chunks) {
		return DocumentChunk{}, false
	}
	return r.Chunks[seq], true
}

// ChunksByType filters chunks matching the given ChunkType.
func (r Result) ChunksByType(t ChunkType) []DocumentChunk {
	var out []DocumentChunk
	for _, c := range r.Chunks {
		if c.ChunkType == t {
			out = append(out, c)
		}
	}
	return out
}

// ChunkAtOffset returns the chunk whose [StartOffset, EndOffset) range
// contains offset.
func (r Result) ChunkAtOffset(offset int) (DocumentChunk, bool) {
	for _, c := range r.Chunks {
		if offset >= c.StartOffset && offset < c.EndOffset {
			return c, true
		}
	}
	return DocumentChunk{}, false
}

// ValidateChunkSequence reports whether Chunks form a contiguous
// 0..n-1 sequence with a consistent doubly-linked list.
func (r Result) ValidateChunkSequence() bool {
	for i, c := range r.Chunks {
		if c.ChunkSequence != i {
			return false
		}
		if i == 0 && c.PreviousChunkID != "" {
			return false
		}
		if i > 0 && c.PreviousChunkID != r.Chunks[i-1].ID {
			return false
		}
		if i == len(r.Chunks)-1 && c.NextChunkID != "" {
			return false
		}
		if i < len(r.Chunks)-1 && c.NextChunkID != r.Chunks[i+1].ID {
			return false
		}
	}
	return true
}
