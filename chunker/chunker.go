package chunker

import (
	"log/slog"
	"unicode/utf8"

	"github.com/poiesic/recall/core"
)

const (
	// DefaultChunkSize is the default window size in characters.
	DefaultChunkSize = 512
	// DefaultChunkOverlap is the default number of characters shared by consecutive chunks.
	DefaultChunkOverlap = 128
	// DefaultMinChunkSize is the size below which trailing chunks are discarded.
	DefaultMinChunkSize = 100
	// DefaultMaxChunkSize is the size at which paragraph packing flushes.
	DefaultMaxChunkSize = 1024
)

// Config controls how text is split. Sizes are measured in characters (runes).
type Config struct {
	ChunkSize    int
	ChunkOverlap int
	// PreserveSentences is accepted for configuration compatibility and
	// currently has no effect.
	PreserveSentences  bool
	PreserveParagraphs bool
	MinChunkSize       int
	MaxChunkSize       int
}

// DefaultConfig returns the default chunking configuration.
func DefaultConfig() Config {
	return Config{
		ChunkSize:          DefaultChunkSize,
		ChunkOverlap:       DefaultChunkOverlap,
		PreserveSentences:  true,
		PreserveParagraphs: true,
		MinChunkSize:       DefaultMinChunkSize,
		MaxChunkSize:       DefaultMaxChunkSize,
	}
}

// Normalize returns a copy of c with out-of-range values replaced.
func (c Config) Normalize() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.ChunkOverlap < 0 {
		c.ChunkOverlap = 0
	}
	if c.ChunkOverlap >= c.ChunkSize {
		c.ChunkOverlap = c.ChunkSize / 4
	}
	if c.MinChunkSize < 0 {
		c.MinChunkSize = 0
	}
	if c.MinChunkSize > c.ChunkSize {
		c.MinChunkSize = c.ChunkSize
	}
	if c.MaxChunkSize <= 0 {
		c.MaxChunkSize = DefaultMaxChunkSize
	}
	if c.MaxChunkSize < c.MinChunkSize {
		c.MaxChunkSize = c.MinChunkSize
	}
	return c
}

// Chunker splits text according to a Config. It holds no mutable state and
// is safe for concurrent use.
type Chunker struct {
	cfg    Config
	logger *slog.Logger
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithLogger sets the logger. A nil logger falls back to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chunker) {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger.With("component", "chunker")
	}
}

// New creates a Chunker. The configuration is normalized first.
func New(cfg Config, opts ...Option) *Chunker {
	c := &Chunker{
		cfg:    cfg.Normalize(),
		logger: slog.Default().With("component", "chunker"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the effective configuration.
func (c *Chunker) Config() Config {
	return c.cfg
}

// Chunk splits content into ordered chunks.
func (c *Chunker) Chunk(content string) []core.Chunk {
	if isBlank(content) {
		return nil
	}

	var spans []span
	for _, sec := range detectSections(content) {
		if sec.start >= sec.end {
			continue
		}
		if c.cfg.PreserveParagraphs {
			spans = append(spans, c.packParagraphs(content, sec)...)
		} else {
			spans = append(spans, c.slideWindow(content, sec)...)
		}
	}

	if len(spans) == 0 {
		// Only headings, no body text.
		s, e := trimSpan(content, 0, len(content))
		title := ""
		if secs := detectSections(content); len(secs) > 0 {
			title = secs[0].title
		}
		spans = append(spans, span{start: s, end: e, title: title})
	}

	chunks := make([]core.Chunk, len(spans))
	for i, sp := range spans {
		chunks[i] = core.Chunk{
			ID:           core.ChunkID(sp.start, sp.end, sp.title),
			Index:        i,
			Content:      content[sp.start:sp.end],
			StartPos:     sp.start,
			EndPos:       sp.end,
			SectionTitle: sp.title,
		}
	}

	c.logger.Debug("chunked content", "bytes", len(content), "chunks", len(chunks))
	return chunks
}

type span struct {
	start int
	end   int
	title string
}

func (c *Chunker) packParagraphs(content string, sec section) []span {
	paras := paragraphs(content, sec.start, sec.end)
	if len(paras) == 0 {
		return nil
	}

	var out []span
	emit := func(start, end int) {
		if s, e := trimSpan(content, start, end); s < e {
			out = append(out, span{start: s, end: e, title: sec.title})
		}
	}

	bufStart, bufEnd := paras[0][0], paras[0][1]
	for _, p := range paras[1:] {
		if utf8.RuneCountInString(content[bufStart:p[1]]) > c.cfg.MaxChunkSize {
			emit(bufStart, bufEnd)
			bufStart = backRunes(content, bufEnd, bufStart, c.cfg.ChunkOverlap)
		}
		bufEnd = p[1]
	}

	s, e := trimSpan(content, bufStart, bufEnd)
	if s < e && (len(out) == 0 || utf8.RuneCountInString(content[s:e]) >= c.cfg.MinChunkSize) {
		out = append(out, span{start: s, end: e, title: sec.title})
	}
	return out
}

func (c *Chunker) slideWindow(content string, sec section) []span {
	// Byte offset of every rune boundary in the section, plus the end.
	bounds := make([]int, 0, sec.end-sec.start+1)
	for i := range content[sec.start:sec.end] {
		bounds = append(bounds, sec.start+i)
	}
	n := len(bounds)
	bounds = append(bounds, sec.end)

	stride := c.cfg.ChunkSize - c.cfg.ChunkOverlap
	if stride < 1 {
		stride = 1
	}

	var out []span
	for first := 0; first < n; first += stride {
		last := min(first+c.cfg.ChunkSize, n)
		s, e := trimSpan(content, bounds[first], bounds[last])
		only := first == 0 && last == n
		if s < e && (only || utf8.RuneCountInString(content[s:e]) >= c.cfg.MinChunkSize) {
			out = append(out, span{start: s, end: e, title: sec.title})
		}
		if last == n {
			break
		}
	}
	return out
}

// backRunes steps n runes back from pos without crossing floor.
func backRunes(content string, pos, floor, n int) int {
	for n > 0 && pos > floor {
		_, size := utf8.DecodeLastRuneInString(content[floor:pos])
		pos -= size
		n--
	}
	return pos
}
