// Package chunker converts entity records into ordered, overlapping fragments.
package chunker

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/assetrag/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per fragment.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// boundaryRatio is how far into a window the last space must sit before
// the window is trimmed back to it.
const boundaryRatio = 0.8

// Processor splits entity records into fragments.
// It implements the driven.Chunker interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the fragment size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between fragments in characters.
// An overlap at or above the chunk size is accepted; splitting still
// advances by at least one character per window.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured fragment size.
func (p *Processor) ChunkSize() int { return p.chunkSize }

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int { return p.overlap }

// ChunkEntity serialises the entity and splits it into fragments with
// dense indices and deterministic IDs.
func (p *Processor) ChunkEntity(entity *domain.EntityRecord) []domain.Fragment {
	text := TextToSections(entity)
	parts := SplitIntoFragments(text, p.chunkSize, p.overlap)
	originalLength := len([]rune(text))

	fragments := make([]domain.Fragment, len(parts))
	for i, content := range parts {
		fragments[i] = domain.Fragment{
			ID:             domain.FragmentID(entity.ID, i),
			ParentID:       entity.ID,
			Index:          i,
			TotalForParent: len(parts),
			Content:        content,
			OriginalLength: originalLength,
		}
	}
	return fragments
}

// SplitIntoFragments cuts text into windows of chunkSize runes that
// advance by max(chunkSize-overlap, 1). A window that does not reach the
// end is trimmed back to its last space when that space lies past 80% of
// chunkSize. Fragments are whitespace-trimmed; empty ones are dropped.
func SplitIntoFragments(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	runes := []rune(text)
	n := len(runes)
	if n <= chunkSize {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}

	step := max(chunkSize-overlap, 1)
	threshold := int(float64(chunkSize) * boundaryRatio)

	fragments := make([]string, 0, n/step+1)
	for start := 0; start < n; start += step {
		end := min(start+chunkSize, n)
		window := runes[start:end]

		if end < n {
			if cut := lastSpace(window); cut > threshold {
				window = window[:cut]
			}
		}

		if s := strings.TrimSpace(string(window)); s != "" {
			fragments = append(fragments, s)
		}

		if end >= n {
			break
		}
	}
	return fragments
}

func lastSpace(r []rune) int {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i] == ' ' {
			return i
		}
	}
	return -1
}

// TextToSections renders the present fields of an entity as ordered,
// labelled lines. Absent fields are omitted.
func TextToSections(e *domain.EntityRecord) string {
	var b sectionWriter

	b.line("Name", e.Name)
	b.line("Symbol", e.Symbol)
	b.line("Description", e.Description)
	b.line("Network", e.Network)
	b.line("Contract Address", e.ContractAddress)
	if e.Decimals != nil {
		b.line("Decimals", strconv.Itoa(*e.Decimals))
	}
	b.money("Price", e.Price)
	b.money("Market Cap", e.MarketCap)
	b.money("24h Volume", e.Volume24h)
	if e.PriceChange24h != nil {
		b.line("24h Change", formatNumber(*e.PriceChange24h)+"%")
	}
	b.number("Total Supply", e.TotalSupply)
	b.number("Circulating Supply", e.CirculatingSupply)
	b.line("Website", e.Website)

	if len(e.Links) > 0 {
		labels := sortedKeys(e.Links)
		links := make([]string, 0, len(labels))
		for _, label := range labels {
			if url := e.Links[label]; url != "" {
				links = append(links, label+": "+url)
			}
		}
		b.line("Links", strings.Join(links, ", "))
	}

	b.line("Tags", strings.Join(nonEmpty(e.Tags), ", "))
	if e.LaunchDate != nil && !e.LaunchDate.IsZero() {
		b.line("Launch Date", e.LaunchDate.Format(time.DateOnly))
	}

	if a := e.Audit; a != nil {
		b.line("Audit Auditor", a.Auditor)
		b.line("Audit Status", a.Status)
		if a.Date != nil && !a.Date.IsZero() {
			b.line("Audit Date", a.Date.Format(time.DateOnly))
		}
		b.line("Audit Report", a.ReportURL)
	}

	if r := e.Risk; r != nil {
		b.line("Risk Level", r.Level)
		b.number("Risk Score", r.Score)
		b.line("Risk Factors", strings.Join(nonEmpty(r.Factors), ", "))
	}

	if an := e.Analytics; an != nil {
		if an.Holders != nil {
			b.line("Holders", strconv.FormatInt(*an.Holders, 10))
		}
		if an.Transactions24h != nil {
			b.line("24h Transactions", strconv.FormatInt(*an.Transactions24h, 10))
		}
		b.money("Liquidity", an.Liquidity)
	}

	for _, key := range sortedKeys(e.Extensions) {
		b.line(key, e.Extensions[key])
	}

	return b.String()
}

type sectionWriter struct {
	strings.Builder
}

func (w *sectionWriter) line(label, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	if w.Len() > 0 {
		w.WriteByte('\n')
	}
	w.WriteString(label)
	w.WriteString(": ")
	w.WriteString(value)
}

func (w *sectionWriter) money(label string, v *float64) {
	if v != nil {
		w.line(label, "$"+formatNumber(*v))
	}
}

func (w *sectionWriter) number(label string, v *float64) {
	if v != nil {
		w.line(label, formatNumber(*v))
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
