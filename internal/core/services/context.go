package services

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/assetrag/internal/core/domain"
)

// NoRelevantInformation is returned by AssembleContext for an empty result set.
const NoRelevantInformation = "No relevant information found."

const blockSeparator = "\n\n"

// AssembleContext packs ranked fragments into at most maxLength runes.
//
// Results are grouped by parent in order of first appearance and each
// group is restored to reading order. A group becomes a block headed
// "--- <Name> (<Symbol>) ---" followed by whole fragments, one per line,
// added while the running total stays within maxLength. A group whose
// block overflows even without fragments is dropped and ends assembly.
func AssembleContext(results []domain.SimilarityResult, maxLength int) string {
	if len(results) == 0 {
		return NoRelevantInformation
	}

	order := make([]string, 0)
	groups := make(map[string][]domain.SimilarityResult)
	for _, r := range results {
		pid := r.Metadata.ParentID
		if _, ok := groups[pid]; !ok {
			order = append(order, pid)
		}
		groups[pid] = append(groups[pid], r)
	}

	var blocks []string
	total := 0
	for _, pid := range order {
		fragments := groups[pid]
		sort.SliceStable(fragments, func(i, j int) bool {
			return fragments[i].Metadata.Index < fragments[j].Metadata.Index
		})

		sep := 0
		if len(blocks) > 0 {
			sep = utf8.RuneCountInString(blockSeparator)
		}

		var b strings.Builder
		header := blockHeader(fragments[0].Metadata)
		b.WriteString(header)
		blockLen := utf8.RuneCountInString(header)

		for _, f := range fragments {
			n := 1 + utf8.RuneCountInString(f.Content)
			if total+sep+blockLen+n > maxLength {
				break
			}
			b.WriteByte('\n')
			b.WriteString(f.Content)
			blockLen += n
		}

		if total+sep+blockLen > maxLength {
			break
		}
		blocks = append(blocks, b.String())
		total += sep + blockLen
	}

	return strings.Join(blocks, blockSeparator)
}

func blockHeader(m domain.FragmentMetadata) string {
	name := m.ParentName
	if name == "" {
		name = m.ParentID
	}
	return "--- " + name + " (" + m.Symbol + ") ---"
}
