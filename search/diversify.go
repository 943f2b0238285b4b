package search

import "github.com/poiesic/stoa/core"

// diversify caps per-source representation in the top-K with backfill.
// Items are admitted in rank order while their source stays under the soft
// cap; cap-exceeding items are collected in rank order and backfill the
// result when diversity alone cannot reach topK. Output length is always
// min(topK, len(ranked)) and relative rank order is preserved.
func diversify(ranked []*core.RankedEntry, topK, softCap int) []*core.RankedEntry {
	if topK <= 0 {
		return nil
	}
	if softCap <= 0 {
		softCap = 1
	}

	admitted := make([]*core.RankedEntry, 0, topK)
	var overflow []*core.RankedEntry
	perSource := make(map[core.Source]int)

	for _, item := range ranked {
		if len(admitted) >= topK {
			break
		}
		source := item.Entry.Key.Source
		if perSource[source] < softCap {
			perSource[source]++
			admitted = append(admitted, item)
		} else {
			overflow = append(overflow, item)
		}
	}

	for _, item := range overflow {
		if len(admitted) >= topK {
			break
		}
		admitted = append(admitted, item)
	}

	return admitted
}
