// Package telemetry provides window statistics, perf timing, bookmarks,
// snapshots and CSV output for simulation runs.
package telemetry

import (
	"strconv"
	"strings"
)

// ReactionRecord is one fired reaction, flattened for reactions.csv.
type ReactionRecord struct {
	Tick       int64  `csv:"tick"`
	Rule       int    `csv:"rule"`
	Equation   string `csv:"equation"`
	ReactantA  uint64 `csv:"reactant_a"`
	ReactantB  uint64 `csv:"reactant_b"`
	ProductIDs string `csv:"product_ids"` // space separated
}

// NewReactionRecord creates a reaction record.
func NewReactionRecord(tick int64, rule int, equation string, reactants [2]uint64, products []uint64) ReactionRecord {
	ids := make([]string, len(products))
	for i, id := range products {
		ids[i] = strconv.FormatUint(id, 10)
	}
	return ReactionRecord{
		Tick:       tick,
		Rule:       rule,
		Equation:   equation,
		ReactantA:  reactants[0],
		ReactantB:  reactants[1],
		ProductIDs: strings.Join(ids, " "),
	}
}

// CountRecord is one species population sample in long format.
type CountRecord struct {
	Tick    int64  `csv:"tick"`
	Species string `csv:"species"`
	Count   int    `csv:"count"`
}

// CountRecords flattens a count map in the given species order.
func CountRecords(tick int64, order []string, counts map[string]int) []CountRecord {
	out := make([]CountRecord, len(order))
	for i, id := range order {
		out[i] = CountRecord{Tick: tick, Species: id, Count: counts[id]}
	}
	return out
}
