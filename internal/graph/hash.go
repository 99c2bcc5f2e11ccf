package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Hash returns a stable digest of the snapshot. It covers every attribute
// analysis results depend on, task statuses included, so two graphs with
// equal hashes are interchangeable for Analyze, ReadyTasks and
// SuggestOrdering.
func (g *Graph) Hash() string {
	h := sha256.New()

	writeField := func(data []byte) {
		length := uint64(len(data))
		h.Write([]byte{
			byte(length >> 56), byte(length >> 48), byte(length >> 40), byte(length >> 32),
			byte(length >> 24), byte(length >> 16), byte(length >> 8), byte(length),
		})
		h.Write(data)
	}

	writeField([]byte(strconv.Itoa(len(g.nodes))))
	for _, n := range g.nodes {
		writeField([]byte(n.ID))
		writeField([]byte(n.Status))
		writeField([]byte(n.Priority))
		writeField([]byte(n.Complexity))
		if n.EstimatedHours != nil {
			writeField([]byte(strconv.FormatFloat(*n.EstimatedHours, 'g', -1, 64)))
		} else {
			writeField(nil)
		}
		writeField([]byte(n.Assignee))
	}

	writeField([]byte(strconv.Itoa(len(g.edges))))
	for i, e := range g.edges {
		writeField([]byte(strconv.Itoa(e.from)))
		writeField([]byte(strconv.Itoa(e.to)))
		writeField([]byte(strconv.FormatFloat(g.weights[i], 'g', -1, 64)))
	}

	return hex.EncodeToString(h.Sum(nil))
}
