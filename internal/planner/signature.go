package planner

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/roach88/alan/internal/axis"
)

// DomainPlan separates plan signatures from any other hash in the system.
// The version suffix allows future encoding changes.
const DomainPlan = "alan/plan/v1"

// incidence is the identity-free shape of a Problem.
type incidence struct {
	Sizes     []int   `json:"sizes"`
	Inputs    [][]int `json:"inputs"`
	Eliminate []int   `json:"eliminate"`
}

// Signature returns a stable hash of p's axis incidence: axis sizes, which
// input carries which axis, and which axes are eliminated. Axis identities
// and labels do not contribute, so two structurally identical problems built
// from fresh axes share a signature and may share a path.
func Signature(p Problem) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	index := make(map[*axis.Axis]int)
	var inc incidence
	number := func(a *axis.Axis) int {
		if i, ok := index[a]; ok {
			return i
		}
		index[a] = len(inc.Sizes)
		inc.Sizes = append(inc.Sizes, a.Size())
		return index[a]
	}

	inc.Inputs = make([][]int, len(p.Inputs))
	for i, in := range p.Inputs {
		ids := make([]int, len(in))
		for j, a := range in {
			ids[j] = number(a)
		}
		inc.Inputs[i] = ids
	}
	inc.Eliminate = make([]int, 0, len(p.Eliminate))
	for _, a := range p.Eliminate {
		inc.Eliminate = append(inc.Eliminate, number(a))
	}
	slices.Sort(inc.Eliminate)

	data, err := json.Marshal(inc)
	if err != nil {
		return "", fmt.Errorf("signature: %w", err)
	}
	return hashWithDomain(DomainPlan, data), nil
}

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
