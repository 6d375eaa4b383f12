// Package triangle discovers cyclic 3-leg trading paths over a
// catalog.Catalog and indexes them by symbol for O(1) lookup on tick.
// Grounded on the directed-graph enumeration spec component 4.3
// describes; there is no direct teacher analog for cycle enumeration,
// so the walk is hand-rolled from the BFS/DFS-over-adjacency style
// AlejandroRuiz99-polybot uses elsewhere (e.g. its market/reward
// indexing loops in internal/application/scanner/analyzer.go) rather
// than imported from a graph library — no example repo in the corpus
// carries one.
package triangle

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/triarb/triarb/internal/catalog"
	"github.com/triarb/triarb/internal/domain"
)

// Catalog is the frozen, immutable result of one discovery pass,
// indexed by symbol for the detector's O(1) lookup on tick.
type Catalog struct {
	paths       []*domain.TrianglePath
	bySymbol    map[string][]*domain.TrianglePath
}

// Discover enumerates simple length-3 cycles starting and ending at
// base, up to maxTriangles, deduplicated by unordered middle-pair.
func Discover(cat *catalog.Catalog, base string, maxTriangles int) *Catalog {
	result := &Catalog{bySymbol: make(map[string][]*domain.TrianglePath)}
	if maxTriangles <= 0 {
		return result
	}
	seenMiddlePairs := make(map[string]bool)

	for _, e1 := range cat.Neighbors(base) {
		m1 := e1.To
		if m1 == base {
			continue
		}
		for _, e2 := range cat.Neighbors(m1) {
			m2 := e2.To
			if m2 == base || m2 == m1 {
				continue
			}
			// Check there is an edge m2 -> base closing the cycle.
			var closing *catalog.Edge
			for _, e3 := range cat.Neighbors(m2) {
				if e3.To == base {
					c := e3
					closing = &c
					break
				}
			}
			if closing == nil {
				continue
			}

			key := middlePairKey(m1, m2)
			if seenMiddlePairs[key] {
				continue
			}
			seenMiddlePairs[key] = true

			path := buildPath(base, e1, e2, *closing)
			result.paths = append(result.paths, path)
			for sym := range path.Symbols {
				result.bySymbol[sym] = append(result.bySymbol[sym], path)
			}

			if len(result.paths) >= maxTriangles {
				return result
			}
		}
	}

	return result
}

func middlePairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "/" + b
}

func buildPath(base string, e1, e2, e3 catalog.Edge) *domain.TrianglePath {
	legs := [3]domain.TriangleLeg{
		{Symbol: e1.Symbol, Side: e1.Side, FromAsset: e1.From, ToAsset: e1.To},
		{Symbol: e2.Symbol, Side: e2.Side, FromAsset: e2.From, ToAsset: e2.To},
		{Symbol: e3.Symbol, Side: e3.Side, FromAsset: e3.From, ToAsset: e3.To},
	}
	symbols := map[string]struct{}{
		legs[0].Symbol: {},
		legs[1].Symbol: {},
		legs[2].Symbol: {},
	}
	return &domain.TrianglePath{
		ID:        uuid.New().String(),
		BaseAsset: base,
		Legs:      legs,
		Symbols:   symbols,
	}
}

// Paths returns every discovered triangle.
func (c *Catalog) Paths() []*domain.TrianglePath {
	return c.paths
}

// ForSymbol returns the triangles touching symbol, for O(1) lookup on
// tick.
func (c *Catalog) ForSymbol(symbol string) []*domain.TrianglePath {
	return c.bySymbol[symbol]
}

// exportLeg and exportPath mirror the optional JSON export shape from
// spec section 6: { id, base_asset, legs: [{symbol, side, from, to}] }.
type exportLeg struct {
	Symbol string `json:"symbol"`
	Side   string `json:"side"`
	From   string `json:"from"`
	To     string `json:"to"`
}

type exportPath struct {
	ID        string      `json:"id"`
	BaseAsset string      `json:"base_asset"`
	Legs      []exportLeg `json:"legs"`
}

// MarshalJSON exports the catalog in the spec's documented shape.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	out := make([]exportPath, 0, len(c.paths))
	for _, p := range c.paths {
		legs := make([]exportLeg, 0, 3)
		for _, l := range p.Legs {
			legs = append(legs, exportLeg{Symbol: l.Symbol, Side: string(l.Side), From: l.FromAsset, To: l.ToAsset})
		}
		out = append(out, exportPath{ID: p.ID, BaseAsset: p.BaseAsset, Legs: legs})
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds a Catalog from its exported form, re-deriving
// the by-symbol index.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	var in []exportPath
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("triangle: unmarshal catalog: %w", err)
	}

	c.paths = nil
	c.bySymbol = make(map[string][]*domain.TrianglePath)

	for _, p := range in {
		if len(p.Legs) != 3 {
			return fmt.Errorf("triangle: path %s has %d legs, want 3", p.ID, len(p.Legs))
		}
		var legs [3]domain.TriangleLeg
		symbols := make(map[string]struct{}, 3)
		for i, l := range p.Legs {
			legs[i] = domain.TriangleLeg{Symbol: l.Symbol, Side: domain.Side(l.Side), FromAsset: l.From, ToAsset: l.To}
			symbols[l.Symbol] = struct{}{}
		}
		path := &domain.TrianglePath{ID: p.ID, BaseAsset: p.BaseAsset, Legs: legs, Symbols: symbols}
		c.paths = append(c.paths, path)
		for sym := range symbols {
			c.bySymbol[sym] = append(c.bySymbol[sym], path)
		}
	}

	return nil
}
