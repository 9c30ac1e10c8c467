// Package hierarchy aggregates the top-N countries for a metric into a
// continent → region → country tree and lays it out as a squarified
// treemap.
//
// Trees are rebuilt from scratch on every year, metric or top-N change.
// Continuity between frames comes from [Reconcile], which matches tiles by
// key and interpolates them with [Transition.At].
package hierarchy

import (
	"cmp"
	"math"
	"slices"

	"github.com/matzehuels/energyatlas/pkg/join"
)

// DefaultTopN is the number of countries shown when none is configured.
const DefaultTopN = 10

// Unknown names the continent and region of countries without metadata.
const Unknown = "Unknown"

// Node is a hierarchy node. Leaves carry a Value; inner nodes have
// Children and no Value.
type Node struct {
	Name     string   `json:"name"`
	Children []*Node  `json:"children,omitempty"`
	Value    *float64 `json:"value,omitempty"`
}

// IsLeaf reports whether n is a country.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Sum returns the total leaf value of the subtree.
func (n *Node) Sum() float64 {
	if n.Value != nil {
		return *n.Value
	}
	var s float64
	for _, c := range n.Children {
		s += c.Sum()
	}
	return s
}

// Leaves returns the leaves in depth-first order.
func (n *Node) Leaves() []*Node {
	if n.IsLeaf() {
		return []*Node{n}
	}
	var out []*Node
	for _, c := range n.Children {
		out = append(out, c.Leaves()...)
	}
	return out
}

// Coerce returns the metric of c, or 0 when it is absent or NaN.
func Coerce(c join.Country, metric string) float64 {
	v, ok := c.Value(metric)
	if !ok || math.IsNaN(v) {
		return 0
	}
	return v
}

// Rank returns the topN countries ordered by coerced metric value,
// descending. Ties keep input order. countries is not modified.
func Rank(countries []join.Country, metric string, topN int) []join.Country {
	if topN <= 0 {
		topN = DefaultTopN
	}
	ranked := slices.Clone(countries)
	slices.SortStableFunc(ranked, func(a, b join.Country) int {
		return cmp.Compare(Coerce(b, metric), Coerce(a, metric))
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// BuildHierarchy ranks countries by metric, keeps the top N and groups them
// by continent, then region, in order of first appearance. Only groups
// holding at least one selected country are created.
func BuildHierarchy(countries []join.Country, metric string, topN int) *Node {
	root := &Node{Name: "root"}
	continents := map[string]*Node{}
	regions := map[[2]string]*Node{}

	for _, c := range Rank(countries, metric, topN) {
		continent, region := c.Continent, c.Region
		if continent == "" {
			continent = Unknown
		}
		if region == "" {
			region = Unknown
		}

		cn, ok := continents[continent]
		if !ok {
			cn = &Node{Name: continent}
			continents[continent] = cn
			root.Children = append(root.Children, cn)
		}
		rk := [2]string{continent, region}
		rn, ok := regions[rk]
		if !ok {
			rn = &Node{Name: region}
			regions[rk] = rn
			cn.Children = append(cn.Children, rn)
		}
		v := Coerce(c, metric)
		rn.Children = append(rn.Children, &Node{Name: c.Name, Value: &v})
	}
	return root
}
