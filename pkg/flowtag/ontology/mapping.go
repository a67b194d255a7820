package ontology

import (
	"sort"
	"strings"

	"github.com/cognicore/flowtag/pkg/flowtag/internalerr"
)

// FlowRule is one row of the mapping table: the tag evidence that selects
// or rejects a flow.
type FlowRule struct {
	Name           string   `yaml:"name"`
	IncludeAllOf   []string `yaml:"include_all_of,omitempty"`
	IncludeOneOf   []string `yaml:"include_one_of,omitempty"`
	ExcludeAllOf   []string `yaml:"exclude_all_of,omitempty"`
	ExcludeOneOf   []string `yaml:"exclude_one_of,omitempty"`
	Exclusive      bool     `yaml:"exclusive,omitempty"`
	Deduction      float64  `yaml:"deduction,omitempty"`
	Discriminatory []string `yaml:"discriminatory,omitempty"`
}

// Vocabulary returns the canonical tags the flow includes.
func (r FlowRule) Vocabulary() []string {
	return uniqueSorted(append(append([]string{}, r.IncludeAllOf...), r.IncludeOneOf...))
}

// MappingTable is the forward flow → rule table plus its reverse index
// tag → candidate flows. It is immutable once built.
type MappingTable struct {
	rules   map[string]FlowRule
	order   []string
	reverse map[string][]string
}

// NewMappingTable canonicalizes every tag list and precomputes the reverse
// index. Each included tag, and the canonical flow name itself, nominates
// the flow. Exclusions never nominate.
func NewMappingTable(rules []FlowRule) (*MappingTable, error) {
	m := &MappingTable{
		rules:   make(map[string]FlowRule, len(rules)),
		reverse: make(map[string][]string),
	}
	for _, r := range rules {
		r.Name = strings.TrimSpace(r.Name)
		if r.Name == "" {
			return nil, internalerr.Malformed("flow rule with empty name")
		}
		if _, dup := m.rules[r.Name]; dup {
			return nil, internalerr.Malformed("duplicate flow %q", r.Name)
		}
		r.IncludeAllOf = canonicalAll(r.IncludeAllOf)
		r.IncludeOneOf = canonicalAll(r.IncludeOneOf)
		r.ExcludeAllOf = canonicalAll(r.ExcludeAllOf)
		r.ExcludeOneOf = canonicalAll(r.ExcludeOneOf)
		r.Discriminatory = canonicalAll(r.Discriminatory)

		m.rules[r.Name] = r
		m.order = append(m.order, r.Name)

		for _, tag := range append(r.Vocabulary(), Canonical(r.Name)) {
			m.reverse[tag] = appendUnique(m.reverse[tag], r.Name)
		}
	}
	for tag := range m.reverse {
		sort.Strings(m.reverse[tag])
	}
	return m, nil
}

// Rule returns the rule of a flow.
func (m *MappingTable) Rule(name string) (FlowRule, bool) {
	r, ok := m.rules[name]
	return r, ok
}

// FlowsFor returns the flows a tag nominates, sorted.
func (m *MappingTable) FlowsFor(tag string) []string {
	return m.reverse[Canonical(tag)]
}

// Rules returns the rules in load order.
func (m *MappingTable) Rules() []FlowRule {
	out := make([]FlowRule, len(m.order))
	for i, name := range m.order {
		out[i] = m.rules[name]
	}
	return out
}

// Len returns the number of flows.
func (m *MappingTable) Len() int { return len(m.order) }

func canonicalAll(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if c := Canonical(s); c != "" {
			out = append(out, c)
		}
	}
	return uniqueSorted(out)
}

func uniqueSorted(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := set[s]; ok {
			continue
		}
		set[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
