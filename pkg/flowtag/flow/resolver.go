package flow

import (
	"sort"

	"go.uber.org/zap"

	"github.com/cognicore/flowtag/internal/logger"
	"github.com/cognicore/flowtag/pkg/flowtag/ontology"
)

// Resolver nominates candidate flows for a tag set.
type Resolver struct {
	mapping *ontology.MappingTable
	log     *zap.SugaredLogger
}

// NewResolver creates a resolver over a mapping table.
func NewResolver(mapping *ontology.MappingTable) *Resolver {
	return &Resolver{
		mapping: mapping,
		log:     logger.ComponentLogger("flow.resolver"),
	}
}

// Candidates returns one unscored candidate per flow nominated by any tag,
// sorted by flow name. Tags without a reverse-index entry are skipped.
func (r *Resolver) Candidates(tags []string) []Candidate {
	present := canonicalSet(tags)
	if len(present) == 0 {
		return nil
	}

	nominated := make(map[string]struct{})
	for tag := range present {
		flows := r.mapping.FlowsFor(tag)
		if len(flows) == 0 {
			r.log.Debugw("tag has no mapping", logger.FieldTag, tag)
			continue
		}
		for _, f := range flows {
			nominated[f] = struct{}{}
		}
	}

	names := make([]string, 0, len(nominated))
	for f := range nominated {
		names = append(names, f)
	}
	sort.Strings(names)

	out := make([]Candidate, 0, len(names))
	for _, name := range names {
		rule, ok := r.mapping.Rule(name)
		if !ok {
			continue
		}
		_, direct := present[ontology.Canonical(name)]
		out = append(out, Candidate{
			Flow:        name,
			Analysis:    analyze(rule, present),
			DirectMatch: direct,
		})
	}
	return out
}

func analyze(rule ontology.FlowRule, present map[string]struct{}) Analysis {
	a := Analysis{
		IncludeAllOf: newSegment(rule.IncludeAllOf, present),
		IncludeOneOf: newSegment(rule.IncludeOneOf, present),
		ExcludeAllOf: newSegment(rule.ExcludeAllOf, present),
		ExcludeOneOf: newSegment(rule.ExcludeOneOf, present),
		Exclusive:    Exclusive{Required: rule.Exclusive},
		Flags:        Flags{Deduction: rule.Deduction},
	}

	vocab := make(map[string]struct{})
	for _, tag := range rule.Vocabulary() {
		vocab[tag] = struct{}{}
	}
	a.Exclusive.Matched = true
	for tag := range present {
		if _, ok := vocab[tag]; !ok {
			a.Exclusive.Matched = false
			break
		}
	}

	for _, tag := range rule.Discriminatory {
		if _, ok := present[tag]; ok {
			a.Flags.Discriminatory++
		}
	}
	return a
}

func canonicalSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if c := ontology.Canonical(t); c != "" {
			set[c] = struct{}{}
		}
	}
	return set
}
