package eval

import (
	"strings"

	"kgbridge/internal/kg"
	"kgbridge/internal/relational"
)

// EdgeMatching selects how graph edges are attributed to a foreign key.
type EdgeMatching int

const (
	// MatchPrefix counts an edge when its endpoint node-ID prefixes match
	// the child/parent tables in either direction. This tolerates either
	// relationship direction but can conflate labels where one is a
	// prefix of another (e.g. "Car" and "Card_Holder"). It is the
	// documented legacy behavior, kept as the default.
	MatchPrefix EdgeMatching = iota
	// MatchExact counts an edge only when the endpoint labels, recovered
	// from the synthetic "{label}_{index}" IDs, equal the child and
	// parent tables in the declared direction.
	MatchExact
)

// RelationshipResult is the per-foreign-key completeness result.
// Expected counts child rows whose FK is resolvable (present, non-null,
// and matching a parent value); dangling references can never produce an
// edge, so they are excluded. NullFK is purely diagnostic.
type RelationshipResult struct {
	Expected int     `json:"expected"`
	Actual   int     `json:"actual"`
	NullFK   int     `json:"null_fk"`
	RC       float64 `json:"rc"`
}

// RelationshipCompleteness is the full relationship-completeness report
// for one database. PerRelationship is keyed "{parent}_{child}"; when two
// foreign keys link the same table pair (say flight.src_airport and
// flight.dst_airport to airport), the later one overwrites the earlier
// entry. TotalExpected/TotalActual still accumulate every foreign key.
type RelationshipCompleteness struct {
	PerRelationship map[string]RelationshipResult `json:"per_relationship"`
	TotalExpected   int                           `json:"total_expected"`
	TotalActual     int                           `json:"total_actual"`
	RC              float64                       `json:"rc"`
}

// EvalRelationshipCompleteness evaluates with the default prefix matching.
func EvalRelationshipCompleteness(fks []relational.ForeignKey, data relational.TableData, edges []kg.Edge) RelationshipCompleteness {
	return EvalRelationshipCompletenessMode(fks, data, edges, MatchPrefix)
}

// EvalRelationshipCompletenessMode evaluates each foreign key: the
// theoretically realizable edge count from the relational data versus the
// edge count present in the graph. No foreign keys yields empty results
// and an aggregate of 0, never an error.
func EvalRelationshipCompletenessMode(fks []relational.ForeignKey, data relational.TableData, edges []kg.Edge, mode EdgeMatching) RelationshipCompleteness {
	result := RelationshipCompleteness{
		PerRelationship: make(map[string]RelationshipResult, len(fks)),
	}

	for _, fk := range fks {
		parentValues := make(map[any]struct{})
		for _, row := range data[fk.ParentTable] {
			if v, ok := row[fk.ParentColumn]; ok && relational.IsScalar(v) {
				parentValues[v] = struct{}{}
			}
		}

		var rel RelationshipResult
		for _, row := range data[fk.FromTable] {
			v, present := row[fk.FromColumn]
			if !present {
				continue
			}
			if v == nil {
				rel.NullFK++
				continue
			}
			if !relational.IsScalar(v) {
				continue
			}
			if _, ok := parentValues[v]; ok {
				rel.Expected++
			}
		}

		for _, edge := range edges {
			if edgeMatches(edge, fk.FromTable, fk.ParentTable, mode) {
				rel.Actual++
			}
		}

		if rel.Expected > 0 {
			rel.RC = float64(rel.Actual) / float64(rel.Expected)
		}

		result.PerRelationship[fk.ParentTable+"_"+fk.FromTable] = rel
		result.TotalExpected += rel.Expected
		result.TotalActual += rel.Actual
	}

	if result.TotalExpected > 0 {
		result.RC = float64(result.TotalActual) / float64(result.TotalExpected)
	}
	return result
}

func edgeMatches(edge kg.Edge, child, parent string, mode EdgeMatching) bool {
	switch mode {
	case MatchExact:
		return nodeLabel(edge.Source) == child && nodeLabel(edge.Target) == parent
	default:
		return (strings.HasPrefix(edge.Source, child) && strings.HasPrefix(edge.Target, parent)) ||
			(strings.HasPrefix(edge.Source, parent) && strings.HasPrefix(edge.Target, child))
	}
}

// nodeLabel recovers the label from a synthetic "{label}_{index}" node ID.
func nodeLabel(id string) string {
	if i := strings.LastIndex(id, "_"); i >= 0 {
		return id[:i]
	}
	return id
}
