package planner

import (
	"strings"

	"github.com/driftdata/drift/sql"
	"github.com/driftdata/drift/sql/parser"
	"github.com/driftdata/drift/sql/planner/types"
)

// resolveCall picks the overload of a function for a list of bound
// arguments. Candidates that would need a lossy conversion are discarded;
// of the rest, the one with the fewest total coercions wins, with ties
// broken by declaration order. Two surviving candidates with identical
// parameter lists make the call ambiguous. Arguments that need widening
// come back wrapped in implicit casts.
func (p *StatementPlanner) resolveCall(name string, pos parser.Pos, args ...types.PlanExpression) (*sql.FunctionSignature, []types.PlanExpression, error) {
	name = strings.ToLower(name)
	signatures := p.functions.SignaturesFor(name)
	if signatures == nil {
		return nil, nil, sql.NewErrCallUnknownFunction(pos.Line, pos.Column, name)
	}

	candidates := make([]*sql.FunctionSignature, 0, len(signatures))
	for i := range signatures {
		if len(signatures[i].ParamTypes) == len(args) {
			candidates = append(candidates, &signatures[i])
		}
	}
	if len(candidates) == 0 {
		return nil, nil, sql.NewErrCallParameterCountMismatch(pos.Line, pos.Column, name, len(signatures[0].ParamTypes), len(args))
	}

	best := -1
	bestCost := -1
	ambiguous := false
	for i, candidate := range candidates {
		total := 0
		viable := true
		for j, arg := range args {
			cost := coercionCost(arg.Type(), candidate.ParamTypes[j])
			if cost < 0 {
				viable = false
				break
			}
			total += cost
		}
		if !viable {
			continue
		}
		switch {
		case best < 0 || total < bestCost:
			best = i
			bestCost = total
			ambiguous = false
		case total == bestCost:
			// a same-cost duplicate only matters when the parameter
			// lists are indistinguishable; otherwise the earlier
			// declaration wins
			if sameParamTypes(candidates[best], candidate) {
				ambiguous = true
			}
		}
	}
	if best < 0 {
		return nil, nil, sql.NewErrCallParameterTypeMismatch(pos.Line, pos.Column, name, describeArgTypes(args))
	}
	if ambiguous {
		return nil, nil, sql.NewErrAmbiguousFunctionCall(pos.Line, pos.Column, name)
	}

	chosen := candidates[best]
	coerced := make([]types.PlanExpression, len(args))
	for j, arg := range args {
		if arg.Type().TypeDescription() == chosen.ParamTypes[j].TypeDescription() {
			coerced[j] = arg
		} else {
			coerced[j] = newCastPlanExpression(arg, chosen.ParamTypes[j], true)
		}
	}
	return chosen, coerced, nil
}

func sameParamTypes(a *sql.FunctionSignature, b *sql.FunctionSignature) bool {
	if len(a.ParamTypes) != len(b.ParamTypes) {
		return false
	}
	for i := range a.ParamTypes {
		if a.ParamTypes[i].TypeDescription() != b.ParamTypes[i].TypeDescription() {
			return false
		}
	}
	return true
}

func describeArgTypes(args []types.PlanExpression) string {
	descs := make([]string, len(args))
	for i, a := range args {
		descs[i] = a.Type().TypeDescription()
	}
	return "(" + strings.Join(descs, ", ") + ")"
}
