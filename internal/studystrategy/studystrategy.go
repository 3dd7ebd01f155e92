// Package studystrategy implements the completion predicate and
// result-extraction rule for a study. Two variants are implemented
// (AllCalculation, FindExact); a third ("minimize") is a declared but
// unimplemented schema variant rejected at construction.
package studystrategy

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	lderrors "github.com/atsuhiron/lite-dist2-go/internal/errors"
	"github.com/atsuhiron/lite-dist2-go/internal/space"
	"github.com/atsuhiron/lite-dist2-go/internal/trial"
	"github.com/atsuhiron/lite-dist2-go/internal/value"
)

// Kind is the study strategy's wire discriminator.
type Kind string

const (
	AllCalculation Kind = "all_calculation"
	FindExact      Kind = "find_exact"
	Minimize       Kind = "minimize"
)

// Strategy is the narrow contract Study needs from a study strategy.
type Strategy interface {
	Kind() Kind
	IsDone(table *trial.Table) bool
	ExtractMappings(table *trial.Table) []trial.Mapping
	CanMerge() bool
}

// AllCalculationStrategy is done once the trial table's aggregated
// coverage equals the parameter space's total element count; it never
// completes for a semi-infinite space. Merging completed regions together
// is always permitted since every mapping is kept.
type AllCalculationStrategy struct {
	ParameterSpace *space.AlignedSpace
}

func (s *AllCalculationStrategy) Kind() Kind { return AllCalculation }

func (s *AllCalculationStrategy) IsDone(table *trial.Table) bool {
	total, infinite := s.ParameterSpace.Total()
	if infinite {
		return false
	}
	return table.CountGrid() == total
}

// ExtractMappings concatenates every completed trial's mappings in
// trial-issuance order.
func (s *AllCalculationStrategy) ExtractMappings(table *trial.Table) []trial.Mapping {
	var out []trial.Mapping
	for _, t := range table.Trials {
		if t.Status == trial.StatusDone {
			out = append(out, t.Result...)
		}
	}
	return out
}

func (s *AllCalculationStrategy) CanMerge() bool { return true }

// FindExactStrategy completes as soon as any completed mapping's result
// matches a target, either by bit-exact equality against a literal target
// value or by a compiled target_expr boolean expression. Ordering of
// mappings is meaningful here, so CanMerge reports false; the trial table
// does not consult CanMerge and folds completed regions for every strategy.
type FindExactStrategy struct {
	Target     *trial.Mapping // literal target; nil when TargetExpr is used
	TargetExpr *vm.Program
}

// NewFindExactByValue builds a FindExactStrategy matching a literal
// scalar/vector target value.
func NewFindExactByValue(target trial.Mapping) *FindExactStrategy {
	return &FindExactStrategy{Target: &target}
}

// NewFindExactByExpr compiles the target_expr source once, at
// registration time, failing with ParameterError on a bad expression.
func NewFindExactByExpr(source string) (*FindExactStrategy, error) {
	program, err := expr.Compile(source, expr.AsBool())
	if err != nil {
		return nil, lderrors.NewParameterError(fmt.Sprintf("invalid target_expr: %v", err))
	}
	return &FindExactStrategy{TargetExpr: program}, nil
}

func (s *FindExactStrategy) Kind() Kind { return FindExact }

func (s *FindExactStrategy) matches(m trial.Mapping) bool {
	if s.TargetExpr != nil {
		vars := exprVars(m)
		out, err := expr.Run(s.TargetExpr, vars)
		if err != nil {
			return false
		}
		ok, _ := out.(bool)
		return ok
	}
	return s.Target != nil && m.ResultEqual(*s.Target)
}

func (s *FindExactStrategy) IsDone(table *trial.Table) bool {
	for _, t := range table.Trials {
		if t.Status != trial.StatusDone {
			continue
		}
		for _, m := range t.Result {
			if s.matches(m) {
				return true
			}
		}
	}
	return false
}

func (s *FindExactStrategy) ExtractMappings(table *trial.Table) []trial.Mapping {
	var out []trial.Mapping
	for _, t := range table.Trials {
		if t.Status != trial.StatusDone {
			continue
		}
		for _, m := range t.Result {
			if s.matches(m) {
				out = append(out, m)
			}
		}
	}
	return out
}

func (s *FindExactStrategy) CanMerge() bool { return false }

// exprVars exposes a mapping's decoded result to the expr VM: "result" is
// the scalar (or, for a vector result, "result" is a []any of scalars) so
// target_expr sources can write e.g. `result > 0.5` or `result[0] == 1`.
func exprVars(m trial.Mapping) map[string]any {
	if m.Shape == trial.ResultVector {
		items := make([]any, len(m.Vector.Items))
		for i, it := range m.Vector.Items {
			items[i] = scalarGoValue(it)
		}
		return map[string]any{"result": items}
	}
	return map[string]any{"result": scalarGoValue(m.Scalar)}
}

func scalarGoValue(s value.Scalar) any {
	switch s.Type {
	case value.Bool:
		return s.Bool
	case value.Int:
		return s.Int
	case value.Float:
		return s.Float
	default:
		return nil
	}
}

// ParseKind validates a wire strategy discriminator. "minimize" is a
// known-but-unimplemented variant and is rejected with TypeError rather
// than UndefinedError.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case AllCalculation, FindExact:
		return Kind(s), nil
	case Minimize:
		return "", lderrors.NewTypeError("unknown study strategy")
	default:
		return "", lderrors.NewUndefinedError("study_strategy", s)
	}
}
