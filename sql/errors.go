package sql

import (
	"fmt"
	"runtime"

	"github.com/driftdata/drift/errors"
)

const (
	ErrInternal errors.Code = "ErrInternal"

	// name resolution errors
	ErrUnknownReference   errors.Code = "ErrUnknownReference"
	ErrAmbiguousReference errors.Code = "ErrAmbiguousReference"
	ErrTableNotFound      errors.Code = "ErrTableNotFound"
	ErrDuplicateColumn    errors.Code = "ErrDuplicateColumn"
	ErrDuplicateAlias     errors.Code = "ErrDuplicateAlias"

	ErrColumnAliasCountMismatch errors.Code = "ErrColumnAliasCountMismatch"

	// view errors
	ErrCyclicViewReference errors.Code = "ErrCyclicViewReference"

	// type errors
	ErrTypeMismatch                           errors.Code = "ErrTypeMismatch"
	ErrTypeIncompatibleWithLogicalOperator    errors.Code = "ErrTypeIncompatibleWithLogicalOperator"
	ErrTypeIncompatibleWithEqualityOperator   errors.Code = "ErrTypeIncompatibleWithEqualityOperator"
	ErrTypeIncompatibleWithComparisonOperator errors.Code = "ErrTypeIncompatibleWithComparisonOperator"
	ErrTypeIncompatibleWithArithmeticOperator errors.Code = "ErrTypeIncompatibleWithArithmeticOperator"
	ErrTypeIncompatibleWithBitwiseOperator    errors.Code = "ErrTypeIncompatibleWithBitwiseOperator"
	ErrTypeIncompatibleWithConcatOperator     errors.Code = "ErrTypeIncompatibleWithConcatOperator"
	ErrTypeIncompatibleWithLikeOperator       errors.Code = "ErrTypeIncompatibleWithLikeOperator"
	ErrTypeIncompatibleWithBetweenOperator    errors.Code = "ErrTypeIncompatibleWithBetweenOperator"
	ErrBooleanExpressionExpected              errors.Code = "ErrBooleanExpressionExpected"
	ErrIntegerExpressionExpected              errors.Code = "ErrIntegerExpressionExpected"
	ErrSingleColumnExpected                   errors.Code = "ErrSingleColumnExpected"
	ErrUnknownType                            errors.Code = "ErrUnknownType"
	ErrInvalidCast                            errors.Code = "ErrInvalidCast"
	ErrIntegerLiteral                         errors.Code = "ErrIntegerLiteral"
	ErrTypeAssignmentIncompatible             errors.Code = "ErrTypeAssignmentIncompatible"

	// call errors
	ErrCallUnknownFunction        errors.Code = "ErrCallUnknownFunction"
	ErrCallParameterCountMismatch errors.Code = "ErrCallParameterCountMismatch"
	ErrAmbiguousFunctionCall      errors.Code = "ErrAmbiguousFunctionCall"

	// aggregate and window placement errors
	ErrMisplacedAggregate      errors.Code = "ErrMisplacedAggregate"
	ErrMisplacedWindowFunction errors.Code = "ErrMisplacedWindowFunction"

	// set operation errors
	ErrIncompatibleSetOperands errors.Code = "ErrIncompatibleSetOperands"

	// insert errors
	ErrInsertExprTargetCountMismatch errors.Code = "ErrInsertExprTargetCountMismatch"

	// planner limit errors
	ErrPlanTooDeep errors.Code = "ErrPlanTooDeep"

	ErrUnsupportedConstruct errors.Code = "ErrUnsupportedConstruct"
)

func NewErrInternal(msg string) error {
	preamble := "internal error"
	_, filename, line, ok := runtime.Caller(1)
	if ok {
		preamble = fmt.Sprintf("internal error (%s:%d)", filename, line)
	}
	errorMessage := fmt.Sprintf("%s %s", preamble, msg)
	return errors.New(
		ErrInternal,
		errorMessage,
	)
}

func NewErrInternalf(format string, a ...interface{}) error {
	preamble := "internal error"
	_, filename, line, ok := runtime.Caller(1)
	if ok {
		preamble = fmt.Sprintf("internal error (%s:%d)", filename, line)
	}
	errorMessage := fmt.Sprintf(format, a...)
	errorMessage = fmt.Sprintf("%s %s", preamble, errorMessage)
	return errors.New(
		ErrInternal,
		errorMessage,
	)
}

func NewErrUnknownReference(line int, col int, name string) error {
	return errors.New(
		ErrUnknownReference,
		fmt.Sprintf("[%d:%d] unknown column or alias '%s'", line, col, name),
	)
}

func NewErrInvalidUngroupedColumnReference(line int, col int, column string) error {
	return errors.New(
		ErrUnknownReference,
		fmt.Sprintf("[%d:%d] column '%s' must appear in the GROUP BY clause or be used in an aggregate function", line, col, column),
	)
}

func NewErrColumnAliasCountMismatch(line int, col int, name string, expected, got int) error {
	return errors.New(
		ErrColumnAliasCountMismatch,
		fmt.Sprintf("[%d:%d] '%s' declares %d column aliases for %d columns", line, col, name, expected, got),
	)
}

func NewErrAmbiguousReference(line int, col int, name string) error {
	return errors.New(
		ErrAmbiguousReference,
		fmt.Sprintf("[%d:%d] ambiguous column reference '%s'", line, col, name),
	)
}

func NewErrTableNotFound(line int, col int, name string) error {
	return errors.New(
		ErrTableNotFound,
		fmt.Sprintf("[%d:%d] table or view '%s' not found", line, col, name),
	)
}

func NewErrDuplicateColumn(line int, col int, column string) error {
	return errors.New(
		ErrDuplicateColumn,
		fmt.Sprintf("[%d:%d] duplicate column '%s'", line, col, column),
	)
}

func NewErrDuplicateAlias(line int, col int, alias string) error {
	return errors.New(
		ErrDuplicateAlias,
		fmt.Sprintf("[%d:%d] duplicate relation name '%s'", line, col, alias),
	)
}

func NewErrCyclicViewReference(line int, col int, view string) error {
	return errors.New(
		ErrCyclicViewReference,
		fmt.Sprintf("[%d:%d] view '%s' references itself", line, col, view),
	)
}

func NewErrTypeMismatch(line int, col int, type1, type2 string) error {
	return errors.New(
		ErrTypeMismatch,
		fmt.Sprintf("[%d:%d] types '%s' and '%s' are not compatible", line, col, type1, type2),
	)
}

func NewErrCallParameterTypeMismatch(line int, col int, name string, argTypes string) error {
	return errors.New(
		ErrTypeMismatch,
		fmt.Sprintf("[%d:%d] no overload of function '%s' accepts arguments of type %s", line, col, name, argTypes),
	)
}

func NewErrTypeIncompatibleWithLogicalOperator(line int, col int, typ string) error {
	return errors.New(
		ErrTypeIncompatibleWithLogicalOperator,
		fmt.Sprintf("[%d:%d] operator incompatible with type '%s'", line, col, typ),
	)
}

func NewErrTypeIncompatibleWithEqualityOperator(line int, col int, typ string) error {
	return errors.New(
		ErrTypeIncompatibleWithEqualityOperator,
		fmt.Sprintf("[%d:%d] operator incompatible with type '%s'", line, col, typ),
	)
}

func NewErrTypeIncompatibleWithComparisonOperator(line int, col int, typ string) error {
	return errors.New(
		ErrTypeIncompatibleWithComparisonOperator,
		fmt.Sprintf("[%d:%d] operator incompatible with type '%s'", line, col, typ),
	)
}

func NewErrTypeIncompatibleWithArithmeticOperator(line int, col int, typ string) error {
	return errors.New(
		ErrTypeIncompatibleWithArithmeticOperator,
		fmt.Sprintf("[%d:%d] operator incompatible with type '%s'", line, col, typ),
	)
}

func NewErrTypeIncompatibleWithBitwiseOperator(line int, col int, typ string) error {
	return errors.New(
		ErrTypeIncompatibleWithBitwiseOperator,
		fmt.Sprintf("[%d:%d] operator incompatible with type '%s'", line, col, typ),
	)
}

func NewErrTypeIncompatibleWithConcatOperator(line int, col int, typ string) error {
	return errors.New(
		ErrTypeIncompatibleWithConcatOperator,
		fmt.Sprintf("[%d:%d] operator incompatible with type '%s'", line, col, typ),
	)
}

func NewErrTypeIncompatibleWithLikeOperator(line int, col int, typ string) error {
	return errors.New(
		ErrTypeIncompatibleWithLikeOperator,
		fmt.Sprintf("[%d:%d] operator incompatible with type '%s'", line, col, typ),
	)
}

func NewErrTypeIncompatibleWithBetweenOperator(line int, col int, typ string) error {
	return errors.New(
		ErrTypeIncompatibleWithBetweenOperator,
		fmt.Sprintf("[%d:%d] operator incompatible with type '%s'", line, col, typ),
	)
}

func NewErrBooleanExpressionExpected(line int, col int) error {
	return errors.New(
		ErrBooleanExpressionExpected,
		fmt.Sprintf("[%d:%d] boolean expression expected", line, col),
	)
}

func NewErrIntegerExpressionExpected(line int, col int) error {
	return errors.New(
		ErrIntegerExpressionExpected,
		fmt.Sprintf("[%d:%d] integer expression expected", line, col),
	)
}

func NewErrSingleColumnExpected(line int, col int) error {
	return errors.New(
		ErrSingleColumnExpected,
		fmt.Sprintf("[%d:%d] subquery must return a single column", line, col),
	)
}

func NewErrUnknownType(line int, col int, typ string) error {
	return errors.New(
		ErrUnknownType,
		fmt.Sprintf("[%d:%d] unknown type '%s'", line, col, typ),
	)
}

func NewErrInvalidCast(line int, col int, from, to string) error {
	return errors.New(
		ErrInvalidCast,
		fmt.Sprintf("[%d:%d] '%s' cannot be cast to '%s'", line, col, from, to),
	)
}

func NewErrIntegerLiteral(line int, col int) error {
	return errors.New(
		ErrIntegerLiteral,
		fmt.Sprintf("[%d:%d] integer literal expected", line, col),
	)
}

func NewErrTypeAssignmentIncompatible(line, col int, type1, type2 string) error {
	return errors.New(
		ErrTypeAssignmentIncompatible,
		fmt.Sprintf("[%d:%d] an expression of type '%s' cannot be assigned to type '%s'", line, col, type1, type2),
	)
}

func NewErrCallUnknownFunction(line int, col int, name string) error {
	return errors.New(
		ErrCallUnknownFunction,
		fmt.Sprintf("[%d:%d] unknown function '%s'", line, col, name),
	)
}

func NewErrCallParameterCountMismatch(line int, col int, name string, expected, got int) error {
	return errors.New(
		ErrCallParameterCountMismatch,
		fmt.Sprintf("[%d:%d] function '%s' expects %d parameters, got %d", line, col, name, expected, got),
	)
}

func NewErrAmbiguousFunctionCall(line int, col int, name string) error {
	return errors.New(
		ErrAmbiguousFunctionCall,
		fmt.Sprintf("[%d:%d] ambiguous call to function '%s'", line, col, name),
	)
}

func NewErrMisplacedAggregate(line int, col int, name string) error {
	return errors.New(
		ErrMisplacedAggregate,
		fmt.Sprintf("[%d:%d] aggregate function '%s' not allowed here", line, col, name),
	)
}

func NewErrMisplacedWindowFunction(line int, col int, name string) error {
	return errors.New(
		ErrMisplacedWindowFunction,
		fmt.Sprintf("[%d:%d] window function '%s' not allowed here", line, col, name),
	)
}

func NewErrIncompatibleSetOperands(line int, col int, reason string) error {
	return errors.New(
		ErrIncompatibleSetOperands,
		fmt.Sprintf("[%d:%d] set operation operands are incompatible: %s", line, col, reason),
	)
}

func NewErrInsertExprTargetCountMismatch(line int, col int) error {
	return errors.New(
		ErrInsertExprTargetCountMismatch,
		fmt.Sprintf("[%d:%d] mismatch in the count of expressions and target columns", line, col),
	)
}

func NewErrPlanTooDeep(maxDepth int) error {
	return errors.New(
		ErrPlanTooDeep,
		fmt.Sprintf("query exceeds the maximum nesting depth of %d", maxDepth),
	)
}

func NewErrUnsupportedConstruct(line int, col int, construct string) error {
	return errors.New(
		ErrUnsupportedConstruct,
		fmt.Sprintf("[%d:%d] %s is not supported", line, col, construct),
	)
}
