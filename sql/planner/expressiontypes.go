package planner

import (
	"math"
	"strconv"

	"github.com/driftdata/drift/sql"
	"github.com/driftdata/drift/sql/parser"
)

// coercion costs; lower is better, identity is free
const (
	coercionNone     = -1
	coercionIdentity = 0
)

func intTypeRank(typ parser.ExprDataType) int {
	switch typ.(type) {
	case *parser.DataTypeInt8:
		return 1
	case *parser.DataTypeInt16:
		return 2
	case *parser.DataTypeInt32:
		return 3
	case *parser.DataTypeInt64:
		return 4
	default:
		return 0
	}
}

func typeIsInteger(typ parser.ExprDataType) bool {
	return intTypeRank(typ) > 0
}

func typeIsFloat(typ parser.ExprDataType) bool {
	switch typ.(type) {
	case *parser.DataTypeFloat32, *parser.DataTypeFloat64:
		return true
	default:
		return false
	}
}

func typeIsNumeric(typ parser.ExprDataType) bool {
	if typeIsInteger(typ) || typeIsFloat(typ) {
		return true
	}
	_, ok := typ.(*parser.DataTypeDecimal)
	return ok
}

func typeIsBool(typ parser.ExprDataType) bool {
	_, ok := typ.(*parser.DataTypeBool)
	return ok
}

func typeIsString(typ parser.ExprDataType) bool {
	_, ok := typ.(*parser.DataTypeString)
	return ok
}

func typeIsVoid(typ parser.ExprDataType) bool {
	_, ok := typ.(*parser.DataTypeVoid)
	return ok
}

// typeIsComparable is true for types with an ordering.
func typeIsComparable(typ parser.ExprDataType) bool {
	switch typ.(type) {
	case *parser.DataTypeDate, *parser.DataTypeTimestamp, *parser.DataTypeString:
		return true
	default:
		return typeIsNumeric(typ)
	}
}

// coercionCost returns the cost of implicitly converting from one type to
// another, or coercionNone when the conversion would be lossy or is not
// meaningful. Implicit conversions only ever widen.
func coercionCost(from parser.ExprDataType, to parser.ExprDataType) int {
	if from.TypeDescription() == to.TypeDescription() {
		return coercionIdentity
	}

	// a null literal takes any type
	if typeIsVoid(from) {
		return coercionIdentity
	}

	fromRank := intTypeRank(from)
	toRank := intTypeRank(to)
	if fromRank > 0 && toRank > 0 {
		if toRank < fromRank {
			return coercionNone
		}
		return toRank - fromRank
	}

	// integers widen into any fractional type
	if fromRank > 0 {
		switch to.(type) {
		case *parser.DataTypeFloat32, *parser.DataTypeFloat64, *parser.DataTypeDecimal:
			return 5 - fromRank
		}
		return coercionNone
	}

	switch f := from.(type) {
	case *parser.DataTypeFloat32:
		if _, ok := to.(*parser.DataTypeFloat64); ok {
			return 1
		}
	case *parser.DataTypeDecimal:
		switch t := to.(type) {
		case *parser.DataTypeDecimal:
			if t.Scale > f.Scale {
				return 1
			}
		case *parser.DataTypeFloat64:
			return 1
		}
	case *parser.DataTypeDate:
		if _, ok := to.(*parser.DataTypeTimestamp); ok {
			return 1
		}
	}
	return coercionNone
}

// typesCoerced returns the common type two operand types widen to, or nil
// when no lossless common type exists.
func typesCoerced(lhs parser.ExprDataType, rhs parser.ExprDataType) parser.ExprDataType {
	if coercionCost(lhs, rhs) >= 0 {
		if typeIsVoid(rhs) {
			return lhs
		}
		return rhs
	}
	if coercionCost(rhs, lhs) >= 0 {
		return lhs
	}
	// int against decimal and float32 against float64 meet at float64
	if typeIsNumeric(lhs) && typeIsNumeric(rhs) {
		f64 := parser.NewDataTypeFloat64()
		if coercionCost(lhs, f64) >= 0 && coercionCost(rhs, f64) >= 0 {
			return f64
		}
	}
	return nil
}

// typeCanBeCast reports whether an explicit CAST between two types is
// allowed. Explicit casts may narrow; implicit coercions may not.
func typeCanBeCast(from parser.ExprDataType, to parser.ExprDataType) bool {
	if from.TypeDescription() == to.TypeDescription() {
		return true
	}
	if typeIsVoid(from) {
		return true
	}
	if typeIsNumeric(from) && typeIsNumeric(to) {
		return true
	}
	if typeIsString(to) {
		return true
	}
	if typeIsString(from) {
		return !typeIsVoid(to)
	}
	switch from.(type) {
	case *parser.DataTypeDate:
		_, ok := to.(*parser.DataTypeTimestamp)
		return ok
	case *parser.DataTypeTimestamp:
		_, ok := to.(*parser.DataTypeDate)
		return ok
	case *parser.DataTypeBool:
		return typeIsInteger(to)
	}
	return false
}

// fitIntegerLiteral types an integer literal with the smallest integer type
// that holds its value.
func fitIntegerLiteral(lit *parser.IntegerLit) (int64, parser.ExprDataType, error) {
	value, err := strconv.ParseInt(lit.Value, 10, 64)
	if err != nil {
		return 0, nil, sql.NewErrIntegerLiteral(lit.ValuePos.Line, lit.ValuePos.Column)
	}
	switch {
	case value >= math.MinInt8 && value <= math.MaxInt8:
		return value, parser.NewDataTypeInt8(), nil
	case value >= math.MinInt16 && value <= math.MaxInt16:
		return value, parser.NewDataTypeInt16(), nil
	case value >= math.MinInt32 && value <= math.MaxInt32:
		return value, parser.NewDataTypeInt32(), nil
	default:
		return value, parser.NewDataTypeInt64(), nil
	}
}

// dataTypeFromParserType maps a type written in a CAST to a data type.
func dataTypeFromParserType(typ *parser.Type) (parser.ExprDataType, error) {
	name := parser.IdentName(typ.Name)
	if !parser.IsValidTypeName(name) {
		return nil, sql.NewErrUnknownType(typ.Name.NamePos.Line, typ.Name.NamePos.Column, name)
	}
	switch name {
	case parser.BaseTypeBool:
		return parser.NewDataTypeBool(), nil
	case parser.BaseTypeInt8:
		return parser.NewDataTypeInt8(), nil
	case parser.BaseTypeInt16:
		return parser.NewDataTypeInt16(), nil
	case parser.BaseTypeInt32:
		return parser.NewDataTypeInt32(), nil
	case parser.BaseTypeInt64:
		return parser.NewDataTypeInt64(), nil
	case parser.BaseTypeFloat32:
		return parser.NewDataTypeFloat32(), nil
	case parser.BaseTypeFloat64:
		return parser.NewDataTypeFloat64(), nil
	case parser.BaseTypeDecimal:
		scale := int64(0)
		if typ.Scale != nil {
			value, err := strconv.ParseInt(typ.Scale.Value, 10, 64)
			if err != nil {
				return nil, sql.NewErrIntegerLiteral(typ.Scale.ValuePos.Line, typ.Scale.ValuePos.Column)
			}
			scale = value
		}
		return parser.NewDataTypeDecimal(scale), nil
	case parser.BaseTypeString:
		return parser.NewDataTypeString(), nil
	case parser.BaseTypeDate:
		return parser.NewDataTypeDate(), nil
	case parser.BaseTypeTimestamp:
		return parser.NewDataTypeTimestamp(), nil
	default:
		return nil, sql.NewErrUnknownType(typ.Name.NamePos.Line, typ.Name.NamePos.Column, name)
	}
}
