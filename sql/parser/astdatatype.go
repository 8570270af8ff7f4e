package parser

import (
	"fmt"
	"strings"
)

const (
	BaseTypeVoid      = "void"
	BaseTypeBool      = "bool"
	BaseTypeInt8      = "int8"
	BaseTypeInt16     = "int16"
	BaseTypeInt32     = "int32"
	BaseTypeInt64     = "int64"
	BaseTypeFloat32   = "float32"
	BaseTypeFloat64   = "float64"
	BaseTypeDecimal   = "decimal"
	BaseTypeString    = "string"
	BaseTypeDate      = "date"
	BaseTypeTimestamp = "timestamp"
)

func IsValidTypeName(typeName string) bool {
	switch strings.ToLower(typeName) {
	case BaseTypeBool,
		BaseTypeInt8, BaseTypeInt16, BaseTypeInt32, BaseTypeInt64,
		BaseTypeFloat32, BaseTypeFloat64,
		BaseTypeDecimal,
		BaseTypeString,
		BaseTypeDate, BaseTypeTimestamp:
		return true
	default:
		return false
	}
}

// ExprDataType is the interface for all language layer types
type ExprDataType interface {
	exprDataType()
	// the base type name e.g. int64 or decimal
	BaseTypeName() string
	// the full type specification as a string - intended to be human readable
	TypeDescription() string
}

func (*DataTypeVoid) exprDataType()      {}
func (*DataTypeBool) exprDataType()      {}
func (*DataTypeInt8) exprDataType()      {}
func (*DataTypeInt16) exprDataType()     {}
func (*DataTypeInt32) exprDataType()     {}
func (*DataTypeInt64) exprDataType()     {}
func (*DataTypeFloat32) exprDataType()   {}
func (*DataTypeFloat64) exprDataType()   {}
func (*DataTypeDecimal) exprDataType()   {}
func (*DataTypeString) exprDataType()    {}
func (*DataTypeDate) exprDataType()      {}
func (*DataTypeTimestamp) exprDataType() {}

// DataTypeVoid is the type of NULL literals and of nothing at all.
type DataTypeVoid struct {
}

func NewDataTypeVoid() *DataTypeVoid {
	return &DataTypeVoid{}
}

func (*DataTypeVoid) BaseTypeName() string {
	return BaseTypeVoid
}

func (dt *DataTypeVoid) TypeDescription() string {
	return dt.BaseTypeName()
}

type DataTypeBool struct {
}

func NewDataTypeBool() *DataTypeBool {
	return &DataTypeBool{}
}

func (*DataTypeBool) BaseTypeName() string {
	return BaseTypeBool
}

func (dt *DataTypeBool) TypeDescription() string {
	return dt.BaseTypeName()
}

type DataTypeInt8 struct {
}

func NewDataTypeInt8() *DataTypeInt8 {
	return &DataTypeInt8{}
}

func (*DataTypeInt8) BaseTypeName() string {
	return BaseTypeInt8
}

func (dt *DataTypeInt8) TypeDescription() string {
	return dt.BaseTypeName()
}

type DataTypeInt16 struct {
}

func NewDataTypeInt16() *DataTypeInt16 {
	return &DataTypeInt16{}
}

func (*DataTypeInt16) BaseTypeName() string {
	return BaseTypeInt16
}

func (dt *DataTypeInt16) TypeDescription() string {
	return dt.BaseTypeName()
}

type DataTypeInt32 struct {
}

func NewDataTypeInt32() *DataTypeInt32 {
	return &DataTypeInt32{}
}

func (*DataTypeInt32) BaseTypeName() string {
	return BaseTypeInt32
}

func (dt *DataTypeInt32) TypeDescription() string {
	return dt.BaseTypeName()
}

type DataTypeInt64 struct {
}

func NewDataTypeInt64() *DataTypeInt64 {
	return &DataTypeInt64{}
}

func (*DataTypeInt64) BaseTypeName() string {
	return BaseTypeInt64
}

func (dt *DataTypeInt64) TypeDescription() string {
	return dt.BaseTypeName()
}

type DataTypeFloat32 struct {
}

func NewDataTypeFloat32() *DataTypeFloat32 {
	return &DataTypeFloat32{}
}

func (*DataTypeFloat32) BaseTypeName() string {
	return BaseTypeFloat32
}

func (dt *DataTypeFloat32) TypeDescription() string {
	return dt.BaseTypeName()
}

type DataTypeFloat64 struct {
}

func NewDataTypeFloat64() *DataTypeFloat64 {
	return &DataTypeFloat64{}
}

func (*DataTypeFloat64) BaseTypeName() string {
	return BaseTypeFloat64
}

func (dt *DataTypeFloat64) TypeDescription() string {
	return dt.BaseTypeName()
}

type DataTypeDecimal struct {
	Scale int64
}

func NewDataTypeDecimal(scale int64) *DataTypeDecimal {
	return &DataTypeDecimal{
		Scale: scale,
	}
}

func (d *DataTypeDecimal) BaseTypeName() string {
	return BaseTypeDecimal
}

func (d *DataTypeDecimal) TypeDescription() string {
	return fmt.Sprintf("%s(%d)", BaseTypeDecimal, d.Scale)
}

type DataTypeString struct {
}

func NewDataTypeString() *DataTypeString {
	return &DataTypeString{}
}

func (*DataTypeString) BaseTypeName() string {
	return BaseTypeString
}

func (dt *DataTypeString) TypeDescription() string {
	return dt.BaseTypeName()
}

type DataTypeDate struct {
}

func NewDataTypeDate() *DataTypeDate {
	return &DataTypeDate{}
}

func (*DataTypeDate) BaseTypeName() string {
	return BaseTypeDate
}

func (dt *DataTypeDate) TypeDescription() string {
	return dt.BaseTypeName()
}

type DataTypeTimestamp struct {
}

func NewDataTypeTimestamp() *DataTypeTimestamp {
	return &DataTypeTimestamp{}
}

func (*DataTypeTimestamp) BaseTypeName() string {
	return BaseTypeTimestamp
}

func (dt *DataTypeTimestamp) TypeDescription() string {
	return dt.BaseTypeName()
}

func NumDecimalPlaces(v string) int {
	i := strings.IndexByte(v, '.')
	if i > -1 {
		return len(v) - i - 1
	}
	return 0
}
