// Package row implements the fixed-width register tuple that flows between
// physical operators (spec §4.1). It is the leaf of the whole core: PCode,
// the POP graph and the scheduler all pass row.Row values around without
// knowing anything about how a row was produced.
package row

import (
	"fmt"
	"strconv"

	"github.com/adarshpannu/flare/errs"
)

// Tag discriminates the variant held by a Datum.
type Tag uint8

const (
	TagNull Tag = iota
	TagInt
	TagStr
	TagBool
	TagDouble
)

func (t Tag) String() string {
	switch t {
	case TagNull:
		return "NULL"
	case TagInt:
		return "INT"
	case TagStr:
		return "STR"
	case TagBool:
		return "BOOL"
	case TagDouble:
		return "DOUBLE"
	default:
		return "UNKNOWN"
	}
}

// DataType is the column type a catalog descriptor declares; it determines
// how CSV fields are parsed (spec §4.5.1/§4.5.2).
type DataType uint8

const (
	TypeInt DataType = iota
	TypeStr
	TypeBool
	TypeDouble
)

// Datum is a tagged value: INT(i64) | STR(shared immutable string) | BOOL |
// DOUBLE(integral, fractional) | NULL. Strings are carried by pointer so
// cloning a Row never copies string bytes.
type Datum struct {
	tag                  Tag
	i                    int64
	s                    *string
	b                    bool
	integral, fractional int64
}

// Null is the NULL datum.
func Null() Datum { return Datum{tag: TagNull} }

// NewInt builds an INT datum.
func NewInt(v int64) Datum { return Datum{tag: TagInt, i: v} }

// NewStr builds a STR datum backed by a shared immutable string.
func NewStr(v string) Datum { return Datum{tag: TagStr, s: &v} }

// NewBool builds a BOOL datum.
func NewBool(v bool) Datum { return Datum{tag: TagBool, b: v} }

// NewDouble builds a DOUBLE datum from an integral part and a fractional
// part expressed in billionths (fractional/1e9), matching spec §4.1's
// "DOUBLE(integral, fractional)" variant.
func NewDouble(integral, fractional int64) Datum {
	return Datum{tag: TagDouble, integral: integral, fractional: fractional}
}

// NewDoubleFromFloat builds a DOUBLE datum from a float64, losing no more
// precision than the billionths denominator affords.
func NewDoubleFromFloat(v float64) Datum {
	integral := int64(v)
	fractional := int64((v - float64(integral)) * 1e9)
	return NewDouble(integral, fractional)
}

func (d Datum) Tag() Tag { return d.tag }
func (d Datum) IsNull() bool { return d.tag == TagNull }

func (d Datum) Int() (int64, bool) {
	if d.tag != TagInt {
		return 0, false
	}
	return d.i, true
}

func (d Datum) Str() (string, bool) {
	if d.tag != TagStr {
		return "", false
	}
	return *d.s, true
}

func (d Datum) Bool() (bool, bool) {
	if d.tag != TagBool {
		return false, false
	}
	return d.b, true
}

func (d Datum) Double() (float64, bool) {
	if d.tag != TagDouble {
		return 0, false
	}
	return float64(d.integral) + float64(d.fractional)/1e9, true
}

// String renders the datum's canonical textual form: the same form written
// to shuffle files (spec §6) and printed by cmd/flare.
func (d Datum) String() string {
	switch d.tag {
	case TagNull:
		return ""
	case TagInt:
		return strconv.FormatInt(d.i, 10)
	case TagStr:
		return *d.s
	case TagBool:
		if d.b {
			return "T"
		}
		return "F"
	case TagDouble:
		v, _ := d.Double()
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return "?"
	}
}

// GroupEqual reports whether two datums belong to the same aggregation
// group (spec §4.5.5). Unlike Compare, this never errors: NULL groups with
// NULL, and cross-tag datums simply aren't equal (they can never occur
// within one register's values in a well-typed plan).
func (d Datum) GroupEqual(other Datum) bool {
	if d.tag != other.tag {
		return false
	}
	switch d.tag {
	case TagNull:
		return true
	case TagInt:
		return d.i == other.i
	case TagStr:
		return *d.s == *other.s
	case TagBool:
		return d.b == other.b
	case TagDouble:
		return d.integral == other.integral && d.fractional == other.fractional
	default:
		return false
	}
}

// Compare orders two same-tagged datums: -1, 0, 1. Mixed-tag or NULL
// operands fail with errs.ErrTypeMismatch (spec §4.1).
func (d Datum) Compare(other Datum) (int, error) {
	if d.tag != other.tag || d.tag == TagNull {
		return 0, errs.ErrTypeMismatch.New(fmt.Sprintf("cannot compare %s and %s", d.tag, other.tag))
	}
	switch d.tag {
	case TagInt:
		return cmpInt64(d.i, other.i), nil
	case TagStr:
		return cmpString(*d.s, *other.s), nil
	case TagBool:
		return cmpBool(d.b, other.b), nil
	case TagDouble:
		dv, _ := d.Double()
		ov, _ := other.Double()
		return cmpFloat64(dv, ov), nil
	default:
		return 0, errs.ErrTypeMismatch.New("unknown tag")
	}
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a && b {
		return -1
	}
	return 1
}

// ParseDatum parses a raw CSV field into the given DataType, per spec
// §4.5.1. Parse failures surface as errs.ErrParseError.
func ParseDatum(field string, t DataType) (Datum, error) {
	switch t {
	case TypeInt:
		v, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return Datum{}, errs.ErrParseError.New(field, "INT")
		}
		return NewInt(v), nil
	case TypeStr:
		return NewStr(field), nil
	case TypeBool:
		switch field {
		case "T", "TRUE", "true":
			return NewBool(true), nil
		case "F", "FALSE", "false":
			return NewBool(false), nil
		default:
			return Datum{}, errs.ErrParseError.New(field, "BOOL")
		}
	case TypeDouble:
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return Datum{}, errs.ErrParseError.New(field, "DOUBLE")
		}
		return NewDoubleFromFloat(v), nil
	default:
		return Datum{}, errs.ErrParseError.New(field, "UNKNOWN")
	}
}
