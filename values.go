package dataapi

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
)

// The layout the Data API accepts for TIMESTAMP parameters. It takes at most
// millisecond precision.
const timestampLayout = "2006-01-02 15:04:05.999"

// Params names the arguments of a :name statement, in the style of a dict
// of query arguments. Pass it as the only argument.
type Params map[string]interface{}

func convertValue(v interface{}) (driver.Value, error) {
	return driver.DefaultParameterConverter.ConvertValue(v)
}

// namedValues normalises Client arguments the way database/sql does: plain
// values are positional, sql.NamedArg values are named, and a single Params or
// map argument names every value.
func namedValues(args []interface{}) ([]driver.NamedValue, error) {
	if len(args) == 1 {
		switch m := args[0].(type) {
		case Params:
			return mapNamedValues(m)
		case map[string]interface{}:
			return mapNamedValues(m)
		}
	}
	ret := make([]driver.NamedValue, 0, len(args))
	for i, arg := range args {
		nv := driver.NamedValue{Ordinal: i + 1}
		if na, ok := arg.(sql.NamedArg); ok {
			if na.Name == "" {
				return nil, configErrorf("bindings", "argument %d has an empty name", i+1)
			}
			nv.Name = na.Name
			arg = na.Value
		}
		v, err := convertValue(arg)
		if err != nil {
			return nil, configErrorf("bindings", "argument %d: %v", i+1, err)
		}
		nv.Value = v
		ret = append(ret, nv)
	}
	return ret, nil
}

// toField maps a driver value onto the Data API's typed field union.
func toField(v driver.Value) (types.Field, types.TypeHint, error) {
	switch v := v.(type) {
	case nil:
		return &types.FieldMemberIsNull{Value: true}, "", nil
	case int64:
		return &types.FieldMemberLongValue{Value: v}, "", nil
	case float64:
		return &types.FieldMemberDoubleValue{Value: v}, "", nil
	case bool:
		return &types.FieldMemberBooleanValue{Value: v}, "", nil
	case string:
		return &types.FieldMemberStringValue{Value: v}, "", nil
	case []byte:
		return &types.FieldMemberBlobValue{Value: v}, "", nil
	case time.Time:
		return &types.FieldMemberStringValue{Value: v.UTC().Format(timestampLayout)}, types.TypeHintTimestamp, nil
	default:
		return nil, "", fmt.Errorf("unsupported type %T", v)
	}
}

// fromField is the inverse of toField for values in result records.
func fromField(f types.Field) interface{} {
	switch f := f.(type) {
	case *types.FieldMemberIsNull:
		return nil
	case *types.FieldMemberLongValue:
		return f.Value
	case *types.FieldMemberDoubleValue:
		return f.Value
	case *types.FieldMemberBooleanValue:
		return f.Value
	case *types.FieldMemberStringValue:
		return f.Value
	case *types.FieldMemberBlobValue:
		return f.Value
	case *types.FieldMemberArrayValue:
		return fromArray(f.Value)
	default:
		return nil
	}
}

func fromArray(a types.ArrayValue) interface{} {
	switch a := a.(type) {
	case *types.ArrayValueMemberBooleanValues:
		return derefAll(a.Value)
	case *types.ArrayValueMemberDoubleValues:
		return derefAll(a.Value)
	case *types.ArrayValueMemberLongValues:
		return derefAll(a.Value)
	case *types.ArrayValueMemberStringValues:
		return derefAll(a.Value)
	case *types.ArrayValueMemberArrayValues:
		ret := make([]interface{}, 0, len(a.Value))
		for _, v := range a.Value {
			ret = append(ret, fromArray(v))
		}
		return ret
	default:
		return nil
	}
}

// Array elements may be null, and come back as nil.
func derefAll[T any](ps []*T) []interface{} {
	ret := make([]interface{}, 0, len(ps))
	for _, p := range ps {
		if p == nil {
			ret = append(ret, nil)
			continue
		}
		ret = append(ret, *p)
	}
	return ret
}
