package dataapi

import (
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToField(t *testing.T) {
	ts := time.Date(2021, 5, 7, 13, 43, 0, 0, time.UTC)
	for _, tc := range []struct {
		in   driver.Value
		want types.Field
		hint types.TypeHint
	}{
		{nil, &types.FieldMemberIsNull{Value: true}, ""},
		{int64(3), &types.FieldMemberLongValue{Value: 3}, ""},
		{1.5, &types.FieldMemberDoubleValue{Value: 1.5}, ""},
		{false, &types.FieldMemberBooleanValue{Value: false}, ""},
		{"s", &types.FieldMemberStringValue{Value: "s"}, ""},
		{[]byte("b"), &types.FieldMemberBlobValue{Value: []byte("b")}, ""},
		{ts, &types.FieldMemberStringValue{Value: "2021-05-07 13:43:00"}, types.TypeHintTimestamp},
		{
			time.Date(2024, 1, 2, 3, 4, 5, 123456789, time.FixedZone("X", 3600)),
			&types.FieldMemberStringValue{Value: "2024-01-02 02:04:05.123"},
			types.TypeHintTimestamp,
		},
	} {
		f, hint, err := toField(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, f)
		assert.Equal(t, tc.hint, hint)
	}
	_, _, err := toField(struct{}{})
	assert.Error(t, err)
}

func TestNamedValuesConverts(t *testing.T) {
	n := 5
	nvs, err := namedValues([]interface{}{int32(1), uint8(2), float32(0.5), &n, sql.NullString{}, sql.Named("x", "y")})
	require.NoError(t, err)
	assert.Equal(t, []driver.NamedValue{
		{Ordinal: 1, Value: int64(1)},
		{Ordinal: 2, Value: int64(2)},
		{Ordinal: 3, Value: float64(0.5)},
		{Ordinal: 4, Value: int64(5)},
		{Ordinal: 5, Value: nil},
		{Ordinal: 6, Name: "x", Value: "y"},
	}, nvs)
}

func TestNamedValuesMap(t *testing.T) {
	nvs, err := namedValues([]interface{}{map[string]interface{}{"b": 2, "a": "x"}})
	require.NoError(t, err)
	assert.Equal(t, []driver.NamedValue{
		{Name: "a", Ordinal: 1, Value: "x"},
		{Name: "b", Ordinal: 2, Value: int64(2)},
	}, nvs)
	_, err = namedValues([]interface{}{sql.Named("", 1)})
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestResultSetDecoding(t *testing.T) {
	x, y := "x", "y"
	one := int64(1)
	rs := newResultSet(&rdsdata.ExecuteStatementOutput{
		ColumnMetadata: []types.ColumnMetadata{
			{Name: aws.String("id"), Label: aws.String("id"), TypeName: aws.String("BIGINT"), Nullable: ColumnNoNulls},
			{Name: aws.String("name"), Label: aws.String("n"), TypeName: aws.String("VARCHAR"), Nullable: ColumnNullable},
			{Name: aws.String("tags")},
		},
		Records: [][]types.Field{
			{
				&types.FieldMemberLongValue{Value: 1},
				&types.FieldMemberStringValue{Value: "a"},
				&types.FieldMemberArrayValue{Value: &types.ArrayValueMemberStringValues{Value: []*string{&x, nil, &y}}},
			},
			{
				&types.FieldMemberLongValue{Value: 2},
				&types.FieldMemberIsNull{Value: true},
				&types.FieldMemberArrayValue{Value: &types.ArrayValueMemberArrayValues{Value: []types.ArrayValue{
					&types.ArrayValueMemberLongValues{Value: []*int64{&one}},
					&types.ArrayValueMemberBooleanValues{Value: []*bool{nil}},
				}}},
			},
		},
		NumberOfRecordsUpdated: 0,
	})
	assert.Equal(t, []string{"id", "n", "tags"}, rs.ColumnNames())
	assert.Equal(t, [][]interface{}{
		{int64(1), "a", []interface{}{"x", nil, "y"}},
		{int64(2), nil, []interface{}{[]interface{}{int64(1)}, []interface{}{nil}}},
	}, rs.Rows)
	assert.Equal(t, []map[string]interface{}{
		{"id": int64(1), "n": "a", "tags": []interface{}{"x", nil, "y"}},
		{"id": int64(2), "n": nil, "tags": []interface{}{[]interface{}{int64(1)}, []interface{}{nil}}},
	}, rs.Maps())
	_, ok := rs.LastInsertID()
	assert.False(t, ok)
}

func TestResultSetGeneratedFields(t *testing.T) {
	rs := newResultSet(&rdsdata.ExecuteStatementOutput{
		NumberOfRecordsUpdated: 1,
		GeneratedFields:        []types.Field{&types.FieldMemberLongValue{Value: 42}},
	})
	id, ok := rs.LastInsertID()
	assert.True(t, ok)
	assert.EqualValues(t, 42, id)
	assert.EqualValues(t, 1, rs.RowsAffected)
	assert.Equal(t, 0, rs.Len())
}

func TestBatchResultGeneratedIDs(t *testing.T) {
	br := newBatchResult(&rdsdata.BatchExecuteStatementOutput{
		UpdateResults: []types.UpdateResult{
			{GeneratedFields: []types.Field{&types.FieldMemberLongValue{Value: 7}}},
			{GeneratedFields: []types.Field{&types.FieldMemberLongValue{Value: 0}}},
			{},
			{GeneratedFields: []types.Field{&types.FieldMemberLongValue{Value: 9}}},
		},
	})
	assert.EqualValues(t, 4, br.RowsAffected())
	assert.Equal(t, []int64{7, 9}, br.GeneratedIDs())
}
