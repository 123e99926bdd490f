package dataapi

import (
	"context"
	"database/sql"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T, api Executor) *sql.DB {
	db := sql.OpenDB(NewConnector(newTestClient(t, api)))
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDriverQueryRow(t *testing.T) {
	api := &recordingAPI{executeOut: selectOneOutput()}
	db := openTestDB(t, api)
	var one int
	require.NoError(t, db.QueryRow("SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)
	require.Len(t, api.executes, 1)
}

func TestDriverColumnTypes(t *testing.T) {
	api := &recordingAPI{executeOut: &rdsdata.ExecuteStatementOutput{
		ColumnMetadata: []types.ColumnMetadata{
			{Label: aws.String("a"), TypeName: aws.String("varchar"), Nullable: ColumnNullable},
			{Label: aws.String("b"), TypeName: aws.String("INT"), Nullable: ColumnNullableUnknown},
		},
		Records: [][]types.Field{
			{&types.FieldMemberStringValue{Value: "x"}, &types.FieldMemberLongValue{Value: 1}},
			{&types.FieldMemberIsNull{Value: true}, &types.FieldMemberLongValue{Value: 2}},
		},
	}}
	db := openTestDB(t, api)
	rows, err := db.Query("select a, b from t where c = ?", 3)
	require.NoError(t, err)
	defer rows.Close()
	cts, err := rows.ColumnTypes()
	require.NoError(t, err)
	assert.Equal(t, "VARCHAR", cts[0].DatabaseTypeName())
	nullable, ok := cts[0].Nullable()
	assert.True(t, ok)
	assert.True(t, nullable)
	_, ok = cts[1].Nullable()
	assert.False(t, ok)
	var got []sql.NullString
	for rows.Next() {
		var a sql.NullString
		var b int
		require.NoError(t, rows.Scan(&a, &b))
		got = append(got, a)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []sql.NullString{{String: "x", Valid: true}, {}}, got)
	assert.Equal(t, "select a, b from t where c = :parameter_0", aws.ToString(api.executes[0].Sql))
}

func TestDriverRecordWiderThanMetadata(t *testing.T) {
	api := &recordingAPI{executeOut: &rdsdata.ExecuteStatementOutput{
		ColumnMetadata: []types.ColumnMetadata{{Label: aws.String("a")}},
		Records: [][]types.Field{
			{&types.FieldMemberLongValue{Value: 1}, &types.FieldMemberLongValue{Value: 2}},
		},
	}}
	db := openTestDB(t, api)
	rows, err := db.Query("select a, b from t")
	require.NoError(t, err)
	defer rows.Close()
	assert.False(t, rows.Next())
	assert.Error(t, rows.Err())
}

func TestDriverExec(t *testing.T) {
	api := &recordingAPI{executeOut: &rdsdata.ExecuteStatementOutput{
		NumberOfRecordsUpdated: 1,
		GeneratedFields:        []types.Field{&types.FieldMemberLongValue{Value: 12}},
	}}
	db := openTestDB(t, api)
	res, err := db.Exec("insert into t (a) values (:a)", sql.Named("a", "x"))
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	assert.EqualValues(t, 12, id)
	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestDriverPreparedMismatch(t *testing.T) {
	api := &recordingAPI{}
	db := openTestDB(t, api)
	stmt, err := db.Prepare("update t set a = ? where b = ?")
	require.NoError(t, err)
	defer stmt.Close()
	_, err = stmt.Exec(1)
	assert.ErrorIs(t, err, ErrConfiguration)
	_, err = stmt.Exec(1, 2)
	assert.NoError(t, err)
	assert.Len(t, api.executes, 1)
	_, err = db.Prepare("select ? where a = :a")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestDriverTransaction(t *testing.T) {
	api := &transactingAPI{}
	db := openTestDB(t, api)
	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	_, err = tx.Exec("delete from t")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.Equal(t, "tx-1", aws.ToString(api.executes[0].TransactionId))
	assert.Equal(t, []string{"tx-1"}, api.commits)
	_, err = db.Exec("delete from t")
	require.NoError(t, err)
	assert.Nil(t, api.executes[1].TransactionId)

	_, err = db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestOpenValidatesDSN(t *testing.T) {
	_, err := sql.Open("dataapi", "region=eu-west-1")
	assert.ErrorIs(t, err, ErrConfiguration)
	_, err = sql.Open("dataapi", "dataapi://?bogus=1")
	assert.ErrorIs(t, err, ErrConfiguration)
}
