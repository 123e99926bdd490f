package dataapi

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
)

// Values of Column.Nullable, as reported by the service.
const (
	ColumnNoNulls         = 0
	ColumnNullable        = 1
	ColumnNullableUnknown = 2
)

type Column struct {
	Name      string
	Label     string
	TypeName  string
	Type      int32
	Nullable  int32
	TableName string
}

// ResultSet is the outcome of one executed statement. Columns and the values
// in each row are in the order the service returned them.
type ResultSet struct {
	Columns []Column
	Rows    [][]interface{}
	// Rows updated by a statement that doesn't return records.
	RowsAffected    int64
	GeneratedFields []interface{}
}

func newResultSet(out *rdsdata.ExecuteStatementOutput) *ResultSet {
	rs := &ResultSet{
		Columns:         make([]Column, 0, len(out.ColumnMetadata)),
		Rows:            make([][]interface{}, 0, len(out.Records)),
		RowsAffected:    out.NumberOfRecordsUpdated,
		GeneratedFields: fromFields(out.GeneratedFields),
	}
	for _, cm := range out.ColumnMetadata {
		rs.Columns = append(rs.Columns, newColumn(cm))
	}
	for _, record := range out.Records {
		rs.Rows = append(rs.Rows, fromFields(record))
	}
	return rs
}

func newColumn(cm types.ColumnMetadata) Column {
	return Column{
		Name:      aws.ToString(cm.Name),
		Label:     aws.ToString(cm.Label),
		TypeName:  aws.ToString(cm.TypeName),
		Type:      cm.Type,
		Nullable:  cm.Nullable,
		TableName: aws.ToString(cm.TableName),
	}
}

func fromFields(fields []types.Field) []interface{} {
	ret := make([]interface{}, 0, len(fields))
	for _, f := range fields {
		ret = append(ret, fromField(f))
	}
	return ret
}

// The label if there is one, as that reflects any AS in the query.
func (me Column) DisplayName() string {
	if me.Label != "" {
		return me.Label
	}
	return me.Name
}

func (me *ResultSet) ColumnNames() []string {
	ret := make([]string, 0, len(me.Columns))
	for _, c := range me.Columns {
		ret = append(ret, c.DisplayName())
	}
	return ret
}

func (me *ResultSet) Len() int {
	return len(me.Rows)
}

// Maps returns each row keyed by column name, like a dict cursor would.
func (me *ResultSet) Maps() []map[string]interface{} {
	names := me.ColumnNames()
	ret := make([]map[string]interface{}, 0, len(me.Rows))
	for _, row := range me.Rows {
		m := make(map[string]interface{}, len(names))
		for i, v := range row {
			if i < len(names) {
				m[names[i]] = v
			}
		}
		ret = append(ret, m)
	}
	return ret
}

// LastInsertID returns the first generated field, which is the new primary
// key after an INSERT into a table with an auto increment key.
func (me *ResultSet) LastInsertID() (int64, bool) {
	return firstGeneratedID(me.GeneratedFields)
}

func firstGeneratedID(fields []interface{}) (int64, bool) {
	if len(fields) == 0 {
		return 0, false
	}
	id, ok := fields[0].(int64)
	return id, ok
}

// BatchResult is the outcome of ExecuteMany. The service decides whether a
// batch is all or nothing; this only reports what it returned.
type BatchResult struct {
	// The generated fields for each binding set.
	Updates [][]interface{}
}

func newBatchResult(out *rdsdata.BatchExecuteStatementOutput) *BatchResult {
	br := &BatchResult{Updates: make([][]interface{}, 0, len(out.UpdateResults))}
	for _, ur := range out.UpdateResults {
		br.Updates = append(br.Updates, fromFields(ur.GeneratedFields))
	}
	return br
}

func (me *BatchResult) RowsAffected() int64 {
	return int64(len(me.Updates))
}

// GeneratedIDs returns the keys generated by each update. The service can
// report zeroes for sets that generated nothing, and these are skipped.
func (me *BatchResult) GeneratedIDs() (ret []int64) {
	for _, fields := range me.Updates {
		if id, ok := firstGeneratedID(fields); ok && id != 0 {
			ret = append(ret, id)
		}
	}
	return
}
