package dataapitest

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const timestampLayout = "2006-01-02 15:04:05.999"

type request struct {
	ResourceArn           string           `json:"resourceArn"`
	SecretArn             string           `json:"secretArn"`
	Database              string           `json:"database"`
	Schema                string           `json:"schema"`
	SQL                   string           `json:"sql"`
	Parameters            []sqlParameter   `json:"parameters"`
	ParameterSets         [][]sqlParameter `json:"parameterSets"`
	TransactionID         string           `json:"transactionId"`
	IncludeResultMetadata bool             `json:"includeResultMetadata"`
}

type sqlParameter struct {
	Name     string `json:"name"`
	TypeHint string `json:"typeHint,omitempty"`
	Value    field  `json:"value"`
}

// field is the typed value union. Exactly one member is set.
type field struct {
	IsNull       *bool    `json:"isNull,omitempty"`
	BooleanValue *bool    `json:"booleanValue,omitempty"`
	LongValue    *int64   `json:"longValue,omitempty"`
	DoubleValue  *float64 `json:"doubleValue,omitempty"`
	StringValue  *string  `json:"stringValue,omitempty"`
	BlobValue    *[]byte  `json:"blobValue,omitempty"`
	// Arrays can't be stored in SQLite, so they are only recognised to be
	// refused.
	ArrayValue json.RawMessage `json:"arrayValue,omitempty"`
}

type columnMetadata struct {
	Name      string `json:"name"`
	Label     string `json:"label"`
	TypeName  string `json:"typeName"`
	Type      int32  `json:"type"`
	Nullable  int32  `json:"nullable"`
	TableName string `json:"tableName,omitempty"`
}

type executeResponse struct {
	ColumnMetadata         []columnMetadata `json:"columnMetadata,omitempty"`
	Records                [][]field        `json:"records,omitempty"`
	NumberOfRecordsUpdated int64            `json:"numberOfRecordsUpdated"`
	GeneratedFields        []field          `json:"generatedFields,omitempty"`
}

type updateResult struct {
	GeneratedFields []field `json:"generatedFields"`
}

type batchExecuteResponse struct {
	UpdateResults []updateResult `json:"updateResults"`
}

type beginTransactionResponse struct {
	TransactionID string `json:"transactionId"`
}

type transactionStatusResponse struct {
	TransactionStatus string `json:"transactionStatus"`
}

// apiError is a modelled service error. The SDK picks the error type from
// the X-Amzn-ErrorType header.
type apiError struct {
	status  int
	code    string
	message string
}

func (e *apiError) Error() string {
	return e.code + ": " + e.message
}

func badRequest(format string, args ...interface{}) *apiError {
	return &apiError{http.StatusBadRequest, "BadRequestException", fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...interface{}) *apiError {
	return &apiError{http.StatusNotFound, "NotFoundException", fmt.Sprintf(format, args...)}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err *apiError) {
	w.Header().Set("X-Amzn-ErrorType", err.code)
	writeJSON(w, err.status, struct {
		Message string `json:"message"`
	}{err.message})
}

func (f field) value() (interface{}, error) {
	switch {
	case f.IsNull != nil:
		return nil, nil
	case f.BooleanValue != nil:
		return *f.BooleanValue, nil
	case f.LongValue != nil:
		return *f.LongValue, nil
	case f.DoubleValue != nil:
		return *f.DoubleValue, nil
	case f.StringValue != nil:
		return *f.StringValue, nil
	case f.BlobValue != nil:
		return *f.BlobValue, nil
	case f.ArrayValue != nil:
		return nil, badRequest("array parameters are not supported")
	default:
		return nil, badRequest("parameter value has no member set")
	}
}

func newField(v interface{}) field {
	switch v := v.(type) {
	case nil:
		t := true
		return field{IsNull: &t}
	case bool:
		return field{BooleanValue: &v}
	case int64:
		return field{LongValue: &v}
	case float64:
		return field{DoubleValue: &v}
	case string:
		return field{StringValue: &v}
	case []byte:
		return field{BlobValue: &v}
	case time.Time:
		s := v.UTC().Format(timestampLayout)
		return field{StringValue: &s}
	default:
		s := fmt.Sprint(v)
		return field{StringValue: &s}
	}
}

func sqlArgs(params []sqlParameter) (ret []interface{}, err error) {
	for _, p := range params {
		if p.Name == "" {
			return nil, badRequest("parameter without a name")
		}
		var v interface{}
		v, err = p.Value.value()
		if err != nil {
			return
		}
		ret = append(ret, sql.Named(p.Name, v))
	}
	return
}

// JDBC type codes, which is what the service reports in column metadata.
func jdbcType(typeName string) int32 {
	t := strings.ToUpper(typeName)
	switch {
	case t == "":
		return 1111
	case strings.Contains(t, "INT"):
		return -5
	case strings.Contains(t, "CHAR"), strings.Contains(t, "TEXT"), strings.Contains(t, "CLOB"):
		return 12
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"):
		return 8
	case strings.Contains(t, "BLOB"):
		return 2004
	case strings.Contains(t, "BOOL"):
		return 16
	case strings.Contains(t, "DATE"), strings.Contains(t, "TIME"):
		return 93
	default:
		return 1111
	}
}
