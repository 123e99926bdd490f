// Package dataapitest emulates the RDS Data API on top of a *sql.DB, so that
// the AWS SDK client can be pointed at a local database. It speaks the
// service's REST-JSON wire format for ExecuteStatement,
// BatchExecuteStatement and the transaction calls.
package dataapitest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bradfitz/iter"

	"github.com/anacrolix/dataapi/refs"
)

const logRequests = false

type Service struct {
	DB *sql.DB
	// Idle time after which an open transaction is rolled back. Zero means
	// never.
	Expiry time.Duration

	initOnce sync.Once
	txs      refs.Manager

	mu    sync.Mutex
	calls map[string]int
}

type handler func(ctx context.Context, req *request) (interface{}, error)

func (me *Service) handlers() map[string]handler {
	return map[string]handler{
		"/Execute":             me.execute,
		"/BatchExecute":        me.batchExecute,
		"/BeginTransaction":    me.beginTransaction,
		"/CommitTransaction":   me.commitTransaction,
		"/RollbackTransaction": me.rollbackTransaction,
	}
}

// Refs returns the open transactions.
func (me *Service) Refs() map[refs.Id]interface{} {
	return me.txs.GetAll()
}

// Calls returns how many requests were made to op, eg. "Execute".
func (me *Service) Calls(op string) int {
	me.mu.Lock()
	defer me.mu.Unlock()
	return me.calls[op]
}

func (me *Service) countCall(op string) {
	me.mu.Lock()
	defer me.mu.Unlock()
	if me.calls == nil {
		me.calls = make(map[string]int)
	}
	me.calls[op]++
}

func (me *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	me.initOnce.Do(func() {
		me.txs.Expiry = me.Expiry
	})
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h, ok := me.handlers()[r.URL.Path]
	if !ok {
		writeError(w, &apiError{http.StatusNotFound, "UnknownOperationException", r.URL.Path})
		return
	}
	me.countCall(strings.TrimPrefix(r.URL.Path, "/"))
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, badRequest("decoding request: %v", err))
		return
	}
	if logRequests {
		log.Printf("%s %q", r.URL.Path, req.SQL)
	}
	resp, err := me.handle(r.Context(), h, &req)
	if err != nil {
		var ae *apiError
		if !errors.As(err, &ae) {
			ae = badRequest("%v", err)
		}
		writeError(w, ae)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (me *Service) handle(ctx context.Context, h handler, req *request) (interface{}, error) {
	if req.ResourceArn == "" {
		return nil, badRequest("resourceArn is required")
	}
	if req.SecretArn == "" {
		return nil, badRequest("secretArn is required")
	}
	return h(ctx, req)
}

type execQueryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func formatTxId(id refs.Id) string {
	return "tx" + strconv.Itoa(int(id))
}

func (me *Service) tx(txId string, pop bool) (*sql.Tx, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(txId, "tx"))
	if err != nil || !strings.HasPrefix(txId, "tx") {
		return nil, notFound("transaction %q not found", txId)
	}
	var obj interface{}
	if pop {
		obj, err = me.txs.Pop(refs.Id(n))
	} else {
		obj, err = me.txs.Get(refs.Id(n))
	}
	if err == refs.ErrBadRef {
		return nil, notFound("transaction %q not found", txId)
	}
	if err != nil {
		return nil, err
	}
	return obj.(*sql.Tx), nil
}

func (me *Service) execQueryer(txId string) (execQueryer, error) {
	if txId == "" {
		return me.DB, nil
	}
	return me.tx(txId, false)
}

func firstKeyword(query string) string {
	fields := strings.Fields(strings.TrimLeft(query, " \t\r\n("))
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}

func returnsRows(query string) bool {
	switch firstKeyword(query) {
	case "SELECT", "WITH", "VALUES", "PRAGMA", "EXPLAIN", "SHOW", "DESCRIBE":
		return true
	}
	return strings.Contains(strings.ToUpper(query), "RETURNING")
}

func generatedFields(query string, res sql.Result) []field {
	switch firstKeyword(query) {
	case "INSERT", "REPLACE":
	default:
		return nil
	}
	id, err := res.LastInsertId()
	if err != nil || id == 0 {
		return nil
	}
	return []field{newField(id)}
}

func (me *Service) execute(ctx context.Context, req *request) (interface{}, error) {
	if req.SQL == "" {
		return nil, badRequest("sql is required")
	}
	eq, err := me.execQueryer(req.TransactionID)
	if err != nil {
		return nil, err
	}
	args, err := sqlArgs(req.Parameters)
	if err != nil {
		return nil, err
	}
	if returnsRows(req.SQL) {
		return me.query(ctx, eq, req, args)
	}
	res, err := eq.ExecContext(ctx, req.SQL, args...)
	if err != nil {
		return nil, err
	}
	var resp executeResponse
	resp.NumberOfRecordsUpdated, err = res.RowsAffected()
	if err != nil {
		return nil, err
	}
	resp.GeneratedFields = generatedFields(req.SQL, res)
	return resp, nil
}

func (me *Service) query(ctx context.Context, eq execQueryer, req *request, args []interface{}) (resp executeResponse, err error) {
	rows, err := eq.QueryContext(ctx, req.SQL, args...)
	if err != nil {
		return
	}
	defer rows.Close()
	cts, err := rows.ColumnTypes()
	if err != nil {
		return
	}
	if req.IncludeResultMetadata {
		for _, ct := range cts {
			cm := columnMetadata{
				Name:     ct.Name(),
				Label:    ct.Name(),
				TypeName: ct.DatabaseTypeName(),
				Type:     jdbcType(ct.DatabaseTypeName()),
				Nullable: 2,
			}
			if nullable, ok := ct.Nullable(); ok {
				cm.Nullable = 0
				if nullable {
					cm.Nullable = 1
				}
			}
			resp.ColumnMetadata = append(resp.ColumnMetadata, cm)
		}
	}
	values := make([]interface{}, len(cts))
	dest := make([]interface{}, len(cts))
	for i := range iter.N(len(cts)) {
		dest[i] = &values[i]
	}
	for rows.Next() {
		if err = rows.Scan(dest...); err != nil {
			return
		}
		record := make([]field, 0, len(values))
		for _, v := range values {
			record = append(record, newField(v))
		}
		resp.Records = append(resp.Records, record)
	}
	err = rows.Err()
	return
}

func (me *Service) batchExecute(ctx context.Context, req *request) (ret interface{}, err error) {
	if req.SQL == "" {
		return nil, badRequest("sql is required")
	}
	if len(req.ParameterSets) == 0 {
		return nil, badRequest("parameterSets is required")
	}
	var eq execQueryer
	if req.TransactionID != "" {
		eq, err = me.tx(req.TransactionID, false)
		if err != nil {
			return
		}
	} else {
		// Outside a transaction the batch still applies as a whole.
		var tx *sql.Tx
		tx, err = me.DB.BeginTx(ctx, nil)
		if err != nil {
			return
		}
		defer func() {
			if err != nil {
				tx.Rollback()
				return
			}
			err = tx.Commit()
		}()
		eq = tx
	}
	var resp batchExecuteResponse
	for _, params := range req.ParameterSets {
		var args []interface{}
		args, err = sqlArgs(params)
		if err != nil {
			return
		}
		var res sql.Result
		res, err = eq.ExecContext(ctx, req.SQL, args...)
		if err != nil {
			return
		}
		gf := generatedFields(req.SQL, res)
		if gf == nil {
			gf = []field{}
		}
		resp.UpdateResults = append(resp.UpdateResults, updateResult{gf})
	}
	return resp, nil
}

func (me *Service) beginTransaction(ctx context.Context, req *request) (interface{}, error) {
	// Not the request context: that ends with the request, and would roll
	// the transaction back.
	tx, err := me.DB.BeginTx(context.Background(), nil)
	if err != nil {
		return nil, err
	}
	id := me.txs.New(tx, tx.Rollback)
	return beginTransactionResponse{formatTxId(id)}, nil
}

func (me *Service) commitTransaction(ctx context.Context, req *request) (interface{}, error) {
	tx, err := me.tx(req.TransactionID, true)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return transactionStatusResponse{"Transaction Committed"}, nil
}

func (me *Service) rollbackTransaction(ctx context.Context, req *request) (interface{}, error) {
	tx, err := me.tx(req.TransactionID, true)
	if err != nil {
		return nil, err
	}
	if err := tx.Rollback(); err != nil {
		return nil, err
	}
	return transactionStatusResponse{"Rollback Complete"}, nil
}
