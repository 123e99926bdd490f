// Package dataapi lets code written against a conventional SQL driver run
// its statements through the AWS RDS Data API instead of a database wire
// connection. It provides a Client with Execute and ExecuteMany, and a
// `database/sql` driver registered as "dataapi" that wraps the Client. Each
// call becomes one ExecuteStatement or BatchExecuteStatement request; result
// sets are reshaped into ordinary rows.
//
// `dataapitest` provides an emulator of the Data API backed by SQLite, and
// `cmd/dataapi-emulator` serves it over HTTP.
package dataapi

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/rdsdata"
)

// Executor is the single capability the Client needs from the remote
// service. *rdsdata.Client satisfies it.
type Executor interface {
	ExecuteStatement(context.Context, *rdsdata.ExecuteStatementInput, ...func(*rdsdata.Options)) (*rdsdata.ExecuteStatementOutput, error)
	BatchExecuteStatement(context.Context, *rdsdata.BatchExecuteStatementInput, ...func(*rdsdata.Options)) (*rdsdata.BatchExecuteStatementOutput, error)
}

// Transactor is implemented by Executors that also expose the service's
// transaction calls. *rdsdata.Client satisfies it.
type Transactor interface {
	BeginTransaction(context.Context, *rdsdata.BeginTransactionInput, ...func(*rdsdata.Options)) (*rdsdata.BeginTransactionOutput, error)
	CommitTransaction(context.Context, *rdsdata.CommitTransactionInput, ...func(*rdsdata.Options)) (*rdsdata.CommitTransactionOutput, error)
	RollbackTransaction(context.Context, *rdsdata.RollbackTransactionInput, ...func(*rdsdata.Options)) (*rdsdata.RollbackTransactionOutput, error)
}

var (
	_ Executor   = (*rdsdata.Client)(nil)
	_ Transactor = (*rdsdata.Client)(nil)
)
