package dataapi

import (
	"context"
	"database/sql/driver"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
)

const logCalls = false

// Client sends statements to one database through the Data API. It holds no
// connection; every call is a single request.
type Client struct {
	cfg Config
	api Executor
}

// Connect validates cfg and creates a Client backed by the AWS SDK.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	api, err := NewAPI(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Client{cfg, api}, nil
}

// NewClient creates a Client that sends requests through api.
func NewClient(cfg Config, api Executor) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if api == nil {
		return nil, configErrorf("api", "required")
	}
	return &Client{cfg, api}, nil
}

func (me *Client) Config() Config {
	return me.cfg
}

func (me *Client) call(ctx context.Context, op string, f func(context.Context) error) (err error) {
	if logCalls {
		log.Print(op)
	}
	if me.cfg.Timeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, me.cfg.Timeout)
		defer cancel()
	}
	err = f(ctx)
	if logCalls && err != nil {
		log.Print(err)
	}
	if err != nil {
		err = newExecutionError(op, err)
	}
	return
}

// Execute runs one statement. args are positional values for ? or $N
// placeholders, sql.NamedArg values or a single Params for :name
// placeholders.
func (me *Client) Execute(ctx context.Context, query string, args ...interface{}) (*ResultSet, error) {
	st, nvs, err := prepare(query, args)
	if err != nil {
		return nil, err
	}
	return me.execute(ctx, "", st, nvs)
}

// ExecuteMany runs query once for each element of argSets, in a single
// batch request.
func (me *Client) ExecuteMany(ctx context.Context, query string, argSets [][]interface{}) (*BatchResult, error) {
	st, sets, err := prepareMany(query, argSets)
	if err != nil {
		return nil, err
	}
	return me.executeMany(ctx, "", st, sets)
}

func prepare(query string, args []interface{}) (st *statement, nvs []driver.NamedValue, err error) {
	st, err = parseStatement(query)
	if err != nil {
		return
	}
	nvs, err = namedValues(args)
	return
}

func prepareMany(query string, argSets [][]interface{}) (st *statement, sets [][]driver.NamedValue, err error) {
	st, err = parseStatement(query)
	if err != nil {
		return
	}
	sets = make([][]driver.NamedValue, 0, len(argSets))
	for _, args := range argSets {
		var nvs []driver.NamedValue
		nvs, err = namedValues(args)
		if err != nil {
			return
		}
		sets = append(sets, nvs)
	}
	return
}

func (me *Client) execute(ctx context.Context, txId string, st *statement, args []driver.NamedValue) (*ResultSet, error) {
	params, err := st.bind(args)
	if err != nil {
		return nil, err
	}
	input := &rdsdata.ExecuteStatementInput{
		ResourceArn:           aws.String(me.cfg.ResourceArn),
		SecretArn:             aws.String(me.cfg.SecretArn),
		Database:              me.optional(me.cfg.Database),
		Schema:                me.optional(me.cfg.Schema),
		Sql:                   aws.String(st.sql),
		Parameters:            params,
		IncludeResultMetadata: true,
		TransactionId:         me.optional(txId),
	}
	var out *rdsdata.ExecuteStatementOutput
	err = me.call(ctx, "ExecuteStatement", func(ctx context.Context) (err error) {
		out, err = me.api.ExecuteStatement(ctx, input)
		return
	})
	if err != nil {
		return nil, err
	}
	return newResultSet(out), nil
}

func (me *Client) executeMany(ctx context.Context, txId string, st *statement, sets [][]driver.NamedValue) (*BatchResult, error) {
	if len(sets) == 0 {
		return nil, configErrorf("bindings", "no argument sets to execute")
	}
	paramSets := make([][]types.SqlParameter, 0, len(sets))
	for _, args := range sets {
		params, err := st.bind(args)
		if err != nil {
			return nil, err
		}
		paramSets = append(paramSets, params)
	}
	input := &rdsdata.BatchExecuteStatementInput{
		ResourceArn:   aws.String(me.cfg.ResourceArn),
		SecretArn:     aws.String(me.cfg.SecretArn),
		Database:      me.optional(me.cfg.Database),
		Schema:        me.optional(me.cfg.Schema),
		Sql:           aws.String(st.sql),
		ParameterSets: paramSets,
		TransactionId: me.optional(txId),
	}
	var out *rdsdata.BatchExecuteStatementOutput
	err := me.call(ctx, "BatchExecuteStatement", func(ctx context.Context) (err error) {
		out, err = me.api.BatchExecuteStatement(ctx, input)
		return
	})
	if err != nil {
		return nil, err
	}
	return newBatchResult(out), nil
}

func (me *Client) optional(s string) *string {
	if s == "" {
		return nil
	}
	return aws.String(s)
}
