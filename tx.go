package dataapi

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata"
)

// Tx is a transaction held open by the service. Statements run through it
// carry its id until Commit or Rollback.
type Tx struct {
	client *Client
	id     string
	done   bool
}

func (me *Client) transactor() (Transactor, error) {
	t, ok := me.api.(Transactor)
	if !ok {
		return nil, configErrorf("api", "%T does not support transactions", me.api)
	}
	return t, nil
}

// Begin starts a transaction in the configured database and schema.
func (me *Client) Begin(ctx context.Context) (*Tx, error) {
	t, err := me.transactor()
	if err != nil {
		return nil, err
	}
	var out *rdsdata.BeginTransactionOutput
	err = me.call(ctx, "BeginTransaction", func(ctx context.Context) (err error) {
		out, err = t.BeginTransaction(ctx, &rdsdata.BeginTransactionInput{
			ResourceArn: aws.String(me.cfg.ResourceArn),
			SecretArn:   aws.String(me.cfg.SecretArn),
			Database:    me.optional(me.cfg.Database),
			Schema:      me.optional(me.cfg.Schema),
		})
		return
	})
	if err != nil {
		return nil, err
	}
	return &Tx{client: me, id: aws.ToString(out.TransactionId)}, nil
}

func (me *Tx) ID() string {
	return me.id
}

func (me *Tx) Execute(ctx context.Context, query string, args ...interface{}) (*ResultSet, error) {
	if me.done {
		return nil, ErrTxDone
	}
	st, nvs, err := prepare(query, args)
	if err != nil {
		return nil, err
	}
	return me.client.execute(ctx, me.id, st, nvs)
}

func (me *Tx) ExecuteMany(ctx context.Context, query string, argSets [][]interface{}) (*BatchResult, error) {
	if me.done {
		return nil, ErrTxDone
	}
	st, sets, err := prepareMany(query, argSets)
	if err != nil {
		return nil, err
	}
	return me.client.executeMany(ctx, me.id, st, sets)
}

func (me *Tx) Commit(ctx context.Context) (err error) {
	if me.done {
		return ErrTxDone
	}
	t, err := me.client.transactor()
	if err != nil {
		return
	}
	me.done = true
	return me.client.call(ctx, "CommitTransaction", func(ctx context.Context) (err error) {
		_, err = t.CommitTransaction(ctx, &rdsdata.CommitTransactionInput{
			ResourceArn:   aws.String(me.client.cfg.ResourceArn),
			SecretArn:     aws.String(me.client.cfg.SecretArn),
			TransactionId: aws.String(me.id),
		})
		return
	})
}

func (me *Tx) Rollback(ctx context.Context) (err error) {
	if me.done {
		return ErrTxDone
	}
	t, err := me.client.transactor()
	if err != nil {
		return
	}
	me.done = true
	return me.client.call(ctx, "RollbackTransaction", func(ctx context.Context) (err error) {
		_, err = t.RollbackTransaction(ctx, &rdsdata.RollbackTransactionInput{
			ResourceArn:   aws.String(me.client.cfg.ResourceArn),
			SecretArn:     aws.String(me.client.cfg.SecretArn),
			TransactionId: aws.String(me.id),
		})
		return
	})
}
