package dataapi

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"strings"
)

func init() {
	sql.Register("dataapi", &dataAPIDriver{})
}

type dataAPIDriver struct{}

var (
	_ driver.DriverContext          = dataAPIDriver{}
	_ driver.ConnBeginTx            = (*conn)(nil)
	_ driver.ExecerContext          = (*conn)(nil)
	_ driver.QueryerContext         = (*conn)(nil)
	_ driver.Pinger                 = (*conn)(nil)
	_ driver.StmtExecContext        = (*stmt)(nil)
	_ driver.StmtQueryContext       = (*stmt)(nil)
	_ driver.RowsColumnTypeNullable = (*rows)(nil)
)

func (me dataAPIDriver) Open(name string) (ret driver.Conn, err error) {
	c, err := me.OpenConnector(name)
	if err != nil {
		return
	}
	return c.Connect(context.Background())
}

func (me dataAPIDriver) OpenConnector(name string) (ret driver.Connector, err error) {
	cfg, err := ParseDSN(name)
	if err != nil {
		return
	}
	client, err := Connect(context.Background(), cfg)
	if err != nil {
		return
	}
	ret = NewConnector(client)
	return
}

type connector struct {
	client *Client
}

// NewConnector exposes client through database/sql:
//
//	db := sql.OpenDB(dataapi.NewConnector(client))
func NewConnector(client *Client) driver.Connector {
	return &connector{client}
}

func (me *connector) Connect(context.Context) (driver.Conn, error) {
	return &conn{client: me.client}, nil
}

func (me *connector) Driver() driver.Driver {
	return dataAPIDriver{}
}

// A conn only remembers the transaction database/sql has open on it.
type conn struct {
	client *Client
	tx     *Tx
}

func (me *conn) txId() string {
	if me.tx == nil {
		return ""
	}
	return me.tx.id
}

func (me *conn) Begin() (driver.Tx, error) {
	return me.BeginTx(context.Background(), driver.TxOptions{})
}

func (me *conn) BeginTx(ctx context.Context, opts driver.TxOptions) (ret driver.Tx, err error) {
	if opts.Isolation != driver.IsolationLevel(sql.LevelDefault) {
		err = configErrorf("transaction", "isolation level %v is not supported", sql.IsolationLevel(opts.Isolation))
		return
	}
	if opts.ReadOnly {
		err = configErrorf("transaction", "read only transactions are not supported")
		return
	}
	tx, err := me.client.Begin(ctx)
	if err != nil {
		return
	}
	me.tx = tx
	ret = &connTx{me}
	return
}

type connTx struct {
	conn *conn
}

func (me *connTx) Commit() (err error) {
	err = me.conn.tx.Commit(context.Background())
	me.conn.tx = nil
	return
}

func (me *connTx) Rollback() (err error) {
	err = me.conn.tx.Rollback(context.Background())
	me.conn.tx = nil
	return
}

func (me *conn) Close() (err error) {
	if me.tx != nil {
		err = me.tx.Rollback(context.Background())
		me.tx = nil
	}
	return
}

func (me *conn) Ping(ctx context.Context) error {
	_, err := me.QueryContext(ctx, "SELECT 1", nil)
	return err
}

func (me *conn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	st, err := parseStatement(query)
	if err != nil {
		return nil, err
	}
	return me.exec(ctx, st, args)
}

func (me *conn) exec(ctx context.Context, st *statement, args []driver.NamedValue) (driver.Result, error) {
	rs, err := me.client.execute(ctx, me.txId(), st, args)
	if err != nil {
		return nil, err
	}
	return &result{rs}, nil
}

func (me *conn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	st, err := parseStatement(query)
	if err != nil {
		return nil, err
	}
	return me.query(ctx, st, args)
}

func (me *conn) query(ctx context.Context, st *statement, args []driver.NamedValue) (driver.Rows, error) {
	rs, err := me.client.execute(ctx, me.txId(), st, args)
	if err != nil {
		return nil, err
	}
	return &rows{rs: rs}, nil
}

func (me *conn) Prepare(query string) (driver.Stmt, error) {
	return me.PrepareContext(context.Background(), query)
}

// Nothing is prepared remotely. The statement is only parsed so that
// malformed placeholders fail early.
func (me *conn) PrepareContext(ctx context.Context, query string) (ret driver.Stmt, err error) {
	st, err := parseStatement(query)
	if err != nil {
		return
	}
	ret = &stmt{me, st}
	return
}

type stmt struct {
	conn *conn
	st   *statement
}

func (me *stmt) Close() error {
	return nil
}

// Arguments are checked against the placeholders by the Client, so that
// mismatches are ConfigurationErrors.
func (me *stmt) NumInput() int {
	return -1
}

func (me *stmt) Exec(args []driver.Value) (driver.Result, error) {
	return me.ExecContext(context.Background(), ordinalValues(args))
}

func (me *stmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	return me.conn.exec(ctx, me.st, args)
}

func (me *stmt) Query(args []driver.Value) (driver.Rows, error) {
	return me.QueryContext(context.Background(), ordinalValues(args))
}

func (me *stmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	return me.conn.query(ctx, me.st, args)
}

func ordinalValues(args []driver.Value) (ret []driver.NamedValue) {
	for i, v := range args {
		ret = append(ret, driver.NamedValue{Ordinal: i + 1, Value: v})
	}
	return
}

type rows struct {
	rs  *ResultSet
	pos int
}

func (me *rows) Close() error {
	return nil
}

func (me *rows) Next(dest []driver.Value) (err error) {
	if me.pos >= len(me.rs.Rows) {
		return io.EOF
	}
	record := me.rs.Rows[me.pos]
	if len(record) != len(dest) {
		return fmt.Errorf("record %d has %d fields, want %d columns", me.pos, len(record), len(dest))
	}
	for i, v := range record {
		dest[i] = v
	}
	me.pos++
	return
}

func (me *rows) Columns() []string {
	return me.rs.ColumnNames()
}

func (me *rows) ColumnTypeDatabaseTypeName(index int) string {
	return strings.ToUpper(me.rs.Columns[index].TypeName)
}

func (me *rows) ColumnTypeNullable(index int) (nullable, ok bool) {
	switch me.rs.Columns[index].Nullable {
	case ColumnNoNulls:
		return false, true
	case ColumnNullable:
		return true, true
	default:
		return false, false
	}
}

type result struct {
	rs *ResultSet
}

// Zero when the statement generated no key, as with MySQL drivers.
func (me *result) LastInsertId() (int64, error) {
	id, _ := me.rs.LastInsertID()
	return id, nil
}

func (me *result) RowsAffected() (int64, error) {
	return me.rs.RowsAffected, nil
}
