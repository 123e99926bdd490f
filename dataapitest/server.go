package dataapitest

import (
	"database/sql"
	"fmt"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// Any non-empty ARNs are accepted. These are for tests to use.
const (
	ResourceArn = "arn:aws:rds:us-east-1:123456789012:cluster:dataapitest"
	SecretArn   = "arn:aws:secretsmanager:us-east-1:123456789012:secret:dataapitest"
)

type Server struct {
	*Service
	HTTP *httptest.Server
}

func (me *Server) URL() string {
	return me.HTTP.URL
}

func (me *Server) Close() {
	me.HTTP.Close()
	me.DB.Close()
}

var dbSeq int64

// Start serves a Service backed by a fresh in-memory SQLite database. It's
// closed when the test ends.
func Start(t testing.TB) *Server {
	// One connection, so an open transaction blocks other statements.
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:dataapitest%d?mode=memory&cache=shared", atomic.AddInt64(&dbSeq, 1)))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	s := &Server{
		Service: &Service{DB: db, Expiry: time.Minute},
	}
	s.HTTP = httptest.NewServer(s.Service)
	t.Cleanup(s.Close)
	return s
}
