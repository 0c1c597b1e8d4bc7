package sqlxrepos

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

var errUnique = &pq.Error{Code: uniqueViolation}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	// postgres bind vars ($1, $2...) for named queries
	return sqlx.NewDb(db, "postgres"), mock
}

func q(s string) string { return regexp.QuoteMeta(s) }
