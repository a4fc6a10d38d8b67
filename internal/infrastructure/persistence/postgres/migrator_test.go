package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/schoolhub/school-hub/pkg/retry"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_OrderedAndUnique(t *testing.T) {
	all := Migrations()
	require.NotEmpty(t, all)

	seen := map[int]bool{}
	for i, m := range all {
		assert.False(t, seen[m.Version], "duplicate version %d", m.Version)
		seen[m.Version] = true
		assert.NotEmpty(t, m.SQL, m.Name)
		if i > 0 {
			assert.Greater(t, m.Version, all[i-1].Version)
		}
	}
}

func TestPending(t *testing.T) {
	all := []Migration{{Version: 3, Name: "c"}, {Version: 1, Name: "a"}, {Version: 2, Name: "b"}}

	got := Pending(all, []AppliedMigration{{Version: 1}})
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Version)
	assert.Equal(t, 3, got[1].Version)

	assert.Empty(t, Pending(all, []AppliedMigration{{Version: 1}, {Version: 2}, {Version: 3}}))
	assert.Len(t, Pending(all, nil), 3)
}

func TestErrorClassification(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505"}
	fk := &pgconn.PgError{Code: "23503"}

	assert.True(t, IsUniqueViolation(unique))
	assert.True(t, IsUniqueViolation(errors.Join(errors.New("insert student"), unique)))
	assert.False(t, IsUniqueViolation(fk))
	assert.True(t, IsForeignKeyViolation(fk))
	assert.True(t, IsNoRows(pgx.ErrNoRows))
	assert.False(t, IsNoRows(errors.New("other")))
}

func TestMarkConnectError(t *testing.T) {
	refused := errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
	assert.True(t, retry.IsRetryable(markConnectError(refused)))
	assert.False(t, retry.IsPermanent(markConnectError(refused)))

	for _, code := range []string{"28P01", "28000", "3D000"} {
		err := markConnectError(fmt.Errorf("postgres: ping: %w", &pgconn.PgError{Code: code}))
		assert.True(t, retry.IsPermanent(err), code)
		assert.True(t, hasCode(err, code), "marking keeps the cause reachable")
	}
}

func TestNewConnectionFromURL_BadURLIsPermanent(t *testing.T) {
	_, err := NewConnectionFromURL(context.Background(), "postgres://%zz", PoolOptions{})
	require.Error(t, err)
	assert.True(t, retry.IsPermanent(err))
}
