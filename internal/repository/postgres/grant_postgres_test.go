package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"compliancehub/internal/model"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestGrantPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewGrantPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	grant := &model.AccessGrant{
		VersionID: "ver-1",
		UserID:    "B1",
		GrantedBy: "F1",
		GrantedAt: now,
	}

	t.Run("inserts a new pair", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO access_grants").
			WithArgs("ver-1", "B1", "F1", now).
			WillReturnResult(sqlmock.NewResult(0, 1))

		created, err := repo.Create(ctx, grant)

		assert.NoError(t, err)
		assert.True(t, created)
	})

	t.Run("existing pair is a no-op", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO access_grants").
			WithArgs("ver-1", "B1", "F1", now).
			WillReturnResult(sqlmock.NewResult(0, 0))

		created, err := repo.Create(ctx, grant)

		assert.NoError(t, err)
		assert.False(t, created)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGrantPostgres_Find(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewGrantPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"version_id", "user_id", "granted_by", "granted_at"}).
			AddRow("ver-1", "B1", "F1", time.Now())

		mock.ExpectQuery("SELECT (.+) FROM access_grants WHERE version_id = ?").
			WithArgs("ver-1", "B1").
			WillReturnRows(rows)

		grant, err := repo.Find(ctx, "ver-1", "B1")

		assert.NoError(t, err)
		assert.Equal(t, "F1", grant.GrantedBy)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM access_grants WHERE version_id = ?").
			WithArgs("ver-1", "B2").
			WillReturnError(sql.ErrNoRows)

		grant, err := repo.Find(ctx, "ver-1", "B2")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, grant)
	})
}

func TestGrantPostgres_Exists(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewGrantPostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("ver-1", "B1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.Exists(ctx, "ver-1", "B1")

	assert.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGrantPostgres_ExistsForEvidence(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewGrantPostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("ev-1", "B1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	ok, err := repo.ExistsForEvidence(ctx, "ev-1", "B1")

	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
