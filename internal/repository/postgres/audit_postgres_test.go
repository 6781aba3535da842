package postgres

import (
	"context"
	"testing"
	"time"

	"compliancehub/internal/model"
	"compliancehub/internal/repository"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

var auditColumnNames = []string{"id", "ts", "actor_user_id", "actor_role", "actor_factory_id", "action", "object_type", "object_id", "metadata"}

func TestAuditPostgres_Append(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewAuditPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	entry := &model.AuditLogEntry{
		ID:             "log-1",
		Timestamp:      now,
		ActorUserID:    "F1",
		ActorRole:      model.RoleFactory,
		ActorFactoryID: "FAC-001",
		Action:         model.ActionCreate,
		ObjectType:     model.ObjectEvidence,
		ObjectID:       "ev-1",
		Metadata:       map[string]any{"docType": "certificate"},
	}

	raw := []byte(`{"docType":"certificate"}`)
	rows := sqlmock.NewRows(auditColumnNames).
		AddRow("log-1", now, "F1", "factory", "FAC-001", "create", "evidence", "ev-1", raw)

	mock.ExpectQuery("INSERT INTO audit_logs").
		WithArgs("log-1", now, "F1", "factory", "FAC-001", model.ActionCreate, model.ObjectEvidence, "ev-1", raw).
		WillReturnRows(rows)

	stored, err := repo.Append(ctx, entry)

	assert.NoError(t, err)
	assert.Equal(t, "log-1", stored.ID)
	assert.Equal(t, model.RoleFactory, stored.ActorRole)
	assert.Equal(t, "certificate", stored.Metadata["docType"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewAuditPostgres(db)
	ctx := context.Background()

	t.Run("returns a page with total", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM audit_logs").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

		rows := sqlmock.NewRows(auditColumnNames).
			AddRow("log-2", time.Now(), "B1", "buyer", nil, "update", "request", "req-1", []byte(`{"changes":{"status":["pending","cancelled"]}}`)).
			AddRow("log-1", time.Now(), "F1", "factory", "FAC-001", "create", "evidence", "ev-1", nil)

		mock.ExpectQuery("SELECT (.+) FROM audit_logs ORDER BY ts DESC").
			WithArgs(20, 0).
			WillReturnRows(rows)

		res, err := repo.List(ctx, repository.PageQuery{Limit: 20, Offset: 0})

		assert.NoError(t, err)
		assert.Equal(t, 42, res.Total)
		assert.Len(t, res.Items, 2)
		assert.Equal(t, "B1", res.Items[0].ActorUserID)
		assert.Equal(t, "", res.Items[0].ActorFactoryID)
		assert.NotNil(t, res.Items[1].Metadata)
	})

	t.Run("empty page", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM audit_logs").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery("SELECT (.+) FROM audit_logs ORDER BY ts DESC").
			WithArgs(20, 0).
			WillReturnRows(sqlmock.NewRows(auditColumnNames))

		res, err := repo.List(ctx, repository.PageQuery{Limit: 20, Offset: 0})

		assert.NoError(t, err)
		assert.Equal(t, 0, res.Total)
		assert.Empty(t, res.Items)
	})
}
