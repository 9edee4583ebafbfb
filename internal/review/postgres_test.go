package review

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	mock.ExpectPing()
	store, err := NewPostgresStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, mock
}

func reviewColumns() []string {
	return []string{
		"id", "patient_id", "finding_key", "finding_type",
		"severity", "status", "reviewer", "reason",
		"created_at", "updated_at",
	}
}

func TestNewPostgresStoreRequiresConnection(t *testing.T) {
	_, err := NewPostgresStore(nil)
	assert.Error(t, err)
}

func TestPostgresSaveUpserts(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO reviews").
		WithArgs("p1", "k1", "drug_interaction", "major", "dismissed", "dr.jones",
			"intentional", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), now))

	review := &Review{
		PatientID:   "p1",
		FindingKey:  "k1",
		FindingType: "drug_interaction",
		Severity:    "major",
		Status:      StatusDismissed,
		Reviewer:    "dr.jones",
		Reason:      "intentional",
	}
	err := store.Save(context.Background(), review)

	require.NoError(t, err)
	assert.Equal(t, int64(7), review.ID)
	assert.Equal(t, now, review.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGet(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM reviews").
		WithArgs("p1", "k1").
		WillReturnRows(sqlmock.NewRows(reviewColumns()).
			AddRow(int64(7), "p1", "k1", "drug_interaction", "major", "dismissed",
				"dr.jones", "intentional", now, now))

	got, err := store.Get(context.Background(), "p1", "k1")

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, StatusDismissed, got.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetMissingReturnsNil(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM reviews").
		WithArgs("p1", "nope").
		WillReturnError(sql.ErrNoRows)

	got, err := store.Get(context.Background(), "p1", "nope")

	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListForPatient(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM reviews").
		WithArgs("p1", 50, 0).
		WillReturnRows(sqlmock.NewRows(reviewColumns()).
			AddRow(int64(2), "p1", "k2", "allergy_conflict", "contraindicated", "confirmed",
				"dr.smith", "", now, now).
			AddRow(int64(1), "p1", "k1", "drug_interaction", "major", "dismissed",
				"dr.jones", "intentional", now.Add(-time.Hour), now.Add(-time.Hour)))

	reviews, err := store.ListForPatient(context.Background(), "p1", 50, 0)

	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, "k2", reviews[0].FindingKey)
	assert.Equal(t, StatusConfirmed, reviews[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCount(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(12)))

	count, err := store.Count(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(12), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDelete(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM reviews").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Delete(context.Background(), 7)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
