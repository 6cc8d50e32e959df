package repository

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	return db, mock
}

// Pins the aggregation shape: the ranking joins through projects to tasks and
// sums the self-resolved flag per owning organization.
func TestSelfResolvedTaskCountsQuery(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewOrganizationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("organizations.name AS org_name")).
		WillReturnRows(sqlmock.NewRows([]string{"org_name", "resolved_count"}).
			AddRow("Red Umbrella", 3).
			AddRow("Helping Hands", 1))

	rows, err := repo.SelfResolvedTaskCounts()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Red Umbrella", rows[0].OrgName)
	require.Equal(t, int64(3), rows[0].ResolvedCount)

	require.NoError(t, mock.ExpectationsWereMet())
}
