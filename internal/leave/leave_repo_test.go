package leave

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// The overlap check and the status write must run on the caller's
// transaction connection, not on the pool, so they commit and roll back
// together with the rest of the unit of work.
func TestRepository_WithTx_UsesCallerConnection(t *testing.T) {
	poolDB, poolMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer poolDB.Close()

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: poolDB}), &gorm.Config{})
	assert.NoError(t, err)

	txDB, txMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer txDB.Close()

	txMock.ExpectBegin()
	tx, err := txDB.Begin()
	assert.NoError(t, err)

	employeeID := uuid.New()
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 2)

	txMock.ExpectQuery(`SELECT count\(\*\) FROM "leaves"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	repo := NewRepository(gdb).WithTx(tx)

	overlapping, err := repo.HasOverlappingPending(context.Background(), employeeID.String(), start, end)
	assert.NoError(t, err)
	assert.True(t, overlapping)

	txMock.ExpectExec(`UPDATE "leaves" SET .+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	l := &Leave{
		ID:            uuid.New(),
		RequestNumber: "LV-000007",
		EmployeeID:    employeeID,
		LeaveType:     "ANNUAL",
		StartDate:     start,
		EndDate:       end,
		NumberOfDays:  3,
		Status:        StatusCancelled,
	}
	assert.NoError(t, repo.Update(context.Background(), l))

	txMock.ExpectRollback()
	assert.NoError(t, tx.Rollback())

	assert.NoError(t, txMock.ExpectationsWereMet())
	assert.NoError(t, poolMock.ExpectationsWereMet())
}
