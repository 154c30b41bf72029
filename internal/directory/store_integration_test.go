//go:build integration

package directory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbis-edu/orbis/internal/log"
	"github.com/orbis-edu/orbis/internal/testutil"
)

func seedOrg(t *testing.T, pool *pgxpool.Pool) (depID, posID int64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO t_departments (name) VALUES ('Engineering') RETURNING id`).Scan(&depID))
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO t_positions (title) VALUES ('Lecturer') RETURNING id`).Scan(&posID))
	return depID, posID
}

func TestStore_EmployeeLifecycle(t *testing.T) {
	ctx := context.Background()
	tdb, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store, err := NewStore(tdb.Pool, log.NewNop())
	require.NoError(t, err)

	testutil.CleanTables(t, tdb.Pool)
	depID, posID := seedOrg(t, tdb.Pool)

	hired := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	id, err := store.CreateEmployee(ctx, Employee{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        "ada@example.edu",
		DepartmentID: &depID,
		PositionID:   &posID,
		HiredAt:      &hired,
	})
	require.NoError(t, err)

	got, err := store.GetEmployee(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.FirstName)
	assert.Equal(t, "Engineering", got.DepartmentName)
	assert.Equal(t, "Lecturer", got.PositionTitle)
	assert.Equal(t, "ada@example.edu", got.Email)

	got.Employee.LastName = "Byron"
	require.NoError(t, store.UpdateEmployee(ctx, got.Employee))

	updated, err := store.GetEmployee(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Byron", updated.LastName)

	require.NoError(t, store.DeleteEmployee(ctx, id))
	_, err = store.GetEmployee(ctx, id)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(store.DeleteEmployee(ctx, id), ErrNotFound))
}

func TestStore_ListEmployeesJoinsAndNulls(t *testing.T) {
	ctx := context.Background()
	tdb, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store, err := NewStore(tdb.Pool, log.NewNop())
	require.NoError(t, err)

	testutil.CleanTables(t, tdb.Pool)
	depID, posID := seedOrg(t, tdb.Pool)

	_, err = store.CreateEmployee(ctx, Employee{
		FirstName: "Ada", LastName: "Lovelace", DepartmentID: &depID, PositionID: &posID,
	})
	require.NoError(t, err)
	// No department, position, or email at all.
	_, err = store.CreateEmployee(ctx, Employee{FirstName: "Zed", LastName: "Zero"})
	require.NoError(t, err)

	views, err := store.ListEmployees(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, "Lovelace", views[0].LastName, "ordered by last name")
	assert.Equal(t, "Engineering", views[0].DepartmentName)

	assert.Equal(t, "Zero", views[1].LastName)
	assert.Empty(t, views[1].DepartmentName, "missing department reads as empty string")
	assert.Empty(t, views[1].PositionTitle)
	assert.Empty(t, views[1].Email)
	assert.Nil(t, views[1].DepartmentID)
}

func TestStore_EmptyEmailNotUnique(t *testing.T) {
	ctx := context.Background()
	tdb, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store, err := NewStore(tdb.Pool, log.NewNop())
	require.NoError(t, err)

	testutil.CleanTables(t, tdb.Pool)

	// Two employees without email must both insert; NULLIF keeps the
	// unique constraint off empty strings.
	_, err = store.CreateEmployee(ctx, Employee{FirstName: "A", LastName: "One"})
	require.NoError(t, err)
	_, err = store.CreateEmployee(ctx, Employee{FirstName: "B", LastName: "Two"})
	require.NoError(t, err)
}

func TestStore_ListDepartmentsAndPositions(t *testing.T) {
	ctx := context.Background()
	tdb, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store, err := NewStore(tdb.Pool, log.NewNop())
	require.NoError(t, err)

	testutil.CleanTables(t, tdb.Pool)
	seedOrg(t, tdb.Pool)

	deps, err := store.ListDepartments(ctx)
	require.NoError(t, err)
	require.Len(t, deps, 1)
	assert.Equal(t, "Engineering", deps[0].Name)

	positions, err := store.ListPositions(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, "Lecturer", positions[0].Title)
}
