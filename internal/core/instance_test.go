package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/clawhost/internal/model"
)

func TestInstanceService_GetByID_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewInstanceService(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(noRow())

	_, err := svc.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInstanceService_GetByUser_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewInstanceService(db)
	ctx := context.Background()

	serviceID := "svc-1"
	want := model.Instance{
		ID:          "inst-1",
		UserID:      "user-1",
		ServiceID:   &serviceID,
		ServiceName: "openclaw-user-1",
		Port:        20001,
		Status:      model.StatusRunning,
	}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{"user-1"}).
		Return(&mockRow{scanFunc: scanInstance(want)})

	got, err := svc.GetByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "inst-1", got.ID)
	assert.Equal(t, "svc-1", *got.ServiceID)
	assert.Equal(t, model.StatusRunning, got.Status)
}

func TestInstanceService_ListActive(t *testing.T) {
	db := &mockDB{}
	svc := NewInstanceService(db)
	ctx := context.Background()

	rows := newMockRows(
		scanInstance(model.Instance{ID: "inst-1", UserID: "user-1", Status: model.StatusRunning}),
		scanInstance(model.Instance{ID: "inst-2", UserID: "user-2", Status: model.StatusDeploying}),
	)
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(rows, nil)

	instances, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, instances, 2)
	assert.Equal(t, "inst-1", instances[0].ID)
	assert.Equal(t, "inst-2", instances[1].ID)
}

func TestInstanceService_Create_InsertError(t *testing.T) {
	db := &mockDB{}
	svc := NewInstanceService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("db error"))

	now := time.Now()
	err := svc.Create(ctx, &model.Instance{ID: "inst-1", UserID: "user-1", CreatedAt: now, UpdatedAt: now})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert instance")
}

func TestInstanceService_NextPort(t *testing.T) {
	db := &mockDB{}
	svc := NewInstanceService(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error {
			*(dest[0].(*int)) = 20042
			return nil
		}})

	port, err := svc.NextPort(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20042, port)
}
