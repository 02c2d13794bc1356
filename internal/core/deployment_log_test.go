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

func TestDeploymentLogService_Append(t *testing.T) {
	db := &mockDB{}
	svc := NewDeploymentLogService(db)
	ctx := context.Background()

	errMsg := "image pull failed"
	db.On("Exec", ctx, mock.AnythingOfType("string"),
		mock.MatchedBy(func(args []any) bool {
			return args[1] == "inst-1" &&
				args[2] == model.ActionDeploy &&
				args[3] == model.LogFailed &&
				args[5] == &errMsg
		})).Return(pgconn.CommandTag{}, nil)

	err := svc.Append(ctx, "inst-1", model.ActionDeploy, model.LogFailed, "deployment failed", &errMsg)
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestDeploymentLogService_Append_Error(t *testing.T) {
	db := &mockDB{}
	svc := NewDeploymentLogService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("db error"))

	err := svc.Append(ctx, "inst-1", model.ActionDeploy, model.LogInProgress, "msg", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append deployment log")
}

func TestDeploymentLogService_ListByInstance(t *testing.T) {
	db := &mockDB{}
	svc := NewDeploymentLogService(db)
	ctx := context.Background()

	now := time.Now()
	scanLog := func(id, action, status string) func(dest ...any) error {
		return func(dest ...any) error {
			*(dest[0].(*string)) = id
			*(dest[1].(*string)) = "inst-1"
			*(dest[2].(*string)) = action
			*(dest[3].(*string)) = status
			*(dest[4].(*string)) = "msg"
			*(dest[5].(**string)) = nil
			*(dest[6].(*time.Time)) = now
			return nil
		}
	}

	rows := newMockRows(
		scanLog("log-2", model.ActionRestart, model.LogSuccess),
		scanLog("log-1", model.ActionDeploy, model.LogQueued),
	)
	db.On("Query", ctx, mock.AnythingOfType("string"), []any{"inst-1", 50}).Return(rows, nil)

	logs, err := svc.ListByInstance(ctx, "inst-1", 50)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "log-2", logs[0].ID)
	assert.Equal(t, model.ActionRestart, logs[0].Action)
}
