package core

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"

	"github.com/openclaw/clawhost/internal/paas"
)

// ---------- Mock DB ----------

// mockDB implements the DB interface for testing.
type mockDB struct {
	mock.Mock
}

func (m *mockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDB) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Rows), args.Error(1)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

// ---------- Mock Row ----------

// mockRow implements pgx.Row for testing.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (m *mockRow) Scan(dest ...any) error {
	return m.scanFunc(dest...)
}

// ---------- Mock Rows ----------

// mockRows implements pgx.Rows for testing.
// It iterates through a list of scan functions, one per row.
type mockRows struct {
	callIndex int
	scanFuncs []func(dest ...any) error
	err       error
}

func newMockRows(scanFuncs ...func(dest ...any) error) *mockRows {
	return &mockRows{scanFuncs: scanFuncs}
}

func (m *mockRows) Next() bool {
	return m.callIndex < len(m.scanFuncs)
}

func (m *mockRows) Scan(dest ...any) error {
	if m.callIndex < len(m.scanFuncs) {
		fn := m.scanFuncs[m.callIndex]
		m.callIndex++
		return fn(dest...)
	}
	return nil
}

func (m *mockRows) Err() error                                   { return m.err }
func (m *mockRows) Close()                                       {}
func (m *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (m *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (m *mockRows) RawValues() [][]byte                          { return nil }
func (m *mockRows) Values() ([]any, error)                       { return nil, nil }
func (m *mockRows) Conn() *pgx.Conn                              { return nil }

// ---------- Mock platform client ----------

// mockPlatform implements paas.Client for testing.
type mockPlatform struct {
	mock.Mock
}

func (m *mockPlatform) CreateService(ctx context.Context, name, image string, env map[string]string) (string, error) {
	args := m.Called(ctx, name, image, env)
	return args.String(0), args.Error(1)
}

func (m *mockPlatform) UpdateStartCommand(ctx context.Context, serviceID, cmd string) error {
	return m.Called(ctx, serviceID, cmd).Error(0)
}

func (m *mockPlatform) DeleteService(ctx context.Context, serviceID string) error {
	return m.Called(ctx, serviceID).Error(0)
}

func (m *mockPlatform) FindServiceByName(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func (m *mockPlatform) LatestDeployment(ctx context.Context, serviceID string) (*paas.Deployment, error) {
	args := m.Called(ctx, serviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paas.Deployment), args.Error(1)
}

func (m *mockPlatform) RestartDeployment(ctx context.Context, deploymentID string) error {
	return m.Called(ctx, deploymentID).Error(0)
}

func (m *mockPlatform) RedeployService(ctx context.Context, serviceID string) error {
	return m.Called(ctx, serviceID).Error(0)
}

func (m *mockPlatform) RemoveDeployment(ctx context.Context, deploymentID string) error {
	return m.Called(ctx, deploymentID).Error(0)
}

func (m *mockPlatform) Logs(ctx context.Context, deploymentID string, tail int) ([]paas.LogLine, error) {
	args := m.Called(ctx, deploymentID, tail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]paas.LogLine), args.Error(1)
}

func (m *mockPlatform) Exec(ctx context.Context, serviceID string, cmd []string) (*paas.ExecResult, error) {
	args := m.Called(ctx, serviceID, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paas.ExecResult), args.Error(1)
}

func (m *mockPlatform) InternalHost(serviceName string) string {
	return m.Called(serviceName).String(0)
}
