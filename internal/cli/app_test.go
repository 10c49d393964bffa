package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"sales-forecast-client/internal/apperror"
	"sales-forecast-client/internal/dto"
	"sales-forecast-client/internal/workflow"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWorkflow struct {
	snap      workflow.Snapshot
	uploads   []string
	deletes   int
	predicted []string
	started   int
}

func (f *fakeWorkflow) Start(ctx context.Context) { f.started++ }
func (f *fakeWorkflow) Snapshot() workflow.Snapshot { return f.snap }
func (f *fakeWorkflow) RefreshStatus(ctx context.Context) {}
func (f *fakeWorkflow) Navigate(tab workflow.Tab) error { f.snap.Tab = tab; return nil }
func (f *fakeWorkflow) Train(ctx context.Context) (*dto.TrainResult, error) {
	return &dto.TrainResult{}, nil
}

func (f *fakeWorkflow) Upload(ctx context.Context, fileName string, content []byte) (*dto.UploadResult, error) {
	f.uploads = append(f.uploads, fileName)
	return &dto.UploadResult{Message: "uploaded", RecordsCount: 3}, nil
}

func (f *fakeWorkflow) Predict(ctx context.Context, date, postalCode string) (*dto.PredictionResult, error) {
	f.predicted = append(f.predicted, date+" "+postalCode)
	return &dto.PredictionResult{Date: date, PredictedSales: 51234, PredictedCustomers: 120}, nil
}

func (f *fakeWorkflow) DeleteData(ctx context.Context) error {
	f.deletes++
	return nil
}

func (f *fakeWorkflow) LoadDashboard(ctx context.Context) (*workflow.Dashboard, error) {
	return nil, apperror.AuthExpired()
}

type fakeAuth struct {
	loggedIn   *dto.LoginRequest
	registered *dto.RegisterRequest
}

func (f *fakeAuth) Login(ctx context.Context, req *dto.LoginRequest) (*dto.User, error) {
	f.loggedIn = req
	return &dto.User{Id: 1, Username: "owner", Email: req.Email}, nil
}
func (f *fakeAuth) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.User, error) {
	f.registered = req
	return &dto.User{Username: req.Username}, nil
}
func (f *fakeAuth) Logout(ctx context.Context) error { return nil }
func (f *fakeAuth) CurrentUser(ctx context.Context) (*dto.User, error) {
	return &dto.User{Username: "owner"}, nil
}
func (f *fakeAuth) UpdateUser(ctx context.Context, req *dto.UserUpdateRequest) (*dto.User, error) {
	return &dto.User{Username: "owner", StoreName: req.StoreName}, nil
}
func (f *fakeAuth) IsAuthenticated(ctx context.Context) bool { return f.loggedIn != nil }
func (f *fakeAuth) Restore(ctx context.Context) (*dto.User, error) { return nil, nil }
func (f *fakeAuth) OnLogout(fn func()) {}

func newTestApp(input string) (*App, *fakeWorkflow, *fakeAuth, *bytes.Buffer) {
	color.NoColor = true
	wf := &fakeWorkflow{}
	auth := &fakeAuth{}
	out := &bytes.Buffer{}
	app := NewApp(wf, auth, nil, strings.NewReader(input), out)
	return app, wf, auth, out
}

func TestParseLine(t *testing.T) {
	name, args := ParseLine(`  UPLOAD "my sales/2024 jan.csv"  `)
	assert.Equal(t, "upload", name)
	assert.Equal(t, []string{"my sales/2024 jan.csv"}, args)

	name, args = ParseLine("predict 2026-10-16\t1000001")
	assert.Equal(t, "predict", name)
	assert.Equal(t, []string{"2026-10-16", "1000001"}, args)

	name, _ = ParseLine("   ")
	assert.Empty(t, name)
}

func TestLoginAsksForPasswordAndStartsSession(t *testing.T) {
	app, wf, auth, out := newTestApp("secret1\n")

	app.Execute(context.Background(), "login owner@example.com")

	require.NotNil(t, auth.loggedIn)
	assert.Equal(t, "secret1", auth.loggedIn.Password)
	assert.Equal(t, 1, wf.started)
	assert.Contains(t, out.String(), "Logged in as owner")
}

func TestPasswordsUseSecretReader(t *testing.T) {
	app, _, auth, out := newTestApp("My Store\n")
	app.readSecret = func() (string, error) { return "hidden1", nil }

	app.Execute(context.Background(), "login owner@example.com")
	require.NotNil(t, auth.loggedIn)
	assert.Equal(t, "hidden1", auth.loggedIn.Password)
	assert.NotContains(t, out.String(), "hidden1")

	app.Execute(context.Background(), "register owner@example.com owner")
	assert.Equal(t, "My Store", auth.registered.StoreName)
	assert.Equal(t, "hidden1", auth.registered.Password)
}

func TestUploadRejectsNonCSVBeforeReading(t *testing.T) {
	app, wf, _, out := newTestApp("")
	read := false
	app.readFile = func(string) ([]byte, error) { read = true; return nil, nil }

	app.Execute(context.Background(), "upload sales.xlsx")

	assert.False(t, read)
	assert.Empty(t, wf.uploads)
	assert.Contains(t, out.String(), "please select a CSV file")
}

func TestUploadSendsBaseName(t *testing.T) {
	app, wf, _, out := newTestApp("")
	app.readFile = func(string) ([]byte, error) { return []byte("date,sales\n"), nil }

	app.Execute(context.Background(), `upload "/tmp/pos exports/sales.csv"`)

	assert.Equal(t, []string{"sales.csv"}, wf.uploads)
	assert.Contains(t, out.String(), "3 records")
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	app, wf, _, out := newTestApp("n\ny\n")

	app.Execute(context.Background(), "delete")
	assert.Equal(t, 0, wf.deletes)
	assert.Contains(t, out.String(), "Cancelled")

	app.Execute(context.Background(), "delete")
	assert.Equal(t, 1, wf.deletes)
}

func TestPredictUsage(t *testing.T) {
	app, wf, _, out := newTestApp("")

	app.Execute(context.Background(), "predict 2026-10-16")
	assert.Empty(t, wf.predicted)
	assert.Contains(t, out.String(), "usage: predict")

	app.Execute(context.Background(), "predict 2026-10-16 1000001")
	assert.Equal(t, []string{"2026-10-16 1000001"}, wf.predicted)
	assert.Contains(t, out.String(), "Forecast for 2026-10-16")
}

func TestAuthExpiredHint(t *testing.T) {
	app, _, _, out := newTestApp("")

	app.Execute(context.Background(), "dashboard")

	assert.Contains(t, out.String(), apperror.MsgAuthExpired)
	assert.Contains(t, out.String(), "login <email>")
}

func TestQuitAndUnknown(t *testing.T) {
	app, _, _, out := newTestApp("")

	assert.False(t, app.Execute(context.Background(), "frobnicate"))
	assert.Contains(t, out.String(), "Unknown command")
	assert.True(t, app.Execute(context.Background(), "quit"))
}

func TestRunStopsAtEOF(t *testing.T) {
	app, _, _, out := newTestApp("status\n")

	require.NoError(t, app.Run(context.Background()))
	assert.Contains(t, out.String(), "Not logged in")
	assert.Contains(t, out.String(), "Goodbye!")
}

func TestFallbackStatisticsNeverShowZero(t *testing.T) {
	color.NoColor = true
	out := &bytes.Buffer{}
	p := NewPrinter(out)

	p.Statistics(workflow.EmptyFallback())

	assert.Contains(t, out.String(), "Records:    unknown")
	assert.Contains(t, out.String(), "Date range: unknown")
	assert.Contains(t, out.String(), "not available")
	assert.NotContains(t, out.String(), "¥0")
}

func TestSortedKeysNumeric(t *testing.T) {
	keys := sortedKeys(map[string]float64{"10": 1, "2": 1, "1": 1, "晴": 1})
	assert.Equal(t, []string{"1", "2", "10", "晴"}, keys)
}
