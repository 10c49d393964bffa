package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"sales-forecast-client/internal/apperror"
	"sales-forecast-client/internal/dto"
	"sales-forecast-client/internal/service"
	"sales-forecast-client/internal/workflow"

	"golang.org/x/term"
)

// Workflow is what the REPL needs from *workflow.State.
type Workflow interface {
	Start(ctx context.Context)
	Snapshot() workflow.Snapshot
	RefreshStatus(ctx context.Context)
	Upload(ctx context.Context, fileName string, content []byte) (*dto.UploadResult, error)
	Train(ctx context.Context) (*dto.TrainResult, error)
	Predict(ctx context.Context, date, postalCode string) (*dto.PredictionResult, error)
	DeleteData(ctx context.Context) error
	Navigate(tab workflow.Tab) error
	LoadDashboard(ctx context.Context) (*workflow.Dashboard, error)
}

type App struct {
	workflow Workflow
	auth     service.IAuthService
	pipeline service.IPipelineService

	in  *bufio.Scanner
	out *Printer

	// readFile is swapped in tests.
	readFile func(name string) ([]byte, error)
	// readSecret reads without echo; nil when input is not a terminal.
	readSecret func() (string, error)
}

func NewApp(wf Workflow, auth service.IAuthService, pipeline service.IPipelineService, in io.Reader, out io.Writer) *App {
	app := &App{
		workflow: wf,
		auth:     auth,
		pipeline: pipeline,
		in:       bufio.NewScanner(in),
		out:      NewPrinter(out),
		readFile: os.ReadFile,
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		app.readSecret = func() (string, error) {
			b, err := term.ReadPassword(fd)
			app.out.Info("")
			return strings.TrimSpace(string(b)), err
		}
	}
	return app
}

type command struct {
	usage string
	help  string
	run   func(a *App, ctx context.Context, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"help":      {"help", "show this list", (*App).cmdHelp},
		"login":     {"login <email>", "log in (password is asked for)", (*App).cmdLogin},
		"register":  {"register <email> <username> [postal-code]", "create an account", (*App).cmdRegister},
		"logout":    {"logout", "end the session", (*App).cmdLogout},
		"whoami":    {"whoami", "show the logged in user", (*App).cmdWhoami},
		"status":    {"status", "show the workflow state", (*App).cmdStatus},
		"refresh":   {"refresh", "reconcile with the server", (*App).cmdRefresh},
		"upload":    {"upload <file.csv>", "upload POS data", (*App).cmdUpload},
		"train":     {"train", "train the model", (*App).cmdTrain},
		"predict":   {"predict <YYYY-MM-DD> <postal-code>", "forecast one day", (*App).cmdPredict},
		"delete":    {"delete", "delete all uploaded data and the model", (*App).cmdDelete},
		"dashboard": {"dashboard", "show dashboard and recent predictions", (*App).cmdDashboard},
		"tab":       {"tab <name>", "switch tab (dashboard, upload, statistics, predict, results, settings)", (*App).cmdTab},
		"settings":  {"settings [store|postal|username <value>]", "show or change profile", (*App).cmdSettings},
		"health":    {"health", "check the backend", (*App).cmdHealth},
	}
}

// Run reads commands until EOF or quit.
func (a *App) Run(ctx context.Context) error {
	a.out.Banner()

	if user, err := a.auth.Restore(ctx); err != nil {
		a.out.Error(err)
	} else if user != nil {
		a.out.Success("Welcome back, %s", user.DisplayName())
		a.workflow.Start(ctx)
		a.out.Snapshot(a.workflow.Snapshot())
	} else {
		a.out.Info("Not logged in. Use `login <email>` or `register`.")
	}

	for {
		a.out.Prompt(a.workflow.Snapshot())

		line, err := a.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				a.out.Info("Goodbye!")
				return nil
			}
			return err
		}

		if quit := a.Execute(ctx, line); quit {
			return nil
		}
	}
}

// Execute runs one command line and reports whether the REPL should stop.
func (a *App) Execute(ctx context.Context, line string) bool {
	name, args := ParseLine(line)
	if name == "" {
		return false
	}
	if name == "quit" || name == "exit" {
		a.out.Info("Goodbye!")
		return true
	}

	cmd, ok := commands[name]
	if !ok {
		a.out.Warn("Unknown command %q, try `help`", name)
		return false
	}
	if err := cmd.run(a, ctx, args); err != nil {
		a.out.Error(err)
	}
	return false
}

// ParseLine splits a command line on whitespace; double quotes group words
// so that paths with spaces survive.
func ParseLine(line string) (string, []string) {
	var (
		fields  []string
		current strings.Builder
		quoted  bool
		started bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
			started = true
		case !quoted && (r == ' ' || r == '\t'):
			if started {
				fields = append(fields, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
			started = true
		}
	}
	if started {
		fields = append(fields, current.String())
	}

	if len(fields) == 0 {
		return "", nil
	}
	return strings.ToLower(fields[0]), fields[1:]
}

func (a *App) readLine() (string, error) {
	if a.in.Scan() {
		return strings.TrimSpace(a.in.Text()), nil
	}
	if err := a.in.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (a *App) ask(prompt string) (string, error) {
	a.out.Ask(prompt)
	return a.readLine()
}

func (a *App) askSecret(prompt string) (string, error) {
	if a.readSecret == nil {
		return a.ask(prompt)
	}
	a.out.Ask(prompt)
	return a.readSecret()
}

func usageError(name string) error {
	return apperror.Validation("usage: %s", commands[name].usage)
}

func (a *App) cmdHelp(_ context.Context, _ []string) error {
	a.out.Help(commands)
	return nil
}

func (a *App) cmdLogin(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("login")
	}
	password, err := a.askSecret("Password")
	if err != nil {
		return err
	}

	user, err := a.auth.Login(ctx, &dto.LoginRequest{Email: args[0], Password: password})
	if err != nil {
		return err
	}
	a.out.Success("Logged in as %s", user.DisplayName())
	a.workflow.Start(ctx)
	a.out.Snapshot(a.workflow.Snapshot())
	return nil
}

func (a *App) cmdRegister(ctx context.Context, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return usageError("register")
	}
	req := &dto.RegisterRequest{Email: args[0], Username: args[1]}
	if len(args) == 3 {
		req.PostalCode = args[2]
	}

	storeName, err := a.ask("Store name (optional)")
	if err != nil {
		return err
	}
	req.StoreName = storeName
	if req.Password, err = a.askSecret("Password (6+ characters)"); err != nil {
		return err
	}

	user, err := a.auth.Register(ctx, req)
	if err != nil {
		return err
	}
	a.out.Success("Welcome, %s", user.DisplayName())
	a.workflow.Start(ctx)
	a.out.Snapshot(a.workflow.Snapshot())
	return nil
}

func (a *App) cmdLogout(ctx context.Context, _ []string) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	a.out.Success("Logged out")
	return nil
}

func (a *App) cmdWhoami(ctx context.Context, _ []string) error {
	user, err := a.auth.CurrentUser(ctx)
	if err != nil {
		return err
	}
	a.out.User(user)
	return nil
}

func (a *App) cmdStatus(_ context.Context, _ []string) error {
	a.out.Snapshot(a.workflow.Snapshot())
	return nil
}

func (a *App) cmdRefresh(ctx context.Context, _ []string) error {
	a.workflow.RefreshStatus(ctx)
	a.out.Snapshot(a.workflow.Snapshot())
	return nil
}

func (a *App) cmdUpload(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("upload")
	}
	path := args[0]
	// Rejected before the file is read.
	if err := workflow.ValidateUploadFile(path); err != nil {
		return err
	}
	content, err := a.readFile(path)
	if err != nil {
		return apperror.Validation("cannot read %s", path)
	}

	res, err := a.workflow.Upload(ctx, filepath.Base(path), content)
	if err != nil {
		return err
	}
	a.out.Success("%s (%d records)", res.Message, res.RecordsCount)
	a.out.Statistics(a.workflow.Snapshot().Stats)
	return nil
}

func (a *App) cmdTrain(ctx context.Context, _ []string) error {
	a.out.Info("Training, this can take a while...")
	res, err := a.workflow.Train(ctx)
	if err != nil {
		return err
	}
	a.out.Training(res)
	a.out.Statistics(a.workflow.Snapshot().Stats)
	return nil
}

func (a *App) cmdPredict(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usageError("predict")
	}
	res, err := a.workflow.Predict(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	a.out.Prediction(res)
	return nil
}

func (a *App) cmdDelete(ctx context.Context, _ []string) error {
	answer, err := a.ask("Delete all uploaded data and the trained model? [y/N]")
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
		a.out.Info("Cancelled")
		return nil
	}

	if err := a.workflow.DeleteData(ctx); err != nil {
		return err
	}
	a.out.Success("All data deleted")
	a.out.Snapshot(a.workflow.Snapshot())
	return nil
}

func (a *App) cmdDashboard(ctx context.Context, _ []string) error {
	d, err := a.workflow.LoadDashboard(ctx)
	if err != nil {
		return err
	}
	a.out.Dashboard(d)
	return nil
}

func (a *App) cmdTab(_ context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("tab")
	}
	tab, ok := workflow.ParseTab(args[0])
	if !ok {
		return apperror.Validation("unknown tab %q", args[0])
	}
	if err := a.workflow.Navigate(tab); err != nil {
		return err
	}

	snap := a.workflow.Snapshot()
	switch tab {
	case workflow.TabStatistics:
		a.out.Statistics(snap.Stats)
	case workflow.TabResults:
		a.out.Prediction(snap.Prediction)
	default:
		a.out.Snapshot(snap)
	}
	return nil
}

func (a *App) cmdSettings(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.cmdWhoami(ctx, nil)
	}
	if len(args) != 2 {
		return usageError("settings")
	}

	value := args[1]
	req := &dto.UserUpdateRequest{}
	switch strings.ToLower(args[0]) {
	case "store":
		req.StoreName = &value
	case "postal":
		req.PostalCode = &value
	case "username":
		req.Username = &value
	default:
		return usageError("settings")
	}

	user, err := a.auth.UpdateUser(ctx, req)
	if err != nil {
		return err
	}
	a.out.Success("Profile updated")
	a.out.User(user)
	return nil
}

func (a *App) cmdHealth(ctx context.Context, _ []string) error {
	res, err := a.pipeline.Health(ctx)
	if err != nil {
		return err
	}
	a.out.Success("Backend: %s", res.Message)
	return nil
}

