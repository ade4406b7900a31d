package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/jrsteele09/cirota-portal/auth"
	"github.com/jrsteele09/cirota-portal/client"
	"github.com/jrsteele09/cirota-portal/googleauth"
	interrors "github.com/jrsteele09/cirota-portal/internal/errors"
	"github.com/jrsteele09/cirota-portal/portal"
	"github.com/pkg/errors"
)

// access is what a command needs from the session before it runs.
type access int

const (
	accessNone    access = iota // Runs without touching the stored session
	accessSession               // Resolves the stored session first
	accessUser                  // Signed-in customer
	accessAdmin                 // Signed-in admin
)

type command struct {
	name   string
	usage  string
	help   string
	access access
	run    func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{name: "login", usage: "login [-google-token T]", help: "sign in with Google", access: accessNone, run: runLogin},
	{name: "logout", usage: "logout", help: "sign out and forget the session", access: accessNone, run: runLogout},
	{name: "whoami", usage: "whoami", help: "show the signed-in user", access: accessSession, run: runWhoami},
	{name: "status", usage: "status", help: "show the session state", access: accessSession, run: runStatus},
	{name: "refresh", usage: "refresh", help: "revalidate the session now", access: accessNone, run: runRefresh},
	{name: "profile", usage: "profile", help: "show your profile", access: accessUser, run: runProfile},
	{name: "quiz", usage: "quiz -file F", help: "submit the personalisation quiz", access: accessUser, run: runQuiz},
	{name: "meals", usage: "meals today|upcoming [-days N]|confirm ID", help: "your meal assignments", access: accessUser, run: runMeals},
	{name: "plans", usage: "plans", help: "list subscription plans", access: accessUser, run: runPlans},
	{name: "subscribe", usage: "subscribe PLAN", help: "subscribe to a plan", access: accessUser, run: runSubscribe},
	{name: "subscription", usage: "subscription", help: "show your current subscription", access: accessUser, run: runSubscription},
	{name: "complaints", usage: "complaints", help: "list your complaints", access: accessUser, run: runComplaints},
	{name: "complain", usage: "complain -assignment ID -type T -description D", help: "raise a complaint", access: accessUser, run: runComplain},
	{name: "admin", usage: "admin dashboard|customers|meals|...", help: "back office (admins only)", access: accessAdmin, run: runAdmin},
}

func lookup(name string) (command, bool) {
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd, true
		}
	}
	return command{}, false
}

func (a *app) dispatch(ctx context.Context, name string, args []string) error {
	cmd, ok := lookup(name)
	if !ok {
		return errors.Errorf("[dispatch] unknown command %q", name)
	}

	if cmd.access != accessNone {
		a.manager.Start(ctx)
	}
	if err := a.authorize(cmd.access); err != nil {
		return err
	}

	err := cmd.run(ctx, a, args)
	if cmd.access >= accessUser && client.IsUnauthorized(err) {
		// The access token ran out after Start; refresh once and retry.
		if a.manager.RefreshSession(ctx) == auth.StateAuthenticated {
			err = cmd.run(ctx, a, args)
		}
	}
	return err
}

func (a *app) authorize(level access) error {
	var err error
	switch level {
	case accessUser:
		err = portal.RequireUser(a.manager)
	case accessAdmin:
		err = portal.RequireAdmin(a.manager)
	}
	if err == nil {
		return nil
	}

	switch portal.RedirectFor(err) {
	case portal.ViewLogin:
		return errors.Wrap(err, "run 'portal login' first")
	case portal.ViewAdmin:
		return errors.Wrap(err, "signed in as an admin, use the 'admin' commands")
	default:
		return errors.Wrap(err, "signed in as a customer")
	}
}

type statusView struct {
	State         string `json:"state"`
	Authenticated bool   `json:"authenticated"`
	Admin         bool   `json:"admin"`
	Home          string `json:"home"`
	LastError     string `json:"last_error,omitempty"`
}

func (a *app) status() statusView {
	s := a.manager.Snapshot()
	return statusView{
		State:         s.State.String(),
		Authenticated: s.IsAuthenticated(),
		Admin:         s.IsAdmin(),
		Home:          portal.HomeFor(s),
		LastError:     s.LastError,
	}
}

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := a.flags("login")
	googleToken := fs.String("google-token", "", "Google ID token; without it the browser sign-in is started")
	if err := fs.Parse(args); err != nil {
		return err
	}

	credential := *googleToken
	if credential == "" {
		var err error
		if credential, err = a.googleSignIn(ctx); err != nil {
			return err
		}
	}

	user, err := a.manager.Login(ctx, credential)
	if err != nil {
		return err
	}
	return a.print(map[string]any{"user": user, "home": portal.HomeFor(a.manager)})
}

// googleSignIn runs the browser code flow and returns the ID token.
func (a *app) googleSignIn(ctx context.Context) (string, error) {
	flow, err := googleauth.New(ctx, googleauth.ConfigFrom(a.config), googleauth.WithLogger(a.log))
	if err != nil {
		return "", err
	}
	redirect, err := flow.RedirectURL()
	if err != nil {
		return "", errors.Wrap(err, "[googleSignIn] bad redirect url")
	}
	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return "", errors.Wrapf(err, "[googleSignIn] listening on %s", redirect.Host)
	}

	state, verifier := googleauth.NewState()
	fmt.Fprintf(a.stderr, "Open this URL to sign in with Google:\n\n  %s\n\n", flow.AuthCodeURL(state, verifier))

	code, err := flow.ReceiveCode(ctx, listener, state)
	if err != nil {
		return "", err
	}
	return flow.Exchange(ctx, code, verifier)
}

func runLogout(_ context.Context, a *app, _ []string) error {
	a.manager.Logout()
	return a.print(a.status())
}

func runWhoami(_ context.Context, a *app, _ []string) error {
	if !a.manager.IsAuthenticated() {
		return errors.Wrap(interrors.ErrNotAuthenticated, "run 'portal login' first")
	}
	return a.print(a.manager.User())
}

func runStatus(_ context.Context, a *app, _ []string) error {
	return a.print(a.status())
}

func runRefresh(ctx context.Context, a *app, _ []string) error {
	a.manager.RefreshSession(ctx)
	return a.print(a.status())
}

func runProfile(ctx context.Context, a *app, _ []string) error {
	user, err := a.portal.Users.Profile(ctx)
	if err != nil {
		return err
	}
	return a.print(user)
}

func runQuiz(ctx context.Context, a *app, args []string) error {
	fs := a.flags("quiz")
	file := fs.String("file", "", "JSON file with the quiz answers")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var quiz portal.QuizSubmission
	if err := readJSONFile(*file, &quiz); err != nil {
		return err
	}
	resp, err := a.portal.Users.SubmitQuiz(ctx, quiz)
	if err != nil {
		return err
	}
	return a.print(resp)
}

func runMeals(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: meals today|upcoming [-days N]|confirm ID")
	}

	switch args[0] {
	case "today":
		meals, err := a.portal.Meals.Today(ctx)
		if err != nil {
			return err
		}
		return a.print(meals)
	case "upcoming":
		fs := a.flags("meals upcoming")
		days := fs.Int("days", portal.DefaultUpcomingDays, "how many days ahead")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		meals, err := a.portal.Meals.Upcoming(ctx, *days)
		if err != nil {
			return err
		}
		return a.print(meals)
	case "confirm":
		id, err := argID(args, 1, "assignment")
		if err != nil {
			return err
		}
		resp, err := a.portal.Meals.ConfirmDelivery(ctx, id)
		if err != nil {
			return err
		}
		return a.print(resp)
	default:
		return errors.Errorf("unknown meals command %q", args[0])
	}
}

func runPlans(ctx context.Context, a *app, _ []string) error {
	plans, err := a.portal.Subscriptions.Plans(ctx)
	if err != nil {
		return err
	}
	return a.print(plans)
}

func runSubscribe(ctx context.Context, a *app, args []string) error {
	id, err := argID(args, 0, "plan")
	if err != nil {
		return err
	}
	sub, err := a.portal.Subscriptions.Subscribe(ctx, id)
	if err != nil {
		return err
	}
	return a.print(sub)
}

func runSubscription(ctx context.Context, a *app, _ []string) error {
	sub, err := a.portal.Subscriptions.Current(ctx)
	if err != nil {
		return err
	}
	return a.print(sub)
}

func runComplaints(ctx context.Context, a *app, _ []string) error {
	complaints, err := a.portal.Complaints.List(ctx)
	if err != nil {
		return err
	}
	return a.print(complaints)
}

func runComplain(ctx context.Context, a *app, args []string) error {
	fs := a.flags("complain")
	assignment := fs.Int("assignment", 0, "meal assignment id")
	kind := fs.String("type", "", "complaint type")
	description := fs.String("description", "", "what went wrong")
	if err := fs.Parse(args); err != nil {
		return err
	}

	created, err := a.portal.Complaints.Create(ctx, portal.ComplaintCreate{
		AssignmentID: *assignment,
		Type:         *kind,
		Description:  *description,
	})
	if err != nil {
		return err
	}
	return a.print(created)
}

func runAdmin(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: admin dashboard|customers|meals|create-meal -file F|update-meal ID -file F|complaints|resolve ID")
	}
	admin := a.portal.Admin

	var out any
	var err error
	switch args[0] {
	case "dashboard":
		out, err = admin.Dashboard(ctx)
	case "customers":
		out, err = admin.Customers(ctx)
	case "meals":
		out, err = admin.Meals(ctx)
	case "complaints":
		out, err = admin.Complaints(ctx)
	case "create-meal":
		var meal portal.MealCreate
		if err := a.readFileFlag("admin create-meal", args[1:], &meal); err != nil {
			return err
		}
		out, err = admin.CreateMeal(ctx, meal)
	case "update-meal":
		id, idErr := argID(args, 1, "meal")
		if idErr != nil {
			return idErr
		}
		var update portal.MealUpdate
		if err := a.readFileFlag("admin update-meal", args[2:], &update); err != nil {
			return err
		}
		out, err = admin.UpdateMeal(ctx, id, update)
	case "resolve":
		id, idErr := argID(args, 1, "complaint")
		if idErr != nil {
			return idErr
		}
		out, err = admin.ResolveComplaint(ctx, id)
	default:
		return errors.Errorf("unknown admin command %q", args[0])
	}
	if err != nil {
		return err
	}
	return a.print(out)
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func (a *app) readFileFlag(name string, args []string, v any) error {
	fs := a.flags(name)
	file := fs.String("file", "", "JSON file with the request body")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return readJSONFile(*file, v)
}

func readJSONFile(path string, v any) error {
	if path == "" {
		return errors.New("-file is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "decoding %s", path)
	}
	return nil
}

func argID(args []string, i int, what string) (int, error) {
	if len(args) <= i {
		return 0, errors.Errorf("missing %s id", what)
	}
	id, err := strconv.Atoi(args[i])
	if err != nil || id <= 0 {
		return 0, errors.Errorf("invalid %s id %q", what, args[i])
	}
	return id, nil
}
