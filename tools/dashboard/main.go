package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"energy-cloud/internal/auth"
	"energy-cloud/internal/dashboard"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)
	cfg, err := dashboard.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	store, err := dashboard.NewSessionStore(cfg.SessionFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "session store:", err)
		os.Exit(2)
	}

	ctx := context.Background()
	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "login":
		err = runLogin(ctx, cfg, store, args)
	case "logout":
		err = store.Clear()
	case "show":
		err = runShow(ctx, cfg, store, logger)
	case "assign":
		err = runDeviceOp(ctx, cfg, store, logger, "assign", args)
	case "unassign":
		err = runDeviceOp(ctx, cfg, store, logger, "unassign", args)
	case "remove":
		err = runDeviceOp(ctx, cfg, store, logger, "remove", args)
	case "create":
		err = runCreate(ctx, cfg, store, logger, args)
	case "profile":
		err = runProfile(ctx, cfg, store, logger, args)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		if errors.Is(err, dashboard.ErrAuthRejected) {
			_ = store.Clear()
			fmt.Fprintln(os.Stderr, "session expired, log in again")
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: dashboard <login|logout|show|assign|unassign|remove|create|profile> [flags]")
}

func runLogin(ctx context.Context, cfg dashboard.Config, store *dashboard.SessionStore, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("username", cfg.Username, "account username")
	password := fs.String("password", os.Getenv("DASHBOARD_PASSWORD"), "account password")
	_ = fs.Parse(args)

	if *username == "" || *password == "" {
		return errors.New("missing --username or --password")
	}
	result, err := dashboard.Login(ctx, cfg.BaseURL, *username, *password)
	if err != nil {
		return err
	}
	if err := store.Save(dashboard.Session{Token: result.Token, Username: result.Username}); err != nil {
		return err
	}
	fmt.Printf("logged in as %s (%s)\n", result.Username, result.Role)
	return nil
}

// openSession gates on the stored token, loads the initial state and
// wires up the stores. Every authenticated command runs through it.
type sessionState struct {
	client *dashboard.Client
	state  *dashboard.LoadedState
	store  *dashboard.DeviceAssignmentStore
	editor *dashboard.ProfileEditor
}

func openSession(ctx context.Context, cfg dashboard.Config, sessions *dashboard.SessionStore, logger *log.Logger) (*sessionState, error) {
	gate, err := dashboard.NewSessionGate(sessions)
	if err != nil {
		return nil, err
	}
	session, result, err := gate.CheckSession()
	if err != nil {
		return nil, err
	}
	if result == dashboard.Redirect {
		return nil, errors.New("not logged in, run: dashboard login")
	}

	client, err := dashboard.NewClient(cfg.BaseURL, session.Token)
	if err != nil {
		return nil, err
	}
	loader, err := dashboard.NewResourceLoader(client, logger)
	if err != nil {
		return nil, err
	}
	state, err := loader.LoadInitialState(ctx)
	if err != nil {
		if errors.Is(err, dashboard.ErrAuthRejected) {
			_ = gate.Invalidate()
		}
		return nil, err
	}

	reporter := dashboard.NewErrorReporter(logger)
	role, _ := auth.NormalizeRole(state.Identity.Role)
	admin := role == auth.RoleAdmin
	devices, err := dashboard.NewDeviceAssignmentStore(client, reporter, state.Profile.ID, admin)
	if err != nil {
		return nil, err
	}
	devices.Seed(state.Owned, state.Available)
	editor, err := dashboard.NewProfileEditor(client, reporter, state.Profile)
	if err != nil {
		return nil, err
	}
	return &sessionState{client: client, state: state, store: devices, editor: editor}, nil
}

func runShow(ctx context.Context, cfg dashboard.Config, sessions *dashboard.SessionStore, logger *log.Logger) error {
	s, err := openSession(ctx, cfg, sessions, logger)
	if err != nil {
		return err
	}

	fmt.Printf("%s <%s> role=%s\n", s.state.Identity.Username, s.state.Profile.Email, s.state.Identity.Role)
	fmt.Println("owned devices:")
	printDevices(s.store.OwnedDevices())
	fmt.Println("available devices:")
	printDevices(s.store.AvailableDevices())
	return nil
}

func printDevices(list []dashboard.Device) {
	if len(list) == 0 {
		fmt.Println("  (none)")
		return
	}
	for _, d := range list {
		fmt.Printf("  %s  %-20s max=%.2f kWh  power=%.2f kW\n", d.ID, d.Name, d.MaximumConsumption, d.PowerConsumption)
	}
}

func runDeviceOp(ctx context.Context, cfg dashboard.Config, sessions *dashboard.SessionStore, logger *log.Logger, op string, args []string) error {
	fs := flag.NewFlagSet(op, flag.ExitOnError)
	deviceID := fs.String("device", "", "device id")
	_ = fs.Parse(args)
	if *deviceID == "" {
		return errors.New("missing --device")
	}

	s, err := openSession(ctx, cfg, sessions, logger)
	if err != nil {
		return err
	}

	switch op {
	case "assign":
		err = s.store.AssignToSelf(ctx, *deviceID)
	case "unassign":
		err = s.store.Unassign(ctx, *deviceID)
	case "remove":
		err = s.store.Remove(ctx, *deviceID)
	}
	if err != nil {
		return err
	}
	fmt.Printf("%s %s ok\n", op, *deviceID)
	return nil
}

func runCreate(ctx context.Context, cfg dashboard.Config, sessions *dashboard.SessionStore, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	name := fs.String("name", "", "device name")
	description := fs.String("description", "", "device description")
	maximum := fs.Float64("max", 0, "maximum consumption in kWh")
	power := fs.Float64("power", 0, "power consumption in kW")
	_ = fs.Parse(args)

	s, err := openSession(ctx, cfg, sessions, logger)
	if err != nil {
		return err
	}
	device, err := s.store.Create(ctx, dashboard.CreateDeviceRequest{
		Name:               *name,
		Description:        *description,
		MaximumConsumption: *maximum,
		PowerConsumption:   *power,
	})
	if err != nil {
		return err
	}
	fmt.Printf("created device %s\n", device.ID)
	return nil
}

func runProfile(ctx context.Context, cfg dashboard.Config, sessions *dashboard.SessionStore, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	set := fs.String("set", "", "comma-separated field=value pairs, e.g. email=a@b.c,city=Oslo")
	_ = fs.Parse(args)

	s, err := openSession(ctx, cfg, sessions, logger)
	if err != nil {
		return err
	}

	if *set == "" {
		p := s.editor.Profile()
		fmt.Printf("%s %s\n%s\n%s, %s, %s\n%s\n", p.FirstName, p.LastName, p.Email, p.Address, p.City, p.Country, p.PhoneNumber)
		return nil
	}

	if err := s.editor.BeginEdit(); err != nil {
		return err
	}
	for _, pair := range strings.Split(*set, ",") {
		field, value, ok := strings.Cut(pair, "=")
		if !ok {
			s.editor.Cancel()
			return fmt.Errorf("malformed pair %q", pair)
		}
		if err := s.editor.SetField(strings.TrimSpace(field), value); err != nil {
			s.editor.Cancel()
			return err
		}
	}
	if err := s.editor.Save(ctx); err != nil {
		return err
	}
	fmt.Println("profile updated")
	return nil
}
