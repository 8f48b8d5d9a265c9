package main

import (
	"context"
	"flag"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"partyplanner/internal/adapters/http/api"
	"partyplanner/internal/application/orchestrators"
	"partyplanner/internal/application/projections"
	"partyplanner/internal/domain/customer"
	"partyplanner/internal/domain/event"
	"partyplanner/internal/domain/schedule"
)

// Input layouts accepted on the command line.
const (
	dateTimeLayout = "2006-01-02 15:04"
	monthLayout    = "2006-01"
)

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("login")
	email := fs.String("email", "", "admin email")
	password := fs.String("password", "", "admin password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "email", "password"); err != nil {
		return err
	}
	res, err := a.client.Login(ctx, *email, *password)
	if err != nil {
		return fmt.Errorf("login: %s", orchestrators.MessageOf(err))
	}
	fmt.Fprintf(a.out, "Logged in until %s\n", res.ExpiresAt.In(a.loc).Format(dateTimeLayout))
	fmt.Fprintf(a.out, "export PARTY_API_TOKEN=%s\n", res.Token)
	return nil
}

func runHashPassword(_ context.Context, a *app, args []string) error {
	fs := a.newFlags("hash-password")
	password := fs.String("password", "", "password to hash")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "password"); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "PARTY_ADMIN_PASSWORD_HASH=%s\n", hash)
	return nil
}

func runCustomer(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("customer")
	var c customer.Customer
	fs.StringVar(&c.Name, "name", "", "customer name")
	fs.StringVar(&c.Mobile, "mobile", "", "mobile number")
	fs.StringVar(&c.Phone, "phone", "", "landline (optional)")
	fs.StringVar(&c.Email, "email", "", "email (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}
	saved, err := a.client.SaveCustomer(ctx, c)
	if err != nil {
		return fmt.Errorf("customer: %s", orchestrators.MessageOf(err))
	}
	fmt.Fprintf(a.out, "Customer %s created: %s\n", saved.Name, saved.ID)
	return nil
}

// eventFlags binds the editable event fields to fs.
type eventFlags struct {
	length, address, theme, person, description, value string
}

func bindEventFlags(fs *flag.FlagSet) *eventFlags {
	f := &eventFlags{}
	fs.StringVar(&f.length, "length", "", "package size: small|medium|large (or P|M|G)")
	fs.StringVar(&f.address, "address", "", "party address")
	fs.StringVar(&f.theme, "theme", "", "party theme")
	fs.StringVar(&f.person, "person", "", "birthday person")
	fs.StringVar(&f.description, "description", "", "notes")
	fs.StringVar(&f.value, "value", "", "price, e.g. 1500.50")
	return f
}

func parseLength(s string) (event.Length, error) {
	if l := event.Length(strings.ToLower(strings.TrimSpace(s))); event.IsValidLength(l) {
		return l, nil
	}
	return event.LengthFromCode(s)
}

func parseValue(s string) (int64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid value %q", s)
	}
	return api.ValueToCents(v), nil
}

func runBook(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("book")
	customerID := fs.String("customer", "", "customer ID")
	at := fs.String("at", "", "party start, "+dateTimeLayout)
	f := bindEventFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "customer", "at", "length", "address", "theme", "person"); err != nil {
		return err
	}
	proposed, err := time.ParseInLocation(dateTimeLayout, *at, a.loc)
	if err != nil {
		return fmt.Errorf("invalid -at %q, want %s", *at, dateTimeLayout)
	}
	length, err := parseLength(f.length)
	if err != nil {
		return err
	}
	var cents int64
	if f.value != "" {
		if cents, err = parseValue(f.value); err != nil {
			return err
		}
	}

	c, err := a.client.GetCustomer(ctx, *customerID)
	if err != nil {
		return fmt.Errorf("customer %s: %s", *customerID, orchestrators.MessageOf(err))
	}
	p, err := a.planner(ctx)
	if err != nil {
		return err
	}
	b, err := p.CreateBudget(ctx, orchestrators.CreateBudgetInput{
		Length:         length,
		Address:        f.address,
		Theme:          f.theme,
		BirthdayPerson: f.person,
		Description:    f.description,
		ValueCents:     cents,
		Customer:       c,
		ProposedAt:     proposed,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Booked %s party for %s on %s\n", b.Event.Theme, b.Event.BirthdayPerson, b.At().In(a.loc).Format(dateTimeLayout))
	fmt.Fprintf(a.out, "event %s, schedule %s\n", b.Event.ID, b.Schedule.ID)
	return nil
}

func runEdit(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("edit")
	eventID := fs.String("event", "", "event ID")
	f := bindEventFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "event"); err != nil {
		return err
	}

	var changes event.Changes
	var perr error
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "length":
			l, err := parseLength(f.length)
			perr = firstErr(perr, err)
			changes.Length = &l
		case "address":
			changes.Address = &f.address
		case "theme":
			changes.Theme = &f.theme
		case "person":
			changes.BirthdayPerson = &f.person
		case "description":
			changes.Description = &f.description
		case "value":
			v, err := parseValue(f.value)
			perr = firstErr(perr, err)
			changes.ValueCents = &v
		}
	})
	if perr != nil {
		return perr
	}
	if changes.IsEmpty() {
		return fmt.Errorf("edit: nothing to change")
	}

	p, err := a.planner(ctx)
	if err != nil {
		return err
	}
	e, err := p.UpdateEvent(ctx, *eventID, changes)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated %s: %s party for %s, %s, %s\n", e.ID, e.Theme, e.BirthdayPerson, e.Length, formatCents(e.ValueCents))
	return nil
}

// firstErr keeps the first non-nil error.
func firstErr(a, b error) error {
	if a != nil {
		return a
	}
	return b
}

func eventIDFlag(a *app, name string, args []string) (string, error) {
	fs := a.newFlags(name)
	eventID := fs.String("event", "", "event ID")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	return *eventID, required(fs, "event")
}

func runConfirm(ctx context.Context, a *app, args []string) error {
	id, err := eventIDFlag(a, "confirm", args)
	if err != nil {
		return err
	}
	p, err := a.planner(ctx)
	if err != nil {
		return err
	}
	if _, err := p.ConfirmEvent(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Confirmed %s\n", id)
	return nil
}

func runFinish(ctx context.Context, a *app, args []string) error {
	id, err := eventIDFlag(a, "finish", args)
	if err != nil {
		return err
	}
	p, err := a.planner(ctx)
	if err != nil {
		return err
	}
	if _, err := p.FinishEvent(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Finished %s\n", id)
	return nil
}

func runDelete(ctx context.Context, a *app, args []string) error {
	id, err := eventIDFlag(a, "delete", args)
	if err != nil {
		return err
	}
	p, err := a.planner(ctx)
	if err != nil {
		return err
	}
	if _, err := p.DeleteEvent(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s and its schedule\n", id)
	return nil
}

func runList(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("list")
	customerID := fs.String("customer", "", "customer ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "customer"); err != nil {
		return err
	}
	p := orchestrators.NewPlanner(a.client, projections.NewCatalog(a.client, a.loc))
	list, err := p.ListEventsForCustomer(ctx, *customerID)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No parties.")
		return nil
	}
	writeBookings(a.out, list, a.loc)
	return nil
}

func runCalendar(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("calendar")
	month := fs.String("month", "", "month to show, "+monthLayout+" (default current)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := a.planner(ctx)
	if err != nil {
		return err
	}
	ref := p.Today()
	if *month != "" {
		t, err := time.Parse(monthLayout, *month)
		if err != nil {
			return fmt.Errorf("invalid -month %q, want %s", *month, monthLayout)
		}
		ref = projections.MonthRef{Year: t.Year(), Month: t.Month()}
	}
	m, err := p.Calendar(ref)
	if err != nil {
		return err
	}
	writeMonth(a.out, m, a.loc)
	return nil
}

func runDay(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("day")
	date := fs.String("date", "", "day to show, YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return err
	}
	day, err := schedule.ParseDay(*date)
	if err != nil {
		return err
	}
	p, err := a.planner(ctx)
	if err != nil {
		return err
	}
	list := p.Day(day)
	if len(list) == 0 {
		fmt.Fprintf(a.out, "%s is free.\n", day)
		return nil
	}
	writeBookings(a.out, list, a.loc)
	return nil
}

func runOccupied(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("occupied")
	customerID := fs.String("customer", "", "only days with this customer's parties")
	days := fs.Int("days", 30, "horizon in days")
	fromStore := fs.Bool("remote", false, "ask the store instead of the local snapshot")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var list []schedule.Day
	if *fromStore {
		p := orchestrators.NewPlanner(a.client, projections.NewCatalog(a.client, a.loc))
		got, err := p.UpcomingOccupiedDays(ctx, *customerID, *days)
		if err != nil {
			return err
		}
		list = got
	} else {
		p, err := a.planner(ctx)
		if err != nil {
			return err
		}
		list = slices.Collect(p.OccupiedDays(*customerID, *days))
	}
	if len(list) == 0 {
		fmt.Fprintf(a.out, "No occupied days in the next %d days.\n", *days)
		return nil
	}
	for _, d := range list {
		fmt.Fprintf(a.out, "%s %s\n", d, d.Weekday().String()[:3])
	}
	return nil
}
