package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hammamikhairi/hotpot/internal/catalog"
	"github.com/hammamikhairi/hotpot/internal/domain"
	"github.com/hammamikhairi/hotpot/internal/sound"
)

// openAdmin runs after the title unlock gesture.
func (a *cliApp) openAdmin() {
	a.adminOpen = true
	a.kitchen.play(sound.CueDing)
	if a.kitchen.gate.IsSetup() {
		a.ui.PrintChat("Admin panel open. Type login <password>.")
	} else {
		a.ui.PrintChat("Admin panel open. Pick a password with setup <password>.")
	}
	a.showAdminHelp()
}

func (a *cliApp) showAdminHelp() {
	a.ui.PrintChat("Admin:")
	a.ui.PrintHint("  setup <password>             Set the admin password")
	a.ui.PrintHint("  login <password>             Unlock editing")
	a.ui.PrintHint("  new <name> <seconds> [cat]   Add an ingredient")
	a.ui.PrintHint("  time <name> <seconds>        Change a cooking time")
	a.ui.PrintHint("  pin <name>                   Pin or unpin an ingredient")
	a.ui.PrintHint("  delete <name>                Remove an ingredient")
	a.ui.PrintHint("  import <file|url>            Replace the catalog")
	a.ui.PrintHint("  export <file>                Write the catalog as JSON or YAML")
	a.ui.PrintHint("  logout                       Lock and close the panel")
}

// adminCommand is one panel command. args excludes the verb.
type adminCommand struct {
	needsAuth bool
	run       func(ctx context.Context, a *cliApp, args []string) error
}

var adminCommands = map[string]adminCommand{
	"setup": {false, func(ctx context.Context, a *cliApp, args []string) error {
		if len(args) != 1 {
			return errors.New("usage: setup <password>")
		}
		if err := a.kitchen.gate.Setup(ctx, args[0]); err != nil {
			return err
		}
		a.ui.PrintChat("Password set. Editing unlocked.")
		return nil
	}},
	"login": {false, func(_ context.Context, a *cliApp, args []string) error {
		if len(args) != 1 {
			return errors.New("usage: login <password>")
		}
		if err := a.kitchen.gate.Login(args[0]); err != nil {
			return err
		}
		a.kitchen.play(sound.CueSuccess)
		a.ui.PrintChat("Editing unlocked.")
		return nil
	}},
	"logout": {false, func(_ context.Context, a *cliApp, _ []string) error {
		a.kitchen.gate.Logout()
		a.adminOpen = false
		a.ui.PrintChat("Admin panel closed.")
		return nil
	}},
	"new": {true, func(ctx context.Context, a *cliApp, args []string) error {
		it, err := parseNewIngredient(args)
		if err != nil {
			return err
		}
		it, err = a.kitchen.catalog.Add(ctx, it)
		if err != nil {
			return err
		}
		a.ui.PrintChat(fmt.Sprintf("Added %s (%s).", it.Label(), formatSeconds(it.Seconds)))
		return nil
	}},
	"time": {true, func(ctx context.Context, a *cliApp, args []string) error {
		if len(args) < 2 {
			return errors.New("usage: time <name> <seconds>")
		}
		secs, err := parseSeconds(args[len(args)-1])
		if err != nil {
			return err
		}
		it, err := a.kitchen.catalog.Find(strings.Join(args[:len(args)-1], " "))
		if err != nil {
			return err
		}
		it.Seconds = secs
		if err := a.kitchen.catalog.Update(ctx, it); err != nil {
			return err
		}
		a.ui.PrintChat(fmt.Sprintf("%s now cooks for %s.", it.Name, formatSeconds(secs)))
		return nil
	}},
	"pin": {true, func(ctx context.Context, a *cliApp, args []string) error {
		it, err := a.kitchen.catalog.Find(strings.Join(args, " "))
		if err != nil {
			return err
		}
		pinned, err := a.kitchen.catalog.TogglePin(ctx, it.ID)
		if err != nil {
			return err
		}
		if pinned {
			a.ui.PrintChat(fmt.Sprintf("Pinned %s.", it.Name))
		} else {
			a.ui.PrintChat(fmt.Sprintf("Unpinned %s.", it.Name))
		}
		return nil
	}},
	"delete": {true, func(ctx context.Context, a *cliApp, args []string) error {
		it, err := a.kitchen.catalog.Find(strings.Join(args, " "))
		if err != nil {
			return err
		}
		if err := a.kitchen.catalog.Delete(ctx, it.ID); err != nil {
			return err
		}
		a.ui.PrintChat(fmt.Sprintf("Deleted %s.", it.Name))
		return nil
	}},
	"import": {true, func(ctx context.Context, a *cliApp, args []string) error {
		if len(args) != 1 {
			return errors.New("usage: import <file|url>")
		}
		n, err := catalog.Import(ctx, a.kitchen.catalog, a.fetcher, args[0], catalog.FormatAuto)
		if err != nil {
			return err
		}
		a.kitchen.imported(ctx, n)
		return nil
	}},
	"export": {true, func(_ context.Context, a *cliApp, args []string) error {
		if len(args) != 1 {
			return errors.New("usage: export <file>")
		}
		if err := exportCatalog(a.kitchen.catalog, args[0], catalog.FormatFromPath(args[0])); err != nil {
			return err
		}
		a.ui.PrintChat(fmt.Sprintf("Catalog written to %s.", args[0]))
		return nil
	}},
}

// handleAdmin runs input as a panel command when the panel is open. It
// reports whether the input was consumed.
func (a *cliApp) handleAdmin(ctx context.Context, input string) bool {
	if !a.adminOpen {
		return false
	}
	fields := strings.Fields(input)
	cmd, ok := adminCommands[strings.ToLower(fields[0])]
	if !ok {
		return false
	}

	if cmd.needsAuth {
		if err := a.kitchen.gate.Require(); err != nil {
			a.ui.PrintUrgent("Log in first: login <password>")
			return true
		}
	}
	if err := cmd.run(ctx, a, fields[1:]); err != nil {
		a.ui.PrintUrgent(adminError(err))
	}
	return true
}

func adminError(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return "Wrong password."
	case errors.Is(err, domain.ErrAdminNotSetup):
		return "No password yet. Use setup <password>."
	case errors.Is(err, domain.ErrAlreadyExists):
		return "Already exists: " + err.Error()
	default:
		return err.Error()
	}
}

// parseNewIngredient reads "<name...> <seconds> [category]".
func parseNewIngredient(args []string) (domain.Ingredient, error) {
	usage := errors.New("usage: new <name> <seconds> [category]")
	if len(args) < 2 {
		return domain.Ingredient{}, usage
	}

	cat := domain.CategoryOther
	if _, err := parseSeconds(args[len(args)-1]); err != nil {
		c, cerr := domain.ParseCategory(args[len(args)-1])
		if cerr != nil {
			return domain.Ingredient{}, cerr
		}
		cat = c
		args = args[:len(args)-1]
	}
	if len(args) < 2 {
		return domain.Ingredient{}, usage
	}
	secs, err := parseSeconds(args[len(args)-1])
	if err != nil {
		return domain.Ingredient{}, err
	}
	return domain.Ingredient{
		Name:     strings.Join(args[:len(args)-1], " "),
		Seconds:  secs,
		Category: cat,
	}, nil
}

// parseSeconds accepts "90", "90s" or "1m30s".
func parseSeconds(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return 0, &domain.ValidationError{Field: "seconds", Reason: fmt.Sprintf("must be positive, got %d", n)}
		}
		return n, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < time.Second {
		return 0, &domain.ValidationError{Field: "seconds", Reason: fmt.Sprintf("cannot read %q", s)}
	}
	return int(d / time.Second), nil
}

// exportCatalog writes every ingredient to path, or stdout for "-".
func exportCatalog(c *catalog.Catalog, path string, f catalog.Format) error {
	if path == "-" || path == "" {
		return catalog.Encode(os.Stdout, c.All(), f)
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := catalog.Encode(out, c.All(), f); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
