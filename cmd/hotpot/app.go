package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hammamikhairi/hotpot/internal/catalog"
	"github.com/hammamikhairi/hotpot/internal/clock"
	"github.com/hammamikhairi/hotpot/internal/conversation"
	"github.com/hammamikhairi/hotpot/internal/display"
	"github.com/hammamikhairi/hotpot/internal/domain"
	"github.com/hammamikhairi/hotpot/internal/engine"
	"github.com/hammamikhairi/hotpot/internal/gesture"
	"github.com/hammamikhairi/hotpot/internal/logger"
	"github.com/hammamikhairi/hotpot/internal/speech"
)

var _ display.Controller = (*cliApp)(nil)

// runKitchen opens the interactive kitchen and blocks until the user
// quits.
func runKitchen(parent context.Context) error {
	log, closeLog := openLog(cfg)
	defer closeLog()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	app := &cliApp{
		ctx:     ctx,
		parser:  conversation.NewKeywordParser(log.Named("parser")),
		fetcher: catalog.NewFetcher(),
		log:     log,
		actions: make(chan func(), 64),
	}
	ui := display.NewUI(app,
		display.WithTitleTap(app.titleTap),
		display.WithPushToTalk(app.pushToTalk),
	)
	app.ui = ui

	k, err := openKitchen(ctx, cfg, log, ui.Printf)
	if err != nil {
		return err
	}
	defer k.Close()
	app.kitchen = k

	app.gesture = gesture.New(
		func(in domain.Intent) { k.engine.Apply(ctx, in) },
		k.engine.IsDone,
		log.Named("gesture"),
		gesture.WithStartWindow(cfg.StartWindow),
		gesture.WithFishWindow(cfg.FishWindow),
	)
	app.unlock = gesture.NewUnlockCounter(clock.Real(), cfg.UnlockTaps, cfg.UnlockWindow)
	k.engine.OnChange(ui.Refresh)

	if cfg.Voice {
		if _, err := os.Stat(cfg.WhisperModel); err != nil {
			return fmt.Errorf("whisper model not found at %s", cfg.WhisperModel)
		}
		opts := []speech.EarOption{speech.WithTempDir(filepath.Join(cfg.DataDir, "stt"))}
		if k.mouth != nil {
			opts = append(opts, speech.WithInterrupter(k.mouth))
		}
		app.ear = speech.NewEar(cfg.WhisperBin, cfg.WhisperModel, log.Named("ear"), opts...)
		log.Info("voice input enabled (bin=%s, model=%s)", cfg.WhisperBin, cfg.WhisperModel)
	}

	fmt.Println(display.RenderBanner())
	if app.ear != nil {
		fmt.Println(display.BannerStyle.Render("  Voice mode ON: press v and speak, or type commands."))
	}
	fmt.Println(display.BannerStyle.Render("  Press ? for keys, : for commands, q to quit."))
	fmt.Println()

	go func() {
		ui.WaitReady()
		app.run(ctx)
		ui.Quit()
	}()

	if err := ui.Run(); err != nil {
		log.Error("display: %v", err)
	}
	cancel()
	app.gesture.Reset()
	return nil
}

type cliApp struct {
	ctx     context.Context
	kitchen *kitchen
	gesture *gesture.Disambiguator
	unlock  *gesture.UnlockCounter
	parser  domain.CommandParser
	fetcher *catalog.Fetcher
	ear     *speech.Ear // nil when voice input is disabled
	ui      *display.UI
	log     *logger.Logger

	// actions carries key presses from the display to the run loop.
	// Display callbacks run inside the Bubble Tea update and must not
	// print, so they only enqueue.
	actions chan func()

	// adminOpen is only touched from the run loop.
	adminOpen bool
}

// enqueue hands fn to the run loop. Drops it when the loop is behind.
func (a *cliApp) enqueue(fn func()) {
	select {
	case a.actions <- fn:
	default:
		a.log.Warn("input queue full, dropping key press")
	}
}

// ── display.Controller ──────────────────────────────────────────

func (a *cliApp) View() engine.View { return a.kitchen.engine.View() }

func (a *cliApp) TapPlate(uid string) {
	a.enqueue(func() { a.gesture.TapPlate(uid) })
}

func (a *cliApp) RemovePlate(uid string) {
	a.enqueue(func() { a.gesture.RemovePlate(uid) })
}

func (a *cliApp) TapPot(uid string) {
	a.enqueue(func() { a.gesture.TapPot(uid) })
}

func (a *cliApp) PendingPlate(uid string) bool { return a.gesture.PendingPlate(uid) }

func (a *cliApp) titleTap() {
	a.enqueue(func() {
		if a.unlock.Tap() {
			a.openAdmin()
		}
	})
}

func (a *cliApp) pushToTalk() {
	a.enqueue(func() {
		if a.ear == nil {
			a.ui.PrintHint("voice input is off (start with --voice)")
			return
		}
		switch err := a.ear.Listen(a.ctx); {
		case errors.Is(err, speech.ErrBusy):
			a.ui.PrintHint("still listening...")
		case err != nil:
			a.log.Error("listen: %v", err)
		default:
			a.ui.PrintHint("listening...")
		}
	})
}

// ── output ───────────────────────────────────────────────────────

func (a *cliApp) say(text string, priority speech.Priority) {
	a.ui.PrintChat(text)
	a.kitchen.say(text, priority)
}

// ── run loop ─────────────────────────────────────────────────────

func (a *cliApp) run(ctx context.Context) {
	a.say(speech.LineWelcome(), speech.PriorityNormal)
	a.showGuide(ctx)

	// Receiving on a nil channel blocks forever, so without voice input
	// the select only sees the keyboard.
	var voiceCh <-chan string
	if a.ear != nil {
		voiceCh = a.ear.C()
	}
	uiCh := a.ui.InputChan()

	for {
		var input string
		var ok bool

		select {
		case <-ctx.Done():
			return
		case fn := <-a.actions:
			fn()
			continue
		case input, ok = <-uiCh:
			if !ok {
				return
			}
		case input = <-voiceCh:
			a.ui.PrintVoice(input)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if a.handleAdmin(ctx, input) {
			continue
		}

		cmd, err := a.parser.Parse(ctx, input)
		if err != nil {
			a.log.Error("parsing input: %v", err)
			continue
		}
		a.log.Debug("command: %s (payload=%q, double=%v)", cmd.Kind, cmd.Payload, cmd.Double)
		if !a.handleCommand(ctx, cmd) {
			return
		}
	}
}

// handleCommand runs one parsed command. It returns false when the user
// asked to quit.
func (a *cliApp) handleCommand(ctx context.Context, cmd *domain.Command) bool {
	switch cmd.Kind {
	case domain.CommandHelp:
		a.showHelp()
	case domain.CommandList:
		a.showCatalog()
		a.showPlate()
	case domain.CommandStatus:
		a.showPot()
	case domain.CommandAdd:
		a.add(ctx, cmd.Payload)
	case domain.CommandTap:
		a.tap(cmd.Payload, cmd.Double)
	case domain.CommandRemove:
		a.remove(cmd.Payload)
	case domain.CommandEat:
		a.eat(ctx, cmd.Payload)
	case domain.CommandFish:
		a.fish(ctx, cmd.Payload)
	case domain.CommandQuit:
		a.quit()
		return false
	default:
		a.ui.PrintHint(fmt.Sprintf("didn't catch %q. Type help for commands.", cmd.Payload))
	}
	return true
}

// splitNames splits "beef, tofu and noodles" into three names.
func splitNames(s string) []string {
	s = strings.ReplaceAll(s, " and ", ",")
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (a *cliApp) add(ctx context.Context, payload string) {
	names := splitNames(payload)
	if len(names) == 0 {
		a.ui.PrintHint("add what? e.g. add beef slices")
		return
	}
	for _, name := range names {
		ing, err := a.kitchen.catalog.Find(name)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			a.ui.PrintHint(fmt.Sprintf("no %q in the catalog. Type list to see what there is.", name))
			continue
		case err != nil:
			a.ui.PrintHint(err.Error())
			continue
		}
		a.kitchen.engine.AddToStaging(ctx, ing.ID)
	}
}

// tap goes through the gesture layer so typed and spoken taps behave
// like key presses. Two taps in a row land inside the start window.
func (a *cliApp) tap(ref string, double bool) {
	it, ok := findPlate(a.View(), ref)
	if !ok {
		a.ui.PrintHint("nothing like that on the plate")
		return
	}
	a.gesture.TapPlate(it.Entry.UID)
	if double {
		a.gesture.TapPlate(it.Entry.UID)
	}
}

func (a *cliApp) remove(ref string) {
	it, ok := findPlate(a.View(), ref)
	if !ok {
		a.ui.PrintHint("nothing like that on the plate")
		return
	}
	a.gesture.RemovePlate(it.Entry.UID)
}

func (a *cliApp) eat(ctx context.Context, ref string) {
	it, ok := findPot(a.View(), ref)
	if !ok {
		a.ui.PrintHint("nothing like that in the pot")
		return
	}
	if !it.Entry.Done {
		a.ui.PrintHint(fmt.Sprintf("%s needs %s more. Use fish to take it out early.",
			it.Ingredient.Name, formatSeconds(it.RemainingSeconds())))
		return
	}
	a.kitchen.engine.Dismiss(ctx, it.Entry.UID)
}

func (a *cliApp) fish(ctx context.Context, ref string) {
	it, ok := findPot(a.View(), ref)
	if !ok {
		a.ui.PrintHint("nothing like that in the pot")
		return
	}
	if !a.kitchen.engine.MoveBack(ctx, it.Entry.UID) {
		a.ui.PrintHint(fmt.Sprintf("%s is already done. Eat it!", it.Ingredient.Name))
	}
}

func (a *cliApp) quit() {
	a.say(speech.LineBye(), speech.PriorityNormal)
	// Brief pause so TTS can start the goodbye line.
	time.Sleep(300 * time.Millisecond)
}

// ── views ────────────────────────────────────────────────────────

func (a *cliApp) showCatalog() {
	items := a.kitchen.catalog.All()
	if len(items) == 0 {
		a.ui.PrintHint("the catalog is empty")
		return
	}
	a.ui.Println(catalogTable(items).Render())
}

func (a *cliApp) showPlate() {
	v := a.View()
	if len(v.Plate) == 0 {
		a.ui.PrintHint("the plate is empty")
		return
	}
	a.ui.Println(plateTable(v).Render())
}

func (a *cliApp) showPot() {
	v := a.View()
	if len(v.Pot) == 0 {
		a.ui.PrintHint("nothing cooking")
		return
	}
	a.ui.Println(potTable(v).Render())
}

func (a *cliApp) showGuide(ctx context.Context) {
	if a.kitchen.gate.SeenGuide() {
		return
	}
	a.ui.PrintChat("First time here? Quick tour:")
	a.ui.PrintHint("  a            add an ingredient to the plate")
	a.ui.PrintHint("  enter        on the plate: start cooking. Twice quickly: cook one and keep one")
	a.ui.PrintHint("  enter        on the pot: eat when ready. Twice quickly: fish it back out")
	a.ui.PrintHint("  x            take an item off the plate")
	a.ui.PrintHint("  tab          switch between plate and pot")
	if err := a.kitchen.gate.MarkGuideSeen(ctx); err != nil {
		a.log.Warn("saving guide state: %v", err)
	}
}

func (a *cliApp) showHelp() {
	a.ui.PrintChat("Commands:")
	a.ui.PrintHint("  add <name>[, <name>]   Put ingredients on the plate")
	a.ui.PrintHint("  tap <n|name>           Start cooking a plate item")
	a.ui.PrintHint("  again <n|name>         Start a copy, keep the plate item")
	a.ui.PrintHint("  rm <n|name>            Take an item off the plate")
	a.ui.PrintHint("  eat <n|name>           Eat a ready item from the pot")
	a.ui.PrintHint("  fish <n|name>          Take an unfinished item back to the plate")
	a.ui.PrintHint("  list                   Show the catalog and the plate")
	a.ui.PrintHint("  status                 Show the pot")
	a.ui.PrintHint("  help                   Show this message")
	a.ui.PrintHint("  quit                   Exit (the plate is kept)")
	if a.adminOpen {
		a.showAdminHelp()
	}
}
