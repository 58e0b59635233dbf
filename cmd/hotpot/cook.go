package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/hotpot/internal/domain"
	"github.com/hammamikhairi/hotpot/internal/engine"
)

func cookCmd() *cobra.Command {
	var keep bool
	cmd := &cobra.Command{
		Use:   "cook <ingredient>...",
		Short: "Cook ingredients from the shell and wait until they are ready",
		Long: `Puts each ingredient in the pot, prints kitchen events as they happen
and eats everything once it is all done. Ctrl-C fishes unfinished items
back onto the plate.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return cook(ctx, args, keep)
		},
	}
	cmd.Flags().BoolVar(&keep, "keep", false, "leave finished items in the pot until interrupted")
	return cmd
}

// cook runs a headless session: no gestures, direct engine calls.
func cook(ctx context.Context, names []string, keep bool) error {
	log, closeLog := openLog(cfg)
	defer closeLog()

	k, err := openKitchen(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer k.Close()

	var ids []string
	for _, name := range names {
		ing, err := k.catalog.Find(name)
		if err != nil {
			return err
		}
		ids = append(ids, ing.ID)
	}

	changed := make(chan struct{}, 1)
	k.engine.OnChange(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	var cooking []string
	for _, id := range ids {
		uid, ok := k.engine.AddToStaging(ctx, id)
		if !ok {
			continue
		}
		if k.engine.PromoteStart(ctx, uid) {
			cooking = append(cooking, uid)
		}
	}

	for !allDone(k.engine, cooking) || keep {
		select {
		case <-ctx.Done():
			n := fishOut(k.engine, cooking)
			if n > 0 {
				fmt.Printf("interrupted, %d item(s) back on the plate\n", n)
			}
			if keep {
				eatAll(k.engine, cooking)
			}
			return nil
		case <-changed:
		}
	}

	eatAll(k.engine, cooking)
	if k.chime != nil {
		// Let the last tone finish before the audio device goes away.
		time.Sleep(500 * time.Millisecond)
	}
	return nil
}

func allDone(e *engine.Engine, uids []string) bool {
	for _, uid := range uids {
		if done, ok := e.IsDone(uid); ok && !done {
			return false
		}
	}
	return true
}

// fishOut returns unfinished entries to the plate. The context is
// already cancelled, so the plate is saved with a fresh one.
func fishOut(e *engine.Engine, uids []string) int {
	ctx := context.Background()
	n := 0
	for _, uid := range uids {
		if e.Apply(ctx, domain.MoveBack{UID: uid}).Applied {
			n++
		}
	}
	return n
}

func eatAll(e *engine.Engine, uids []string) {
	ctx := context.Background()
	for _, uid := range uids {
		e.Dismiss(ctx, uid)
	}
}
