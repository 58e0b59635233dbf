package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/hotpot/internal/conversation"
	"github.com/hammamikhairi/hotpot/internal/engine"
)

// withPlate opens the engine over the saved plate. Nothing is cooking
// in a one-shot command.
func withPlate(ctx context.Context, fn func(ctx context.Context, s *session, e *engine.Engine) error) error {
	return withStore(ctx, func(ctx context.Context, s *session) error {
		e := engine.New(s.catalog, s.log.Named("engine"),
			engine.WithRepository(s.repo),
			engine.WithNotifier(conversation.NewCLINotifier(s.catalog, s.log, nil)),
		)
		if err := e.Load(ctx); err != nil {
			return err
		}
		return fn(ctx, s, e)
	})
}

func plateCmd() *cobra.Command {
	c := &cobra.Command{Use: "plate", Short: "Manage the plate (ingredients waiting to cook)"}
	c.AddCommand(plateListCmd())
	c.AddCommand(plateAddCmd())
	c.AddCommand(plateRemoveCmd())
	c.AddCommand(plateClearCmd())
	return c
}

func plateListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the plate",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPlate(cmd.Context(), func(ctx context.Context, s *session, e *engine.Engine) error {
				v := e.View()
				if len(v.Plate) == 0 {
					fmt.Println("the plate is empty")
					return nil
				}
				tw := plateTable(v)
				tw.SetOutputMirror(os.Stdout)
				tw.Render()
				return nil
			})
		},
	}
}

func plateAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <ingredient>...",
		Short: "Put ingredients on the plate",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPlate(cmd.Context(), func(ctx context.Context, s *session, e *engine.Engine) error {
				for _, ref := range args {
					it, err := s.lookup(ref)
					if err != nil {
						return err
					}
					e.AddToStaging(ctx, it.ID)
				}
				return nil
			})
		},
	}
}

func plateRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <position|name>",
		Short: "Take an item off the plate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPlate(cmd.Context(), func(ctx context.Context, s *session, e *engine.Engine) error {
				it, ok := findPlate(e.View(), args[0])
				if !ok {
					return fmt.Errorf("nothing like %q on the plate", args[0])
				}
				e.RemoveStaging(ctx, it.Entry.UID)
				return nil
			})
		},
	}
}

func plateClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the plate",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPlate(cmd.Context(), func(ctx context.Context, s *session, e *engine.Engine) error {
				for _, st := range e.Snapshot().Staging {
					e.RemoveStaging(ctx, st.UID)
				}
				return nil
			})
		},
	}
}
