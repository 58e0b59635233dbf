package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/hotpot/internal/admin"
	"github.com/hammamikhairi/hotpot/internal/catalog"
	"github.com/hammamikhairi/hotpot/internal/conversation"
	"github.com/hammamikhairi/hotpot/internal/domain"
	"github.com/hammamikhairi/hotpot/internal/logger"
)

// EnvAdminPassword supplies the admin password to scripted commands.
const EnvAdminPassword = "HOTPOT_ADMIN_PASSWORD"

// session is what a one-shot subcommand works with.
type session struct {
	repo    domain.Repository
	catalog *catalog.Catalog
	log     *logger.Logger
}

// withStore opens the configured store and catalog around fn.
func withStore(ctx context.Context, fn func(ctx context.Context, s *session) error) error {
	log, closeLog := openLog(cfg)
	defer closeLog()

	repo, cat, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer repo.Close()
	return fn(ctx, &session{repo: repo, catalog: cat, log: log})
}

// authorize checks the admin password once one is set up. The password
// comes from the flag or from HOTPOT_ADMIN_PASSWORD.
func (s *session) authorize(ctx context.Context, password string) error {
	gate := admin.New(s.repo, s.log.Named("admin"))
	if err := gate.Load(ctx); err != nil {
		return err
	}
	if !gate.IsSetup() {
		return nil
	}
	if password == "" {
		password = os.Getenv(EnvAdminPassword)
	}
	if password == "" {
		return fmt.Errorf("%w: pass --password or set %s", domain.ErrUnauthorized, EnvAdminPassword)
	}
	return gate.Login(password)
}

// lookup resolves an id or a name.
func (s *session) lookup(ref string) (domain.Ingredient, error) {
	if it, ok := s.catalog.Lookup(ref); ok {
		return it, nil
	}
	return s.catalog.Find(ref)
}

func catalogCmd() *cobra.Command {
	c := &cobra.Command{Use: "catalog", Short: "Manage ingredients"}
	c.PersistentFlags().String("password", "", "admin password (or set "+EnvAdminPassword+")")
	c.AddCommand(catalogListCmd())
	c.AddCommand(catalogAddCmd())
	c.AddCommand(catalogUpdateCmd())
	c.AddCommand(catalogRemoveCmd())
	c.AddCommand(catalogPinCmd())
	c.AddCommand(catalogImportCmd())
	c.AddCommand(catalogExportCmd())
	return c
}

func passwordFlag(cmd *cobra.Command) string {
	pw, _ := cmd.Flags().GetString("password")
	return pw
}

func catalogListCmd() *cobra.Command {
	var category, query string
	var pinned bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ingredients",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := catalog.Filter{Query: query, PinnedOnly: pinned}
			if category != "" {
				c, err := domain.ParseCategory(category)
				if err != nil {
					return err
				}
				f.Category = c
			}
			return withStore(cmd.Context(), func(ctx context.Context, s *session) error {
				tw := catalogTable(s.catalog.List(f))
				tw.SetOutputMirror(os.Stdout)
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only this category")
	cmd.Flags().StringVarP(&query, "query", "q", "", "name contains")
	cmd.Flags().BoolVar(&pinned, "pinned", false, "only pinned ingredients")
	return cmd
}

func catalogAddCmd() *cobra.Command {
	var id, name, emoji, category string
	var seconds int
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an ingredient",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name required")
			}
			cat, err := domain.ParseCategory(category)
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), func(ctx context.Context, s *session) error {
				if err := s.authorize(ctx, passwordFlag(cmd)); err != nil {
					return err
				}
				it, err := s.catalog.Add(ctx, domain.Ingredient{
					ID: id, Name: name, Emoji: emoji, Seconds: seconds, Category: cat,
				})
				if err != nil {
					return err
				}
				fmt.Printf("added %s %s (%s)\n", it.ID, it.Label(), formatSeconds(it.Seconds))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "ingredient id (generated when empty)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&emoji, "emoji", "", "icon")
	cmd.Flags().StringVar(&category, "category", "", "meat, seafood, vegetable, noodle or other")
	cmd.Flags().IntVar(&seconds, "seconds", 0, "cooking time in seconds")
	return cmd
}

func catalogUpdateCmd() *cobra.Command {
	var name, emoji, category string
	var seconds int
	cmd := &cobra.Command{
		Use:   "update <id|name>",
		Short: "Change an ingredient; only the given flags are applied",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *session) error {
				if err := s.authorize(ctx, passwordFlag(cmd)); err != nil {
					return err
				}
				it, err := s.lookup(args[0])
				if err != nil {
					return err
				}
				flags := cmd.Flags()
				if flags.Changed("name") {
					it.Name = name
				}
				if flags.Changed("emoji") {
					it.Emoji = emoji
				}
				if flags.Changed("seconds") {
					it.Seconds = seconds
				}
				if flags.Changed("category") {
					c, err := domain.ParseCategory(category)
					if err != nil {
						return err
					}
					it.Category = c
				}
				if err := s.catalog.Update(ctx, it); err != nil {
					return err
				}
				fmt.Printf("updated %s\n", it.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&emoji, "emoji", "", "icon")
	cmd.Flags().StringVar(&category, "category", "", "meat, seafood, vegetable, noodle or other")
	cmd.Flags().IntVar(&seconds, "seconds", 0, "cooking time in seconds")
	return cmd
}

func catalogRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id|name>",
		Aliases: []string{"delete"},
		Short:   "Remove an ingredient",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *session) error {
				if err := s.authorize(ctx, passwordFlag(cmd)); err != nil {
					return err
				}
				it, err := s.lookup(args[0])
				if err != nil {
					return err
				}
				if err := s.catalog.Delete(ctx, it.ID); err != nil {
					return err
				}
				fmt.Printf("removed %s\n", it.ID)
				return nil
			})
		},
	}
}

func catalogPinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pin <id|name>",
		Short: "Pin or unpin an ingredient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, s *session) error {
				if err := s.authorize(ctx, passwordFlag(cmd)); err != nil {
					return err
				}
				it, err := s.lookup(args[0])
				if err != nil {
					return err
				}
				pinned, err := s.catalog.TogglePin(ctx, it.ID)
				if err != nil {
					return err
				}
				fmt.Printf("%s pinned=%v\n", it.ID, pinned)
				return nil
			})
		},
	}
}

func catalogImportCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import <file|url>",
		Short: "Replace the catalog from a JSON or YAML file or URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := catalog.ParseFormat(format)
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), func(ctx context.Context, s *session) error {
				if err := s.authorize(ctx, passwordFlag(cmd)); err != nil {
					return err
				}
				n, err := catalog.Import(ctx, s.catalog, catalog.NewFetcher(), args[0], f)
				if err != nil {
					return err
				}
				ev := domain.Event{Type: domain.EventCatalogImported, Count: n}
				return conversation.NewCLINotifier(s.catalog, s.log, nil).Notify(ctx, ev)
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "auto", "auto, json or yaml")
	return cmd
}

func catalogExportCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write the catalog as JSON or YAML (stdout by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := catalog.ParseFormat(format)
			if err != nil {
				return err
			}
			path := "-"
			if len(args) == 1 {
				path = args[0]
				if f == catalog.FormatAuto {
					f = catalog.FormatFromPath(path)
				}
			}
			return withStore(cmd.Context(), func(ctx context.Context, s *session) error {
				return exportCatalog(s.catalog, path, f)
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "auto", "auto, json or yaml")
	return cmd
}
