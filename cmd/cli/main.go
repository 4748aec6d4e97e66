// Command cli runs the bot's commands locally, without Discord. Each stdin
// line is a prefix message, or a JSON slash payload when it starts with "{".
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"botcore/datastore"
	"botcore/internal/config"
	"botcore/internal/core"
	"botcore/internal/docs"
	"botcore/internal/logger"
	"botcore/internal/storage"
	v "botcore/internal/version"
	"botcore/pkg/cmd"
	"botcore/pkg/jobmgr"

	"github.com/spf13/cobra"
)

type flags struct {
	user     string
	guild    string
	owner    bool
	perms    int64
	storage  string
	logLevel string
	template string
	out      string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:   "botcore-cli",
		Short: "Run bot commands from the terminal",
		Long: `Reads one invocation per line from stdin and prints the bot's replies.
Lines starting with "{" are slash payloads, e.g.
  {"name":"roll","options":[{"name":"formula","value":"2d6"}]}`,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if f.logLevel == "" {
				return nil
			}
			lvl, err := logger.ParseLevel(f.logLevel)
			if err != nil {
				return err
			}
			logger.L = logger.L.Level(lvl)
			return nil
		},
		RunE: func(c *cobra.Command, _ []string) error {
			return withConsole(f, c, func(ctx context.Context, con *console) error {
				return con.Run(ctx, c.InOrStdin())
			})
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.user, "user", "console", "Author ID")
	pf.StringVar(&f.guild, "guild", "console", "Guild ID; empty for a direct message")
	pf.BoolVar(&f.owner, "owner", false, "Treat the author as a bot owner")
	pf.Int64Var(&f.perms, "permissions", 0, "Permission bits the author holds")
	pf.StringVar(&f.storage, "storage", "", "Datastore file [default: STORAGE_PATH]")
	pf.StringVar(&f.logLevel, "log-level", "", "Log level (debug|info|warn|error)")

	slash := &cobra.Command{
		Use:   "slash <json>",
		Short: "Dispatch one slash payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return withConsole(f, c, func(ctx context.Context, con *console) error {
				o, err := con.Exec(ctx, args[0])
				if err != nil {
					return err
				}
				if !o.OK() {
					return fmt.Errorf("%s", o)
				}
				return nil
			})
		},
	}

	readme := &cobra.Command{
		Use:   "readme",
		Short: "Regenerate README.md from the registered commands",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, err := loadConfig(f)
			if err != nil {
				return err
			}
			cr, store, err := openCore(cfg, core.Options{})
			if err != nil {
				return err
			}
			defer store.Close()
			if err := docs.UpdateReadme(f.template, f.out, cr.Registry, cfg.CommandPrefix, v.AppName); err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "%s updated\n", f.out)
			return nil
		},
	}
	readme.Flags().StringVar(&f.template, "template", "README.md.tmpl", "Template file")
	readme.Flags().StringVar(&f.out, "out", "README.md", "Output file")

	version := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(c *cobra.Command, _ []string) {
			fmt.Fprintf(c.OutOrStdout(), "%s %s (%s)\n", v.AppName, v.Version, v.GoVersion)
		},
	}

	root.AddCommand(slash, readme, version)
	return root
}

func loadConfig(f *flags) (*config.Config, error) {
	cfg, _, err := config.LoadOffline()
	if err != nil {
		return nil, err
	}
	if f.storage != "" {
		cfg.StoragePath = f.storage
	}
	if f.owner {
		cfg.Owners = append(cfg.Owners, f.user)
	}
	return cfg, nil
}

func openStore(cfg *config.Config) (*storage.Storage, error) {
	dsCfg := datastore.DefaultConfig(cfg.StoragePath)
	dsCfg.AutoSaveInterval = 0
	dsCfg.Logger = logger.Component("datastore")
	return storage.NewWithConfig(dsCfg)
}

func openCore(cfg *config.Config, opts core.Options) (*core.Core, *storage.Storage, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	opts.Config, opts.Store, opts.Log = cfg, store, logger.Component("dispatch")
	cr, err := core.New(opts)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return cr, store, nil
}

func withConsole(f *flags, c *cobra.Command, fn func(context.Context, *console) error) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt)
	defer stop()

	con, cr, err := newConsole(core.Options{
		Config:   cfg,
		Store:    store,
		Shutdown: stop,
		Log:      logger.Component("dispatch"),
	}, c.OutOrStdout(), cmd.Author{ID: f.user, Name: f.user}, f.guild, f.perms)
	if err != nil {
		return err
	}

	jobs := jobmgr.NewManager(ctx, nil)
	if err := jobs.StartAsync("maintenance", func(ctx context.Context) error {
		cr.RunMaintenance(ctx)
		return nil
	}); err != nil {
		return err
	}
	defer jobs.Stop("maintenance")

	return fn(ctx, con)
}
