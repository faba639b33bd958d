package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AmimerNabil/achieveai/internal/adapter/taskclient"
	"github.com/AmimerNabil/achieveai/internal/app/engine"
)

// GatewayFactory builds the Task Service client for a resolved config.
type GatewayFactory func(cfg Config) (engine.Gateway, error)

type app struct {
	viper      *viper.Viper
	out        io.Writer
	errOut     io.Writer
	clock      clockwork.Clock
	newGateway GatewayFactory

	configPath string
	verbose    bool
	output     string

	cfg    Config
	logger *zap.Logger
}

type Option func(*app)

func WithGateway(factory GatewayFactory) Option {
	return func(a *app) { a.newGateway = factory }
}

func WithClock(clock clockwork.Clock) Option {
	return func(a *app) { a.clock = clock }
}

func WithOutput(out, errOut io.Writer) Option {
	return func(a *app) {
		a.out = out
		a.errOut = errOut
	}
}

// NewRootCommand builds the taskctl command tree.
func NewRootCommand(opts ...Option) *cobra.Command {
	a := &app{
		viper:      newViper(),
		out:        os.Stdout,
		errOut:     os.Stderr,
		clock:      clockwork.NewRealClock(),
		newGateway: httpGateway,
	}
	for _, opt := range opts {
		opt(a)
	}

	root := &cobra.Command{
		Use:   "taskctl",
		Short: "Manage your tasks and their timers",
		Long: `taskctl talks to the task API to list, edit and time your tasks.

Running timers are remembered locally, so a countdown keeps going between runs.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ~/.achieveai/config.yaml)")
	flags.String(keyServer, "", "task API base URL")
	flags.String(keyToken, "", "bearer token for the task API")
	flags.String(keyOwner, "", "local profile that timers are stored under")
	flags.String(keyDeadlines, "", "path of the local timer database")
	flags.String(keyTimezone, "", "time zone for dates, e.g. Europe/Paris")
	flags.String(keyLanguage, "", "language for API error messages (en, fr)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	if err := bindFlags(a.viper, root); err != nil {
		panic(err)
	}

	root.AddCommand(
		a.listCommand(),
		a.addCommand(),
		a.editCommand(),
		a.doneCommand(),
		a.removeCommand(),
		a.showCommand(),
		a.timerCommand(),
		a.statsCommand(),
	)
	return root
}

// Execute runs taskctl with the process arguments.
func Execute(ctx context.Context, version string) error {
	root := NewRootCommand()
	root.Version = version
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func (a *app) setup(*cobra.Command, []string) error {
	cfg, err := loadConfig(a.viper, a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := newLogger(a.verbose)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	a.logger = logger
	a.logger.Debug("configuration loaded",
		zap.String("server", cfg.Server),
		zap.String("owner", cfg.Owner),
		zap.String("deadlines", cfg.Deadlines),
		zap.String("timezone", cfg.Location().String()),
	)
	return nil
}

// newLogger writes human-readable logs to stderr, warnings and above unless
// verbose.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = !verbose
	return cfg.Build()
}

func httpGateway(cfg Config) (engine.Gateway, error) {
	client, err := taskclient.New(cfg.Server, cfg.Token, taskclient.WithLanguage(cfg.Language))
	if err != nil {
		return nil, fmt.Errorf("task api client: %w", err)
	}
	return client, nil
}
