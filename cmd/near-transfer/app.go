package main

import (
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/quantumauth-io/quantum-go-utils/log"
	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"

	"github.com/quantumauth-io/near-transfer/cmd/near-transfer/config"
	"github.com/quantumauth-io/near-transfer/internal/constants"
	"github.com/quantumauth-io/near-transfer/internal/credentials"
	"github.com/quantumauth-io/near-transfer/internal/metrics"
	"github.com/quantumauth-io/near-transfer/internal/registry"
	"github.com/quantumauth-io/near-transfer/internal/securefile"
	"github.com/quantumauth-io/near-transfer/internal/transfer"
)

// exitError carries a specific process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

type app struct {
	out io.Writer

	configPath       string
	output           string
	credentialSource string
	dotEnv           string

	lookupEnv  func(string) (string, bool)
	readSecret credentials.SecretReader
	// connector replaces the NEAR RPC connector when set.
	connector transfer.Connector

	cfg      *config.Config
	registry *registry.Registry
	metrics  *metrics.Recorder
}

func newApp(out io.Writer) *app {
	return &app{
		out:        out,
		dotEnv:     ".env",
		lookupEnv:  os.LookupEnv,
		readSecret: credentials.ReadSecret,
		metrics:    metrics.NewRecorder(),
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           constants.AppName,
		Short:         "Send NEAR or a NEP-141 token and report balances around the transfer",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
	}
	root.SetOut(a.out)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default: ~/.config/near-transfer/near-transfer.yaml or ./near-transfer.yaml)")
	pf.StringVarP(&a.output, "output", "o", "text", "output format: text|json|yaml")
	pf.StringVar(&a.credentialSource, "credential-source", "", "where the signing key comes from: env|file|keystore|prompt")

	// A bare invocation runs the configured default transfer.
	send := a.transferCmd()
	root.Args = cobra.NoArgs
	root.RunE = send.RunE
	root.Flags().AddFlagSet(send.Flags())

	root.AddCommand(
		send,
		a.balanceCmd(),
		a.tokensCmd(),
		a.keystoreCmd(),
	)
	return root
}

func (a *app) setup() error {
	if err := validOutput(a.output); err != nil {
		return err
	}
	a.loadDotEnv()

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return errors.Wrap(err, "failed to parse config")
	}
	if a.credentialSource != "" {
		cfg.Credential.Source = a.credentialSource
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	reg, err := registry.New(cfg.Tokens)
	if err != nil {
		return errors.Wrap(err, "token registry")
	}

	a.cfg = cfg
	a.registry = reg

	log.Info("near-transfer",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
		"network", cfg.Network.NetworkID,
		"config", cfg.Path,
	)
	return nil
}

// loadDotEnv fills unset variables from .env; a missing file is fine.
func (a *app) loadDotEnv() {
	if a.dotEnv == "" {
		return
	}
	if err := gotenv.Load(a.dotEnv); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("failed to load env file", "path", a.dotEnv, "error", err)
	}
}

func (a *app) dispatcher() (*transfer.Dispatcher, error) {
	src, err := a.credentials()
	if err != nil {
		return nil, err
	}

	conn := a.connector
	if conn == nil {
		conn = transfer.NEARConnector{Network: a.cfg.Network, Observer: a.metrics.ObserveRPC}
	}
	return &transfer.Dispatcher{
		Registry:            a.registry,
		Credentials:         src,
		Connector:           conn,
		Metrics:             a.metrics,
		RegistrationDeposit: a.cfg.Transfer.RegistrationDeposit,
	}, nil
}

func (a *app) credentials() (credentials.Source, error) {
	c := a.cfg.Credential
	switch c.Source {
	case "env":
		return credentials.EnvSource{AccountID: c.Account, Var: c.EnvVar, Lookup: a.lookupEnv}, nil
	case "file":
		return credentials.FileSource{AccountID: c.Account, Path: a.cfg.CredentialsFile()}, nil
	case "keystore":
		path, err := a.keystorePath()
		if err != nil {
			return nil, err
		}
		return credentials.KeystoreSource{AccountID: c.Account, Path: path, Password: a.readSecret}, nil
	case "prompt":
		return credentials.PromptSource{AccountID: c.Account, Read: a.readSecret}, nil
	default:
		return nil, errors.Newf("unknown credential source %q", c.Source)
	}
}

func (a *app) keystorePath() (string, error) {
	if p := strings.TrimSpace(a.cfg.Credential.Keystore); p != "" {
		return p, nil
	}
	paths, err := securefile.ConfigPathCandidates(constants.AppName, a.cfg.Network.NetworkID, constants.KeystoreFile)
	if err != nil {
		return "", err
	}
	return securefile.FirstExisting(paths), nil
}

// pushMetrics is best effort; a CLI run should not fail on a Pushgateway outage.
func (a *app) pushMetrics() {
	if a.cfg == nil || a.cfg.Metrics.Pushgateway == "" {
		return
	}
	if err := a.metrics.Push(a.cfg.Metrics.Pushgateway, a.cfg.Metrics.Job); err != nil {
		log.Warn("metrics push failed", "error", err)
	}
}
