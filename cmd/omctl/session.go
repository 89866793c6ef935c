package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/evilb/openmotics/internal/api"
	"github.com/evilb/openmotics/internal/auth"
	"github.com/evilb/openmotics/internal/cloud"
	"github.com/evilb/openmotics/internal/config"
	"github.com/evilb/openmotics/internal/localgw"
	"github.com/evilb/openmotics/internal/logging"
	"github.com/evilb/openmotics/internal/ui"
	"github.com/evilb/openmotics/internal/urls"
	"github.com/evilb/openmotics/internal/version"
)

// Global flags
var opts struct {
	configPath   string
	mode         string
	host         string
	installation int
	timeout      time.Duration
	format       string
	logLevel     string
	insecure     bool
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&opts.configPath, "config", "", "Config file (default: platform config dir, or $OPENMOTICS_CONFIG)")
	f.StringVar(&opts.mode, "mode", "", "Backend: cloud or local (default from config)")
	f.StringVar(&opts.host, "host", "", "Local gateway host (implies --mode local)")
	f.IntVar(&opts.installation, "installation", 0, "Cloud installation id (default from config)")
	f.DurationVar(&opts.timeout, "timeout", 0, "Per-request timeout (default 8s)")
	f.StringVar(&opts.format, "format", "", "Output format: table or json (default from config)")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (default $OPENMOTICS_LOG_LEVEL)")
	f.BoolVar(&opts.insecure, "insecure", false, "Accept the local gateway's self-signed certificate")
}

// session is the resolved configuration of one invocation.
type session struct {
	cfg     *config.Config
	secrets config.Secrets
	printer *ui.Printer
	timeout time.Duration
	logger  *zap.Logger
}

var sess *session

// setup runs before every command: logging, config file, flag overrides.
func setup(cmd *cobra.Command, _ []string) error {
	failedCommand = strings.TrimPrefix(cmd.CommandPath(), rootCmd.Name()+" ")

	if err := logging.Initialize(opts.logLevel); err != nil {
		return api.NewConfigurationError("invalid --log-level", err)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return api.NewConfigurationError("failed to load configuration", err)
	}

	if opts.host != "" {
		cfg.Local.Host = opts.host
		if opts.mode == "" {
			opts.mode = config.ModeLocal
		}
	}
	if opts.mode != "" {
		cfg.Mode = opts.mode
	}
	if opts.installation != 0 {
		cfg.Cloud.InstallationID = opts.installation
	}
	if opts.format != "" {
		cfg.Preferences.Format = opts.format
	}
	if opts.insecure {
		cfg.Local.InsecureSkipVerify = true
	}
	if err := cfg.Validate(); err != nil {
		return api.NewConfigurationError(err.Error(), nil)
	}
	opts.format = cfg.Preferences.Format

	timeout := opts.timeout
	if timeout <= 0 {
		timeout = cfg.Preferences.Timeout
	}

	sess = &session{
		cfg:     cfg,
		secrets: config.SecretsFromEnv(),
		printer: ui.NewPrinter(cmd.OutOrStdout()).SetJSON(cfg.Preferences.Format == config.FormatJSON),
		timeout: timeout,
		logger:  logging.GetLogger(),
	}
	return nil
}

// context returns a context cancelled by Ctrl-C or SIGTERM.
func (s *session) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func (s *session) cloudBaseURL() string {
	if s.cfg.Cloud.BaseURL != "" {
		return s.cfg.Cloud.BaseURL
	}
	return urls.CloudAPI
}

// eventsURL derives the websocket endpoint from the cloud base URL.
func (s *session) eventsURL() string {
	base := s.cloudBaseURL()
	if base == urls.CloudAPI {
		return urls.CloudEvents
	}
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return strings.TrimSuffix(base, "/") + "/ws/events"
}

// tokenSource picks a static token or the client credentials grant.
func (s *session) tokenSource() (api.TokenSource, error) {
	if s.secrets.Token != "" {
		return api.StaticToken(s.secrets.Token), nil
	}
	if s.cfg.Cloud.ClientID != "" || s.secrets.ClientSecret != "" {
		ts, err := auth.NewTokenSource(auth.ClientCredentials{
			ClientID:     s.cfg.Cloud.ClientID,
			ClientSecret: s.secrets.ClientSecret,
			TokenURL:     auth.TokenURL(s.cloudBaseURL()),
			Timeout:      s.timeout,
		})
		if err != nil {
			return nil, err
		}
		return ts, nil
	}
	return nil, api.NewAuthError(0, "no access token configured", nil)
}

func (s *session) cloudClient() (*cloud.Client, error) {
	ts, err := s.tokenSource()
	if err != nil {
		return nil, err
	}
	return cloud.Connect(api.Config{
		BaseURL:     s.cloudBaseURL(),
		TokenSource: ts,
		Timeout:     s.timeout,
		Retry:       s.cfg.RetryPolicy(),
		UserAgent:   version.UserAgent(),
		Logger:      s.logger,
	}, s.cfg.Cloud.InstallationID)
}

func (s *session) localGateway() (*localgw.Gateway, error) {
	lc := s.cfg.LocalGateway(s.secrets)
	if lc.Host == "" {
		return nil, api.NewConfigurationError("no local gateway host configured (use --host or 'omctl config set-local')", nil)
	}
	if lc.Password == "" {
		pw, err := ui.PromptPassword(fmt.Sprintf("Password for %s@%s: ", lc.Username, lc.Host))
		if err == nil {
			lc.Password = pw
		}
	}
	lc.Timeout = s.timeout
	lc.UserAgent = version.UserAgent()
	lc.Logger = s.logger
	return localgw.New(lc)
}

// requireCloud rejects commands that only exist on the cloud API.
func (s *session) requireCloud(what string) error {
	if s.cfg.Mode != config.ModeCloud {
		return api.NewConfigurationError(what+" are only available through the cloud (--mode cloud)", nil)
	}
	return nil
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid id %q: %w", arg, api.ErrInvalidID)
	}
	return id, nil
}

func parseIntArg(name, arg string, lo, hi int) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || v < lo || v > hi {
		return 0, fmt.Errorf("%s must be an integer between %d and %d: %w", name, lo, hi, api.ErrInvalidArgument)
	}
	return v, nil
}
