package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/cloudflare/cloudflare-go"
	"github.com/pmuller/cfddns"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

var config = struct {
	Domain      string
	Email       string
	ConfigFile  string
	StateFile   string
	Interface   string
	IPv4        string
	MailTo      string
	MailFrom    string
	DryRun      bool
	AddAAAA     bool
	Quiet       bool
	Verbose     bool
	ForceReport bool
	Setup       bool
}{}

func init() {
	pflag.StringVarP(&config.Email, "email", "e", "", "Cloudflare account email")
	pflag.StringVarP(&config.ConfigFile, "config", "c", cfddns.DefaultConfigPath(), "Configuration file path")
	pflag.StringVar(&config.StateFile, "state-file", cfddns.DefaultStatePath(), "Last-known-address file path")
	pflag.StringVarP(&config.Interface, "interface", "i", "", "Network interface to use for IPv6 address lookup")
	pflag.StringVar(&config.IPv4, "ipv4", "", "Skip discovery and use this public IPv4 address")
	pflag.StringVarP(&config.MailTo, "mail-to", "m", "", "Email address to send reports to")
	pflag.StringVar(&config.MailFrom, "mail-from", "", "Email address to send from (default: root@<hostname>)")
	pflag.BoolVarP(&config.DryRun, "dry-run", "d", false, "Simulate actions without making changes")
	pflag.BoolVarP(&config.AddAAAA, "add-aaaa", "a", false, "Add missing AAAA records")
	pflag.BoolVarP(&config.Quiet, "quiet", "q", false, "Quiet mode, show only warnings and errors")
	pflag.BoolVarP(&config.Verbose, "verbose", "v", false, "Verbose mode, show detailed information")
	pflag.BoolVarP(&config.ForceReport, "force-report", "f", false, "Always send a status report, even if no changes were made")
	pflag.BoolVar(&config.Setup, "setup", false, "Interactively store credentials in the configuration file")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] DOMAIN\n\nFlags:\n", filepath.Base(os.Args[0]))
		pflag.PrintDefaults()
	}
	pflag.Parse()
}

func main() {
	logger := newLogger()
	if config.Setup {
		if err := runSetup(logger); err != nil {
			logger.Fatal().Err(err).Msg("setup failed")
		}
		return
	}
	if err := run(logger); err != nil {
		logger.Fatal().Err(err).Msg("dns update aborted")
	}
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if config.Verbose {
		level = zerolog.DebugLevel
	} else if config.Quiet {
		level = zerolog.WarnLevel
	}

	writers := []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}}
	logPath := filepath.Join(filepath.Dir(cfddns.DefaultConfigPath()), "dns_update.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0700); err == nil {
		if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600); err == nil {
			writers = append(writers, f)
		}
	}
	return zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger().Level(level)
}

func run(logger zerolog.Logger) error {
	if pflag.NArg() != 1 {
		pflag.Usage()
		return errors.New("exactly one DOMAIN argument is required")
	}
	config.Domain = pflag.Arg(0)
	if !strings.Contains(config.Domain, ".") {
		return errors.New("domain must have at least one dot")
	}

	creds, err := loadCredentials()
	if err != nil {
		return err
	}
	logger.Debug().Str("email", creds.Email).Msg("credentials resolved")

	opts := []cfddns.Option{
		cfddns.UsingCloudflare(creds.APIKey),
		cfddns.WithLogger(logger),
		cfddns.WithStateFile(config.StateFile),
		cfddns.WithInterface(config.Interface),
		cfddns.DryRun(config.DryRun),
		cfddns.AddMissingAAAA(config.AddAAAA),
		cfddns.ForceReport(config.ForceReport),
	}
	if config.IPv4 != "" {
		r, err := cfddns.FromString(config.IPv4)
		if err != nil {
			return fmt.Errorf("invalid --ipv4 value: %w", err)
		}
		opts = append(opts, cfddns.UsingResolver(r))
	}
	if config.MailTo != "" {
		mailer, err := cfddns.NewMailer(config.MailTo, config.MailFrom)
		if err != nil {
			return fmt.Errorf("invalid mail configuration: %w", err)
		}
		opts = append(opts, cfddns.WithNotifier(mailer))
	}

	updater, err := cfddns.New(config.Domain, opts...)
	if err != nil {
		return err
	}
	report, err := updater.Run(context.Background())
	if err != nil {
		return err
	}
	logger.Info().Int("changes", len(report.Changes)).Int("errors", len(report.Errors)).Msg("dns update completed")
	return nil
}

func loadCredentials() (cfddns.Credentials, error) {
	if _, err := os.Stat(config.ConfigFile); err == nil {
		if err := verifyPermissions(config.ConfigFile); err != nil {
			return cfddns.Credentials{}, err
		}
	}
	creds, err := cfddns.LoadCredentials(config.ConfigFile)
	if err != nil {
		return creds, err
	}
	creds = creds.Resolve(config.Email, os.Getenv(cfddns.EnvAPIToken))
	if !creds.Complete() {
		return creds, errors.New("cloudflare email and API key are required: provide them via arguments, the environment, or the config file (see --setup)")
	}
	return creds, nil
}

func verifyPermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("error checking config file permissions: %w", err)
	}
	perms := info.Mode().Perm()
	// Error messages will state that we want 0600,
	// but we'll also accept 0400 which is even more restricted.
	// The file might be provided by some secrets managing software as readonly.
	if perms != 0600 && perms != 0400 {
		return fmt.Errorf("invalid permissions for \"%s\": expected file permissions \"-rw-------\"; found \"%s\"", path, fs.FileMode(perms))
	}
	return nil
}

func runSetup(logger zerolog.Logger) error {
	logger.Info().Str("path", config.ConfigFile).Msg("storing credentials")
	time.Sleep(200 * time.Millisecond) // dirty timer hack to try to get stderr and stdout output lines to display in order

	fmt.Printf("Enter Cloudflare account email: ")
	reader := bufio.NewReader(os.Stdin)
	email, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("error reading from stdin: %w", err)
	}
	email = strings.TrimSpace(email)

	fmt.Printf("Enter Cloudflare API token: \n")
	bytekey, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return fmt.Errorf("error reading from stdin: %w", err)
	}
	key := strings.TrimSpace(string(bytekey))

	api, err := cloudflare.NewWithAPIToken(key)
	if err != nil {
		return fmt.Errorf("error creating api client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info().Msg("verifying token...")
	result, err := api.VerifyAPIToken(ctx)
	if err != nil {
		return fmt.Errorf("unable to verify api token: %w", err)
	}
	if result.Status != "active" {
		return fmt.Errorf("expected api token status to be \"active\"; got \"%s\"", result.Status)
	}
	logger.Info().Msg("token verified successfully")

	creds := cfddns.Credentials{Email: email, APIKey: key}
	if err := creds.Save(config.ConfigFile); err != nil {
		return err
	}
	logger.Info().Str("path", config.ConfigFile).Msg("credentials written")
	return nil
}
