package cfddns

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cloudflare/cloudflare-go"
	"github.com/rs/zerolog"
)

// Updater performs one linear synchronization pass for a single domain:
// discover addresses, compare with the previous run, rewrite matching
// records, persist the new state, and mail a report.
type Updater struct {
	provider  Provider
	resolver4 Resolver
	resolver6 Resolver
	store     StateFile
	notifier  Notifier
	logger    zerolog.Logger

	domain      string
	iface       string
	dryRun      bool
	addAAAA     bool
	forceReport bool
}

// New returns an Updater for domain.
// A provider option such as UsingCloudflare is required;
// everything else has a usable default.
func New(domain string, options ...Option) (*Updater, error) {
	if domain == "" {
		return nil, fmt.Errorf("cfddns.New: domain cannot be empty")
	}
	u := &Updater{
		domain: domain,
		store:  StateFile{Path: DefaultStatePath()},
		logger: zerolog.Nop(),
	}
	// the default resolver exists before options run so that UsingHTTPClient
	// can reach it even when no resolver option was given
	r, err := WebResolver()
	if err != nil {
		return nil, fmt.Errorf("cfddns.New: %w", err)
	}
	u.resolver4 = r
	for i, opt := range options {
		if err := opt(u); err != nil {
			return nil, fmt.Errorf("cfddns.New: option %d returned an error: %w", i, err)
		}
	}
	if u.provider == nil {
		return nil, fmt.Errorf("cfddns.New: no DNS provider was registered and there is no default option - use cfddns.UsingCloudflare or similar")
	}

	// propagate the logger to dependencies in case WithLogger came before the provider option
	withLogger(u.logger)(u)
	return u, nil
}

type Option func(*Updater) error

// UsingCloudflare registers the Cloudflare provider with the given API token.
func UsingCloudflare(token string) Option {
	return func(u *Updater) (err error) {
		if u.provider, err = newCloudflareProvider(token); err != nil {
			return fmt.Errorf("cfddns.UsingCloudflare: error creating cloudflare DNS provider: %w", err)
		}
		return nil
	}
}

// UsingProvider registers a custom Provider implementation.
func UsingProvider(p Provider) Option {
	return func(u *Updater) error {
		u.provider = p
		return nil
	}
}

// UsingResolver overrides the public IPv4 discovery method.
func UsingResolver(r Resolver) Option {
	return func(u *Updater) error {
		u.resolver4 = r
		return nil
	}
}

// WithInterface enables IPv6 management using the first permanent global
// address bound to the named local interface.
func WithInterface(name string) Option {
	return func(u *Updater) error {
		if name == "" {
			return nil
		}
		u.iface = name
		u.resolver6 = InterfaceResolver(name)
		return nil
	}
}

// UsingIPv6Resolver overrides the IPv6 discovery method;
// mostly useful in tests.
func UsingIPv6Resolver(r Resolver) Option {
	return func(u *Updater) error {
		u.resolver6 = r
		return nil
	}
}

// WithStateFile overrides the location of the two-line last-known-address file.
func WithStateFile(path string) Option {
	return func(u *Updater) error {
		u.store = StateFile{Path: path}
		return nil
	}
}

// WithNotifier registers a report delivery method, e.g. *Mailer.
func WithNotifier(n Notifier) Option {
	return func(u *Updater) error {
		u.notifier = n
		return nil
	}
}

// WithLogger attaches a logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(u *Updater) error {
		u.logger = logger
		return nil
	}
}

func withLogger(logger zerolog.Logger) Option {
	return func(u *Updater) error {
		if p, ok := u.provider.(*cloudflareProvider); ok {
			p.logger = logger
		}
		return nil
	}
}

// UsingHTTPClient overrides the HTTP client used for IP discovery and
// provider API calls.
func UsingHTTPClient(httpclient *http.Client) Option {
	return func(u *Updater) error {
		if httpclient == nil {
			httpclient = http.DefaultClient
		}
		if wr, ok := u.resolver4.(*webResolver); ok {
			wr.httpClient = httpclient
		}
		if p, ok := u.provider.(*cloudflareProvider); ok {
			cloudflare.HTTPClient(httpclient)(p.api)
		}
		return nil
	}
}

// DryRun replaces every mutation and state write with a log line and a
// "Would ..." change record.
func DryRun(enabled bool) Option {
	return func(u *Updater) error {
		u.dryRun = enabled
		return nil
	}
}

// AddMissingAAAA enables the third reconciliation pass, which creates AAAA
// records for names that only have a matching A record.
func AddMissingAAAA(enabled bool) Option {
	return func(u *Updater) error {
		u.addAAAA = enabled
		return nil
	}
}

// ForceReport sends the report even when nothing happened.
func ForceReport(enabled bool) Option {
	return func(u *Updater) error {
		u.forceReport = enabled
		return nil
	}
}

// Run performs one complete pass and returns its Report.
// The returned error is non-nil only for the fatal class of failures:
// token verification and zone resolution. Every other failure is captured in
// the Report and the pass continues, favoring partial success.
func (u *Updater) Run(ctx context.Context) (*Report, error) {
	report := newReport(u.domain, u.dryRun)
	report.Interface = u.iface

	if err := u.provider.VerifyToken(ctx); err != nil {
		return u.fail(ctx, report, fmt.Errorf("API token verification failed: %w", err))
	}

	ipv4 := u.discoverIPv4(ctx, report)
	ipv6 := u.discoverIPv6(ctx, report)

	zoneID, err := u.provider.ZoneID(ctx, u.domain)
	if err != nil {
		return u.fail(ctx, report, fmt.Errorf("unable to resolve zone for %s: %w", u.domain, err))
	}

	previous := u.store.Read()
	u.logger.Debug().Str("ipv4", previous.IPv4).Str("ipv6", previous.IPv6).Msg("loaded previous addresses")

	rc := &reconciler{
		provider: u.provider,
		zoneID:   zoneID,
		dryRun:   u.dryRun,
		logger:   u.logger,
		report:   report,
	}
	rc.reconcileFamily(ctx, "A", previous.IPv4, ipv4)
	rc.reconcileFamily(ctx, "AAAA", previous.IPv6, ipv6)
	if u.addAAAA {
		rc.backfill(ctx, ipv4, ipv6)
	}

	u.persist(previous, AddressPair{IPv4: ipv4, IPv6: ipv6}, report, rc.applied)
	u.notify(ctx, report)
	return report, nil
}

func (u *Updater) discoverIPv4(ctx context.Context, report *Report) string {
	addr, err := u.resolver4.Resolve(ctx)
	if err != nil {
		report.errorf("Failed to retrieve public IPv4 address: %s", err)
		u.logger.Error().Err(err).Msg("public IPv4 lookup failed; skipping A record updates")
		return ""
	}
	u.logger.Info().Str("ipv4", addr.String()).Msg("discovered public IPv4")
	report.IPv4 = addr.String()
	return addr.String()
}

func (u *Updater) discoverIPv6(ctx context.Context, report *Report) string {
	if u.resolver6 == nil {
		u.logger.Debug().Msg("no interface configured for IPv6 lookup")
		return ""
	}
	addr, err := u.resolver6.Resolve(ctx)
	if err != nil {
		report.errorf("Failed to retrieve IPv6 address for interface %s: %s", u.iface, err)
		u.logger.Error().Err(err).Str("interface", u.iface).Msg("IPv6 lookup failed; skipping AAAA record updates")
		return ""
	}
	if !addr.IsValid() {
		u.logger.Warn().Str("interface", u.iface).Msg("no permanent global IPv6 address found")
		return ""
	}
	u.logger.Info().Str("ipv6", addr.String()).Str("interface", u.iface).Msg("discovered global IPv6")
	report.IPv6 = addr.String()
	return addr.String()
}

// persist writes the state file after a real pass in which the provider
// accepted at least one mutation. A pass whose every attempt failed leaves
// the previous addresses in place, so records still holding them are matched
// and retried on the next run. A family whose discovery came up empty keeps
// its previous value so a transient lookup failure cannot erase the
// last-known address.
func (u *Updater) persist(previous, current AddressPair, report *Report, applied int) {
	if u.dryRun || applied == 0 {
		return
	}
	if current.IPv4 == "" {
		current.IPv4 = previous.IPv4
	}
	if current.IPv6 == "" {
		current.IPv6 = previous.IPv6
	}
	if err := u.store.Write(current); err != nil {
		report.errorf("Failed to save state: %s", err)
		u.logger.Error().Err(err).Msg("state write failed")
		return
	}
	u.logger.Debug().Str("path", u.store.Path).Msg("saved last-known addresses")
}

func (u *Updater) notify(ctx context.Context, report *Report) {
	if u.notifier == nil {
		return
	}
	if !report.Eventful() && !u.forceReport {
		u.logger.Debug().Msg("nothing to report; not sending mail")
		return
	}
	if err := u.notifier.Notify(ctx, report); err != nil {
		u.logger.Warn().Err(err).Msg("report delivery failed")
	}
}

// fail records a fatal error, makes a best-effort attempt to mail the report
// so the operator still gets one combined picture, and returns the error.
func (u *Updater) fail(ctx context.Context, report *Report, err error) (*Report, error) {
	report.errorf("%s", err)
	u.logger.Error().Err(err).Msg("aborting run")
	u.notify(ctx, report)
	return report, err
}
