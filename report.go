package cfddns

import (
	"fmt"
	"strings"
	"time"
)

// Report accumulates the human-readable outcome of one reconciliation pass.
// Changes lists every attempted mutation (or would-be mutation in dry-run
// mode); Errors lists everything that went wrong without aborting the run.
// A Report lives for one run and is discarded after being mailed.
type Report struct {
	Domain    string
	Started   time.Time
	DryRun    bool
	IPv4      string
	IPv6      string
	Interface string
	Changes   []string
	Errors    []string
}

func newReport(domain string, dryRun bool) *Report {
	return &Report{
		Domain:  domain,
		Started: time.Now(),
		DryRun:  dryRun,
	}
}

func (r *Report) changef(format string, args ...any) {
	r.Changes = append(r.Changes, fmt.Sprintf(format, args...))
}

func (r *Report) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Eventful reports whether anything worth telling the operator about
// happened: an attempted change or a captured error.
func (r *Report) Eventful() bool {
	return len(r.Changes) > 0 || len(r.Errors) > 0
}

// Subject returns the mail subject line for this report.
// Errors outrank updates; dry runs are marked so a simulated report can never
// be mistaken for a real one.
func (r *Report) Subject() string {
	subject := fmt.Sprintf("DNS update for %s", r.Domain)
	switch {
	case len(r.Errors) > 0:
		subject += " [ERROR]"
	case len(r.Changes) > 0:
		subject += " [UPDATED]"
	}
	if r.DryRun {
		subject = "[DRY RUN] " + subject
	}
	return subject
}

// Body renders the plain-text status report.
func (r *Report) Body() string {
	var b strings.Builder

	if r.DryRun {
		b.WriteString("*** DRY RUN MODE - NO CHANGES WERE MADE ***\n\n")
	}

	fmt.Fprintf(&b, "DNS update for %s\n", r.Domain)
	fmt.Fprintf(&b, "Time: %s\n\n", r.Started.Format("2006-01-02 15:04"))

	if len(r.Errors) > 0 {
		b.WriteString("Errors:\n")
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "  - %s\n", e)
		}
		b.WriteString("\n")
	}

	b.WriteString("IP addresses:\n")
	ipv4 := r.IPv4
	if ipv4 == "" {
		ipv4 = "not available"
	}
	fmt.Fprintf(&b, "  - IPv4: %s\n", ipv4)
	if r.Interface != "" {
		ipv6 := r.IPv6
		if ipv6 == "" {
			ipv6 = "not found"
		}
		fmt.Fprintf(&b, "  - IPv6: %s (interface %s)\n", ipv6, r.Interface)
	}
	b.WriteString("\n")

	if len(r.Changes) > 0 {
		b.WriteString("Changes:\n")
		for _, c := range r.Changes {
			fmt.Fprintf(&b, "  - %s\n", c)
		}
	} else if len(r.Errors) == 0 {
		b.WriteString("No changes were necessary.\n")
	}

	return b.String()
}
