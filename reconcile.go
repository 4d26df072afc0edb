package cfddns

import (
	"context"

	"github.com/rs/zerolog"
)

// reconciler performs the three fixed passes of one run:
// A records, then AAAA records, then the optional AAAA backfill.
// A record is only rewritten when its content exactly matches the previous
// known address, so records a human repointed elsewhere are never clobbered.
type reconciler struct {
	provider Provider
	zoneID   string
	dryRun   bool
	logger   zerolog.Logger
	report   *Report

	applied  int               // mutations the provider accepted this run
	intended map[string]string // record ID -> content a dry run would have written
}

// reconcileFamily updates every record of recordType whose content still
// holds the previous address. It is a no-op when the address is unchanged or
// was never discovered this run.
func (rc *reconciler) reconcileFamily(ctx context.Context, recordType, previous, current string) {
	if current == "" {
		rc.logger.Debug().Str("type", recordType).Msg("no current address; skipping pass")
		return
	}
	if current == previous {
		rc.logger.Debug().Str("type", recordType).Str("address", current).Msg("address unchanged")
		return
	}
	rc.logger.Info().Str("type", recordType).Str("previous", previous).Str("current", current).Msg("address changed")

	records, err := rc.provider.Records(ctx, rc.zoneID, recordType)
	if err != nil {
		rc.report.errorf("Failed to list %s records: %s", recordType, err)
		rc.logger.Error().Err(err).Str("type", recordType).Msg("record listing failed")
		return
	}
	for _, rec := range records {
		if rec.Content != previous {
			rc.logger.Debug().Str("name", rec.Name).Str("content", rec.Content).Msg("record does not hold the previous address; leaving it alone")
			continue
		}
		rc.update(ctx, rec, current)
	}
}

func (rc *reconciler) update(ctx context.Context, rec Record, newIP string) {
	if rc.dryRun {
		rc.report.changef("Would update %s record for %s from %s to %s", rec.Type, rec.Name, rec.Content, newIP)
		rc.logger.Info().Str("name", rec.Name).Str("type", rec.Type).Str("new", newIP).Msg("dry run: would update record")
		if rc.intended == nil {
			rc.intended = make(map[string]string)
		}
		rc.intended[rec.ID] = newIP
		return
	}
	rc.report.changef("Updating %s record for %s from %s to %s", rec.Type, rec.Name, rec.Content, newIP)
	rc.logger.Info().Str("name", rec.Name).Str("type", rec.Type).Str("old", rec.Content).Str("new", newIP).Msg("updating record")

	rec.Content = newIP
	if err := rc.provider.UpdateRecord(ctx, rc.zoneID, rec); err != nil {
		rc.report.errorf("Failed to update %s record for %s: %s", rec.Type, rec.Name, err)
		rc.logger.Error().Err(err).Str("name", rec.Name).Msg("record update failed")
		return
	}
	rc.applied++
}

// backfill creates an AAAA record for every name that has an A record
// pointing at the current IPv4 but no AAAA record at all. TTL and proxying
// are copied from the sibling A record. An existing AAAA record is never
// overwritten.
//
// Candidates come from a fresh record listing taken after the update passes,
// so a name whose A update failed still holds the previous address and is
// skipped rather than paired with a mismatched AAAA. In dry-run mode no
// update was actually applied, so candidates also match on the content the
// simulated update would have written, keeping the simulated change records
// identical to a real run's.
func (rc *reconciler) backfill(ctx context.Context, ipv4, ipv6 string) {
	if ipv6 == "" || ipv4 == "" {
		rc.logger.Debug().Msg("missing an address family; skipping AAAA backfill")
		return
	}
	aRecords, err := rc.provider.Records(ctx, rc.zoneID, "A")
	if err != nil {
		rc.report.errorf("Failed to list A records for backfill: %s", err)
		return
	}
	aaaaRecords, err := rc.provider.Records(ctx, rc.zoneID, "AAAA")
	if err != nil {
		rc.report.errorf("Failed to list AAAA records for backfill: %s", err)
		return
	}
	hasAAAA := make(map[string]bool, len(aaaaRecords))
	for _, rec := range aaaaRecords {
		hasAAAA[rec.Name] = true
	}
	for _, rec := range aRecords {
		content := rec.Content
		if want, ok := rc.intended[rec.ID]; ok {
			content = want
		}
		if content != ipv4 || hasAAAA[rec.Name] {
			continue
		}
		rc.create(ctx, Record{
			Type:    "AAAA",
			Name:    rec.Name,
			Content: ipv6,
			TTL:     rec.TTL,
			Proxied: rec.Proxied,
		})
	}
}

func (rc *reconciler) create(ctx context.Context, rec Record) {
	if rc.dryRun {
		rc.report.changef("Would add %s record for %s with IP %s", rec.Type, rec.Name, rec.Content)
		rc.logger.Info().Str("name", rec.Name).Str("type", rec.Type).Msg("dry run: would add record")
		return
	}
	rc.report.changef("Adding %s record for %s with IP %s", rec.Type, rec.Name, rec.Content)
	rc.logger.Info().Str("name", rec.Name).Str("type", rec.Type).Str("content", rec.Content).Msg("adding record")

	if err := rc.provider.CreateRecord(ctx, rc.zoneID, rec); err != nil {
		rc.report.errorf("Failed to add %s record for %s: %s", rec.Type, rec.Name, err)
		rc.logger.Error().Err(err).Str("name", rec.Name).Msg("record creation failed")
		return
	}
	rc.applied++
}
