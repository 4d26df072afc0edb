package cfddns

import (
	"context"
	"fmt"

	"github.com/cloudflare/cloudflare-go"
	"github.com/rs/zerolog"
)

func newCloudflareProvider(token string) (cf *cloudflareProvider, err error) {
	cf = new(cloudflareProvider)
	cf.api, err = cloudflare.NewWithAPIToken(token)
	if err != nil {
		return nil, fmt.Errorf("error creating cloudflare api client: %w", err)
	}
	cf.logger = zerolog.Nop()
	return cf, nil
}

// cloudflareProvider implements Provider on top of the cloudflare-go client.
// The client surfaces API responses with success=false as errors carrying the
// provider's error messages, so those propagate unchanged to change records.
type cloudflareProvider struct {
	api    *cloudflare.API
	logger zerolog.Logger
}

func (cf *cloudflareProvider) VerifyToken(ctx context.Context) error {
	result, err := cf.api.VerifyAPIToken(ctx)
	if err != nil {
		return fmt.Errorf("unable to verify api token: %w", err)
	}
	if result.Status != "active" {
		return fmt.Errorf("expected api token status to be \"active\"; got \"%s\"", result.Status)
	}
	cf.logger.Debug().Msg("api token verified")
	return nil
}

func (cf *cloudflareProvider) ZoneID(ctx context.Context, domain string) (string, error) {
	zid, err := cf.api.ZoneIDByName(domain)
	if err != nil {
		return "", fmt.Errorf("unable to get zone ID for %s: %w", domain, err)
	}
	cf.logger.Debug().Str("zone_id", zid).Str("domain", domain).Msg("resolved zone")
	return zid, nil
}

func (cf *cloudflareProvider) Records(ctx context.Context, zoneID, recordType string) ([]Record, error) {
	records, _, err := cf.api.ListDNSRecords(ctx, cloudflare.ZoneIdentifier(zoneID), cloudflare.ListDNSRecordsParams{
		Type: recordType,
	})
	if err != nil {
		return nil, fmt.Errorf("error listing %s records: %w", recordType, err)
	}
	cf.logger.Debug().Int("count", len(records)).Str("type", recordType).Msg("listed records")
	result := make([]Record, 0, len(records))
	for _, r := range records {
		proxied := false
		if r.Proxied != nil {
			proxied = *r.Proxied
		}
		result = append(result, Record{
			ID:      r.ID,
			Type:    r.Type,
			Name:    r.Name,
			Content: r.Content,
			TTL:     r.TTL,
			Proxied: proxied,
		})
	}
	return result, nil
}

func (cf *cloudflareProvider) UpdateRecord(ctx context.Context, zoneID string, r Record) error {
	proxied := r.Proxied
	_, err := cf.api.UpdateDNSRecord(ctx, cloudflare.ZoneIdentifier(zoneID), cloudflare.UpdateDNSRecordParams{
		ID:      r.ID,
		Type:    r.Type,
		Name:    r.Name,
		Content: r.Content,
		TTL:     r.TTL,
		Proxied: &proxied,
	})
	if err != nil {
		return fmt.Errorf("error updating DNS record %s: %w", r.ID, err)
	}
	return nil
}

func (cf *cloudflareProvider) CreateRecord(ctx context.Context, zoneID string, r Record) error {
	proxied := r.Proxied
	_, err := cf.api.CreateDNSRecord(ctx, cloudflare.ZoneIdentifier(zoneID), cloudflare.CreateDNSRecordParams{
		Type:    r.Type,
		Name:    r.Name,
		Content: r.Content,
		ZoneID:  zoneID,
		TTL:     r.TTL,
		Proxied: &proxied,
	})
	if err != nil {
		return fmt.Errorf("error creating DNS record: %w", err)
	}
	return nil
}
