package cfddns_test

import (
	"context"
	"log"
	"os"

	"github.com/pmuller/cfddns"
)

func ExampleNew() {
	updater, err := cfddns.New(
		"example.com",
		cfddns.UsingCloudflare(os.Getenv(cfddns.EnvAPIToken)),
		cfddns.WithInterface("eth0"),
		cfddns.AddMissingAAAA(true),
	)
	if err != nil {
		log.Fatalf("error creating updater: %s", err)
	}
	// run once:
	report, err := updater.Run(context.Background())
	if err != nil {
		log.Fatalf("dns update failed: %s", err)
	}
	for _, change := range report.Changes {
		log.Println(change)
	}
}

func ExampleWebResolver() {
	// I'm not vouching for these services, but they do return the IP of the client connection.
	// If possible, run your own and provide the URL here instead.
	r, err := cfddns.WebResolver(
		"https://checkip.amazonaws.com/",
		"https://api.ipify.org",
	)
	if err != nil {
		log.Fatalf("error creating resolver: %s", err)
	}
	updater, err := cfddns.New(
		"example.com",
		cfddns.UsingCloudflare(os.Getenv(cfddns.EnvAPIToken)),
		cfddns.UsingResolver(r),
	)
	if err != nil {
		log.Fatalf("error creating updater: %s", err)
	}
	// run once:
	if _, err := updater.Run(context.Background()); err != nil {
		log.Fatalf("dns update failed: %s", err)
	}
}

func ExampleNewMailer() {
	mailer, err := cfddns.NewMailer("hostmaster@example.com", "")
	if err != nil {
		log.Fatalf("error creating mailer: %s", err)
	}
	updater, err := cfddns.New(
		"example.com",
		cfddns.UsingCloudflare(os.Getenv(cfddns.EnvAPIToken)),
		cfddns.WithNotifier(mailer),
		cfddns.ForceReport(true),
	)
	if err != nil {
		log.Fatalf("error creating updater: %s", err)
	}
	if _, err := updater.Run(context.Background()); err != nil {
		log.Fatalf("dns update failed: %s", err)
	}
}
