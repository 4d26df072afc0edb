/*
Package cfddns keeps Cloudflare DNS records in sync with a host's current
public IPv4 address and, optionally, a global IPv6 address read from a local
network interface.

Usage will always start with [cfddns.New],
which returns an *Updater configured for one domain.
New requires the domain whose zone will be updated and a provider option
such as [cfddns.UsingCloudflare].
Additional options are listed in the docs for New.
One call to [Updater.Run] performs a single reconciliation pass and returns
a [Report] describing every change that was attempted.
*/
package cfddns
