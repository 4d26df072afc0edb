package cfddns

import (
	"context"
	"fmt"
	"net/netip"
	"strings"

	utilexec "k8s.io/utils/exec"
)

// InterfaceResolver constructs a resolver that returns the first permanent
// global IPv6 address bound to the named local interface.
//
// Address flags are read from the output of "ip -6 addr show",
// because the net package cannot see kernel address flags and a temporary
// privacy address is indistinguishable from the stable one without them.
// Returning the zero netip.Addr with a nil error means the interface has no
// qualifying address, which is an expected state on v4-only networks.
func InterfaceResolver(iface string) Resolver {
	return &interfaceResolver{iface: iface, exec: utilexec.New()}
}

type interfaceResolver struct {
	iface string
	exec  utilexec.Interface
}

func (r *interfaceResolver) Resolve(ctx context.Context) (netip.Addr, error) {
	out, err := r.exec.CommandContext(ctx, "ip", "-6", "addr", "show", "dev", r.iface).CombinedOutput()
	if err != nil {
		return netip.Addr{}, fmt.Errorf("error listing addresses for interface %s: %w", r.iface, err)
	}
	return firstGlobalIPv6(string(out))
}

// firstGlobalIPv6 picks the first non-temporary global address from
// "ip -6 addr show" output. A line looks like:
//
//	inet6 2001:db8::5/64 scope global dynamic mngtmpaddr noprefixroute
func firstGlobalIPv6(output string) (netip.Addr, error) {
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != "inet6" {
			continue
		}
		if !strings.Contains(line, "scope global") || strings.Contains(line, "temporary") {
			continue
		}
		prefix, err := netip.ParsePrefix(fields[1])
		if err != nil {
			continue
		}
		addr := prefix.Addr()
		if !addr.Is6() || addr.Is4In6() || addr.IsLinkLocalUnicast() {
			continue
		}
		return addr, nil
	}
	return netip.Addr{}, nil
}
