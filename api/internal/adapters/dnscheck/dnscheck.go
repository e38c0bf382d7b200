// api/internal/adapters/dnscheck/dnscheck.go
package dnscheck

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// Checker verifies that a candidate hostname already CNAMEs to our edge
// before we spend a provider registration on it. The provider would reject
// an unpointed hostname eventually anyway; this check fails cheaper and
// with a clearer message.
type Checker struct {
	resolver   string // "host:port" of the recursive resolver
	edgeTarget string // e.g. "edge.pixelfort.dev"
	client     *dns.Client
}

func New(resolver, edgeTarget string) *Checker {
	if resolver == "" {
		resolver = "1.1.1.1:53"
	}
	return &Checker{
		resolver:   resolver,
		edgeTarget: dns.Fqdn(strings.ToLower(edgeTarget)),
		client:     &dns.Client{Timeout: 5 * time.Second},
	}
}

// PointsAtEdge resolves the CNAME chain of name and reports whether it ends
// at the configured edge target. Lookup failures are returned as errors so
// the caller can distinguish "not pointed" from "could not check".
func (c *Checker) PointsAtEdge(ctx context.Context, name string) (bool, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(strings.ToLower(name)), dns.TypeCNAME)
	msg.RecursionDesired = true

	resp, _, err := c.client.ExchangeContext(ctx, msg, c.resolver)
	if err != nil {
		return false, fmt.Errorf("cname lookup for %s: %w", name, err)
	}
	if resp.Rcode != dns.RcodeSuccess && resp.Rcode != dns.RcodeNameError {
		return false, fmt.Errorf("cname lookup for %s: rcode %s", name, dns.RcodeToString[resp.Rcode])
	}

	for _, rr := range resp.Answer {
		if cname, ok := rr.(*dns.CNAME); ok {
			if strings.EqualFold(cname.Target, c.edgeTarget) {
				return true, nil
			}
		}
	}
	return false, nil
}
