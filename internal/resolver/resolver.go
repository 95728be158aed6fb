// File: backend/internal/resolver/resolver.go
package resolver

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/url"
	"strings"

	"github.com/miekg/dns"

	"github.com/urlstatus/checkflow/backend/internal/config"
)

// Resolver performs A-record lookups against a fixed list of resolvers.
// It is used to annotate check results with the target's resolved addresses;
// lookup failures are reported but never fail a check.
type Resolver struct {
	cfg       config.ResolverConfig
	resolvers []string
	client    *dns.Client
}

func New(cfg config.ResolverConfig) *Resolver {
	resolvers := cfg.Resolvers
	if len(resolvers) == 0 {
		sysConfig, err := dns.ClientConfigFromFile("/etc/resolv.conf")
		if err == nil && len(sysConfig.Servers) > 0 {
			for _, serverIP := range sysConfig.Servers {
				resolvers = append(resolvers, net.JoinHostPort(serverIP, sysConfig.Port))
			}
		} else if err != nil {
			log.Printf("Resolver: Warning - Could not load system resolvers: %v", err)
		}
	}
	return &Resolver{
		cfg:       cfg,
		resolvers: resolvers,
		client:    &dns.Client{Timeout: cfg.QueryTimeout},
	}
}

// LookupHost resolves the A records for a hostname, trying each configured
// resolver in order until one answers.
func (r *Resolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	if net.ParseIP(host) != nil {
		return []string{host}, nil
	}
	if len(r.resolvers) == 0 {
		return nil, fmt.Errorf("no resolvers configured")
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), dns.TypeA)
	msg.RecursionDesired = true

	var lastErr error
	for _, resolverAddr := range r.resolvers {
		reply, _, err := r.client.ExchangeContext(ctx, msg, resolverAddr)
		if err != nil {
			lastErr = fmt.Errorf("query to %s failed: %w", resolverAddr, err)
			continue
		}
		if reply.Rcode != dns.RcodeSuccess {
			lastErr = fmt.Errorf("resolver %s answered %s for %s", resolverAddr, dns.RcodeToString[reply.Rcode], host)
			continue
		}
		var ips []string
		for _, answer := range reply.Answer {
			if a, ok := answer.(*dns.A); ok {
				ips = append(ips, a.A.String())
			}
		}
		if len(ips) > 0 {
			return ips, nil
		}
		lastErr = fmt.Errorf("resolver %s returned no A records for %s", resolverAddr, host)
	}
	return nil, lastErr
}

// LookupURL resolves the host portion of a URL. A missing scheme is tolerated
// the same way the prober tolerates it.
func (r *Resolver) LookupURL(ctx context.Context, rawURL string) ([]string, error) {
	target := rawURL
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = "http://" + target
	}
	parsed, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %s: %w", rawURL, err)
	}
	host := parsed.Hostname()
	if host == "" {
		return nil, fmt.Errorf("no host in URL %s", rawURL)
	}
	return r.LookupHost(ctx, host)
}
