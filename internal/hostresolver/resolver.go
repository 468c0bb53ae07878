// Copyright (c) 2026 nodeadmin authors
// nodeadmin - node administrative lifecycle controller
// This source code is licensed under the MIT license found in the LICENSE file.

// Package hostresolver translates free-form "host[:port]" strings into
// concrete datanode identities, disambiguating multi-homed matches by port.
package hostresolver // import "github.com/scmadmin/nodeadmin/internal/hostresolver"

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/scmadmin/nodeadmin/internal/logging"
	"github.com/scmadmin/nodeadmin/internal/model"
)

// ErrInvalidHostString is returned when an input string cannot be resolved
// to exactly one datanode identity.
var ErrInvalidHostString = errors.New("invalid host string")

// AddressLookup is the subset of the node registry contract HostResolver
// depends on, kept narrow so tests can supply a fake without standing up a
// full NodeRegistry.
type AddressLookup interface {
	GetNodesByAddress(ctx context.Context, key string) ([]model.DatanodeIdentity, error)
}

// DNSResolver abstracts forward/reverse DNS lookups so tests never touch
// the real network.
type DNSResolver interface {
	LookupHost(ctx context.Context, host string) (addrs []string, err error)
	LookupAddr(ctx context.Context, addr string) (names []string, err error)
}

// netDNSResolver adapts *net.Resolver to DNSResolver.
type netDNSResolver struct {
	r *net.Resolver
}

func (n netDNSResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	return n.r.LookupHost(ctx, host)
}

func (n netDNSResolver) LookupAddr(ctx context.Context, addr string) ([]string, error) {
	return n.r.LookupAddr(ctx, addr)
}

// NewDefaultDNSResolver returns a DNSResolver backed by net.DefaultResolver.
func NewDefaultDNSResolver() DNSResolver {
	return netDNSResolver{r: net.DefaultResolver}
}

// Resolver resolves administrator-supplied host strings to datanode identities.
type Resolver struct {
	Registry     AddressLookup
	DNS          DNSResolver
	UseHostnames bool
}

// New builds a Resolver over the given registry and DNS backend.
func New(registry AddressLookup, dns DNSResolver, useHostnames bool) *Resolver {
	return &Resolver{Registry: registry, DNS: dns, UseHostnames: useHostnames}
}

// Resolve resolves every input string to exactly one datanode identity.
// Resolution is all-or-nothing: the first failing input aborts the whole
// batch, per spec.
func (r *Resolver) Resolve(ctx context.Context, hosts []string) ([]model.DatanodeIdentity, error) {
	out := make([]model.DatanodeIdentity, 0, len(hosts))
	for _, raw := range hosts {
		id, err := r.resolveOne(ctx, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func (r *Resolver) resolveOne(ctx context.Context, raw string) (model.DatanodeIdentity, error) {
	def, err := parseHostDefinition(raw)
	if err != nil {
		return model.DatanodeIdentity{}, err
	}

	addrs, err := r.DNS.LookupHost(ctx, def.Hostname)
	if err != nil || len(addrs) == 0 {
		return model.DatanodeIdentity{}, fmt.Errorf("%w: %q unable to resolve: %v", ErrInvalidHostString, raw, err)
	}
	addr := addrs[0]

	key := addr
	if r.UseHostnames {
		names, err := r.DNS.LookupAddr(ctx, addr)
		if err == nil && len(names) > 0 {
			key = strings.TrimSuffix(names[0], ".")
		}
	}

	candidates, err := r.Registry.GetNodesByAddress(ctx, key)
	if err != nil {
		return model.DatanodeIdentity{}, fmt.Errorf("%w: %q: %v", ErrInvalidHostString, raw, err)
	}

	switch len(candidates) {
	case 0:
		return model.DatanodeIdentity{}, fmt.Errorf("%w: %q not found in SCM", ErrInvalidHostString, raw)
	case 1:
		dn := candidates[0]
		if def.Port == -1 {
			return dn, nil
		}
		if dn.HasPort(def.Port) {
			return dn, nil
		}
		return model.DatanodeIdentity{}, fmt.Errorf("%w: %q port not used by that Datanode", ErrInvalidHostString, raw)
	default:
		if def.Port == -1 {
			return model.DatanodeIdentity{}, fmt.Errorf("%w: %q no datanode port matched", ErrInvalidHostString, raw)
		}
		for _, dn := range candidates {
			if dn.HasPort(def.Port) {
				return dn, nil
			}
		}
		return model.DatanodeIdentity{}, fmt.Errorf("%w: %q no datanode port matched", ErrInvalidHostString, raw)
	}
}

// parseHostDefinition parses s as host[:port] by trimming, then
// interpreting it as the authority component of a URI with a fabricated
// scheme, so bracketed IPv6 literals and port separators are handled by
// standard URI authority rules rather than ad-hoc splitting.
func parseHostDefinition(raw string) (model.HostDefinition, error) {
	trimmed := strings.TrimSpace(raw)
	u, err := url.Parse("scm://" + trimmed)
	if err != nil {
		return model.HostDefinition{}, fmt.Errorf("%w: %q does not contain a valid hostname: %v", ErrInvalidHostString, raw, err)
	}

	hostname := u.Hostname()
	if hostname == "" {
		return model.HostDefinition{}, fmt.Errorf("%w: %q does not contain a valid hostname", ErrInvalidHostString, raw)
	}

	port := -1
	if p := u.Port(); p != "" {
		v, err := strconv.Atoi(p)
		if err != nil {
			return model.HostDefinition{}, fmt.Errorf("%w: %q does not contain a valid hostname: bad port %q", ErrInvalidHostString, raw, p)
		}
		port = v
	}

	logging.Debugf("parsed host definition raw=%q hostname=%q port=%d", raw, hostname, port)
	return model.HostDefinition{RawHostname: raw, Hostname: hostname, Port: port}, nil
}
