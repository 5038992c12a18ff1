// Package tenant maps inbound hostnames to published documents and owns
// the deploy/undeploy transitions that make a document addressable.
package tenant

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"portfolio-backend/internal/documents"
	"portfolio-backend/internal/shared/metrics"
	"portfolio-backend/internal/shared/telemetry"
	"portfolio-backend/internal/subdomains"
)

// Kind is the outcome of host resolution.
type Kind string

const (
	KindMainSite Kind = "main_site"
	KindTenant   Kind = "tenant"
	KindNotFound Kind = "not_found"
)

// Decision is the result of ResolveHost. Document is set only for KindTenant.
type Decision struct {
	Kind      Kind
	Host      string
	Subdomain string
	Document  documents.Document
}

// Lookup finds the document holding a subdomain.
type Lookup interface {
	GetBySubdomain(ctx context.Context, subdomain string) (documents.Document, error)
}

// Router resolves hostnames against the document store.
type Router struct {
	BaseDomain string
	Docs       Lookup
}

func NewRouter(baseDomain string, docs Lookup) *Router {
	return &Router{BaseDomain: normalizeHost(baseDomain), Docs: docs}
}

// ResolveHost classifies host. Only the first label is used to find a
// tenant. Any store failure resolves to KindNotFound.
func (r *Router) ResolveHost(ctx context.Context, host string) Decision {
	start := time.Now()
	d := r.resolve(ctx, host)
	metrics.IncTenantResolution(string(d.Kind))
	metrics.ObserveTenantResolveMs(float64(time.Since(start).Microseconds()) / 1000.0)
	return d
}

func (r *Router) resolve(ctx context.Context, rawHost string) Decision {
	host := normalizeHost(rawHost)
	if isMainSiteHost(host, r.BaseDomain) {
		return Decision{Kind: KindMainSite, Host: host}
	}

	label, _, _ := strings.Cut(host, ".")
	if subdomains.IsReserved(label) {
		return Decision{Kind: KindMainSite, Host: host, Subdomain: label}
	}

	doc, err := r.Docs.GetBySubdomain(ctx, label)
	if err != nil {
		if !errors.Is(err, documents.ErrNotFound) {
			telemetry.Error("tenant.resolve_failed", map[string]any{
				"host":  host,
				"error": err,
			})
		}
		return Decision{Kind: KindNotFound, Host: host, Subdomain: label}
	}
	if !doc.IsDeployed || !strings.EqualFold(doc.Subdomain, label) {
		return Decision{Kind: KindNotFound, Host: host, Subdomain: label}
	}
	return Decision{Kind: KindTenant, Host: host, Subdomain: label, Document: doc}
}

// normalizeHost lowercases host and strips any port, brackets and trailing dot.
func normalizeHost(raw string) string {
	host := strings.ToLower(strings.TrimSpace(raw))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	return strings.TrimSuffix(host, ".")
}

func isMainSiteHost(host, baseDomain string) bool {
	switch {
	case host == "":
		return true
	case host == "localhost" || strings.HasSuffix(host, ".localhost"):
		return true
	case net.ParseIP(host) != nil:
		return true
	case !strings.Contains(host, "."):
		return true
	case baseDomain != "" && host == baseDomain:
		return true
	}
	return false
}
