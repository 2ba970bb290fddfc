package whitelist

import (
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Checker tells whether an address belongs to one of the configured domains.
// An empty checker accepts every address.
type Checker struct {
	domains []string
	logger  *zap.Logger
}

// NewChecker creates a new domain checker
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	normalized := lo.Uniq(lo.FilterMap(domains, func(domain string, _ int) (string, bool) {
		domain = strings.ToLower(strings.TrimSpace(domain))
		return domain, domain != ""
	}))

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized domain checker", zap.Strings("domains", normalized))
	}

	return &Checker{
		domains: normalized,
		logger:  logger,
	}
}

// Domains returns the normalized domain list
func (c *Checker) Domains() []string {
	return c.domains
}

// IsAllowed checks if the domain of address is in the list
func (c *Checker) IsAllowed(address string) bool {
	if len(c.domains) == 0 {
		return true
	}

	domain, ok := Domain(address)
	if !ok {
		return false
	}

	allowed := lo.Contains(c.domains, domain)
	if !allowed && c.logger != nil {
		c.logger.Debug("Domain is not accepted",
			zap.String("domain", domain),
			zap.String("address", address))
	}
	return allowed
}

// Domain returns the lower-cased domain part of an address
func Domain(address string) (string, bool) {
	address = strings.Trim(strings.TrimSpace(address), "<>")
	at := strings.LastIndex(address, "@")
	if at < 0 || at == len(address)-1 {
		return "", false
	}
	return strings.ToLower(address[at+1:]), true
}
