package classify

import "github.com/bissquit/reliability-reporter/internal/domain"

// OtherID is the catch-all category.
const OtherID = "other"

// DefaultTaxonomy returns a fresh copy of the built-in category set.
func DefaultTaxonomy() []domain.Category {
	return []domain.Category{
		{
			ID:          "database-storage",
			Name:        "Database/Storage Issues",
			Description: "Database outages, connection failures, storage system issues, data access problems",
			Keywords:    []string{"database", "db", "postgres", "mysql", "mongodb", "redis", "storage", "disk", "connection pool"},
		},
		{
			ID:          "network-connectivity",
			Name:        "Network/Connectivity Issues",
			Description: "Network outages, connectivity problems, routing issues, DNS failures",
			Keywords:    []string{"network", "connectivity", "dns", "routing", "latency", "packet loss", "connection"},
		},
		{
			ID:          "authentication-authorization",
			Name:        "Authentication/Authorization",
			Description: "Login failures, authentication issues, authorization problems, SSO issues",
			Keywords:    []string{"auth", "login", "sso", "oauth", "permission", "access denied", "token"},
		},
		{
			ID:          "api-service-degradation",
			Name:        "API/Service Degradation",
			Description: "API errors, service degradation, increased latency, partial outages",
			Keywords:    []string{"api", "service", "degraded", "slow", "timeout", "error rate", "5xx"},
		},
		{
			ID:          "deployment-release",
			Name:        "Deployment/Release Issues",
			Description: "Deployment failures, release rollbacks, configuration changes causing issues",
			Keywords:    []string{"deploy", "release", "rollback", "config", "update", "migration"},
		},
		{
			ID:          "third-party-dependency",
			Name:        "Third-Party Dependencies",
			Description: "Issues with external services, vendor outages, integration failures",
			Keywords:    []string{"third-party", "vendor", "external", "integration", "provider", "upstream"},
		},
		{
			ID:          "infrastructure-cloud",
			Name:        "Infrastructure/Cloud Provider",
			Description: "Cloud provider issues, infrastructure failures, compute/memory problems",
			Keywords:    []string{"aws", "gcp", "azure", "cloud", "infrastructure", "server", "vm", "container"},
		},
		{
			ID:          "performance-capacity",
			Name:        "Performance/Capacity",
			Description: "Performance degradation, capacity limits, resource exhaustion",
			Keywords:    []string{"performance", "capacity", "scaling", "load", "cpu", "memory", "throughput"},
		},
		{
			ID:          "scheduled-maintenance",
			Name:        "Scheduled Maintenance",
			Description: "Planned maintenance windows, scheduled updates, announced downtime",
			Keywords:    []string{"maintenance", "scheduled", "planned", "upgrade", "update window"},
		},
		{
			ID:          OtherID,
			Name:        "Other",
			Description: "Incidents that don't fit into other categories",
			Keywords:    []string{},
		},
	}
}
