package domain

// StatusPage is a metadata snapshot of a company's status page.
type StatusPage struct {
	CompanyName     string              `json:"company_name"`
	BaseURL         string              `json:"base_url"`
	APIBaseURL      string              `json:"api_base_url,omitempty"`
	HasAPI          bool                `json:"has_api"`
	HasRSS          bool                `json:"has_rss"`
	HasHistoryPages bool                `json:"has_history_pages"`
	Components      []AffectedComponent `json:"components"`
}

// Company identifies a status page to acquire incidents from.
type Company struct {
	Name     string `json:"name" yaml:"name" koanf:"name" validate:"required,min=1,max=255"`
	URL      string `json:"url" yaml:"url" koanf:"url" validate:"required,url"`
	IsTarget bool   `json:"is_target" yaml:"is_target" koanf:"is_target"`
}
