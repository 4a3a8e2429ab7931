package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "medsft/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// EntrezConfig holds settings for the NCBI E-utilities client.
type EntrezConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the E-utilities root (default https://eutils.ncbi.nlm.nih.gov/entrez/eutils).
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Database is the Entrez database to query (default "pubmed").
	Database string `json:"database" yaml:"database"`

	// Email is the contact address NCBI asks every client to send.
	Email string `json:"email" yaml:"email"`

	// Tool names this client in E-utilities requests (default "medsft").
	Tool string `json:"tool" yaml:"tool"`

	// Sort is the esearch sort order (default "relevance").
	Sort string `json:"sort" yaml:"sort"`

	// RequestsPerSecond throttles calls to E-utilities (default 3, the NCBI
	// limit for clients without an API key). Negative disables throttling.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
}

// AcquisitionConfig holds settings for the acquisition stage.
type AcquisitionConfig struct {
	// StartDate and EndDate bound the publication-date query. They are used
	// verbatim, typically in YYYY/MM/DD form.
	StartDate string `json:"start_date" yaml:"start_date"`
	EndDate   string `json:"end_date" yaml:"end_date"`

	// MaxArticles caps both the search request and the number of normalized
	// records produced (default 1000).
	MaxArticles int `json:"max_articles" yaml:"max_articles"`

	// BatchSize is the number of identifiers sent per fetch call (default 200).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// OutputPath is the JSON file the normalized records are written to.
	OutputPath string `json:"output_path" yaml:"output_path"`
}

// SFTConfig holds settings for the training-pair stage.
type SFTConfig struct {
	// InputPath is an acquisition output file.
	InputPath string `json:"input_path" yaml:"input_path"`

	// OutputPath is the training-pair JSON file; its directory is created.
	OutputPath string `json:"output_path" yaml:"output_path"`
}

// CorpusConfig holds settings for the local corpus index.
type CorpusConfig struct {
	// DBPath is the SQLite database file (default corpus/corpus.db).
	DBPath string `json:"db_path" yaml:"db_path"`

	// MaxResults is the default maximum number of search results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}
