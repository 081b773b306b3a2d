package api

import (
	"github.com/damianmunoz/debinfo-dispatcher/pkg/config"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/graph"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/graphql"
)

// Config holds the HTTP-facing settings of a Server.
type Config struct {
	Version        string
	Variant        graph.Variant
	DefaultGraph   string
	AllowedOrigins []string
	TrustedProxies []string
	MaxBodyBytes   int64
	TLSEnabled     bool

	// TranslateRate limits POST /api/translate per client, in requests per
	// second. Zero disables the limit.
	TranslateRate  float64
	TranslateBurst int

	GraphQLMaxDepth int
	GraphQLLimits   graphql.LimitConfig
}

// ConfigFrom derives the server settings from the application config.
func ConfigFrom(c *config.Config, version string) Config {
	return Config{
		Version:         version,
		Variant:         graph.ParseVariant(c.Server.Variant),
		AllowedOrigins:  c.Server.AllowedOrigins,
		TrustedProxies:  c.Server.TrustedProxies,
		MaxBodyBytes:    c.Server.MaxBodyBytes,
		TranslateRate:   c.Server.TranslateRate,
		TranslateBurst:  c.Server.TranslateBurst,
		GraphQLMaxDepth: graphql.DefaultMaxDepth,
		GraphQLLimits:   graphql.DefaultLimitConfig(),
	}
}

func (c *Config) applyDefaults() {
	if c.Version == "" {
		c.Version = "dev"
	}
	if c.Variant == "" {
		c.Variant = graph.VariantProvenance
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = config.DefaultMaxBodyBytes
	}
	if c.TranslateBurst <= 0 {
		c.TranslateBurst = config.DefaultTranslateBurst
	}
	if c.GraphQLMaxDepth <= 0 {
		c.GraphQLMaxDepth = graphql.DefaultMaxDepth
	}
	if c.GraphQLLimits.MaxLimit <= 0 {
		c.GraphQLLimits = graphql.DefaultLimitConfig()
	}
}
