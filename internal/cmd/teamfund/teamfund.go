// Package teamfund parses server configuration and runs the TeamFund API.
package teamfund

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	platformcmd "github.com/louisbranch/teamfund/internal/platform/cmd"
	"github.com/louisbranch/teamfund/internal/platform/config"
	"github.com/louisbranch/teamfund/internal/platform/secret"
	"github.com/louisbranch/teamfund/internal/platform/timeouts"
	"github.com/louisbranch/teamfund/internal/services/teamfund/api/httpapi"
	"github.com/louisbranch/teamfund/internal/services/teamfund/app"
	"github.com/louisbranch/teamfund/internal/services/teamfund/integration/apify"
	"github.com/louisbranch/teamfund/internal/services/teamfund/integration/here"
	"github.com/louisbranch/teamfund/internal/services/teamfund/integration/imagegen"
	"github.com/louisbranch/teamfund/internal/services/teamfund/integration/llm"
	"github.com/louisbranch/teamfund/internal/services/teamfund/mail"
	"github.com/louisbranch/teamfund/internal/services/teamfund/outreach"
	"github.com/louisbranch/teamfund/internal/services/teamfund/payments"
	"github.com/louisbranch/teamfund/internal/services/teamfund/session"
	"github.com/louisbranch/teamfund/internal/services/teamfund/storage/sqlite"
)

// Config holds the server command configuration.
type Config struct {
	Port          int    `env:"TEAMFUND_PORT" envDefault:"8080"`
	Host          string `env:"TEAMFUND_HOST" envDefault:"localhost"`
	DBPath        string `env:"TEAMFUND_DB_PATH" envDefault:"data/teamfund.db"`
	EncryptionKey string `env:"TEAMFUND_ENCRYPTION_KEY"`
	SessionSecret string `env:"TEAMFUND_SESSION_SECRET"`

	GoogleClientID     string `env:"TEAMFUND_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"TEAMFUND_GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURI  string `env:"TEAMFUND_GOOGLE_REDIRECT_URI"`

	ApifyToken   string `env:"TEAMFUND_APIFY_API_TOKEN"`
	ApifyActorID string `env:"TEAMFUND_APIFY_ACTOR_ID"`
	HereAPIKey   string `env:"TEAMFUND_HERE_API_KEY"`

	PerplexityAPIKey  string `env:"TEAMFUND_PERPLEXITY_API_KEY"`
	PerplexityBaseURL string `env:"TEAMFUND_PERPLEXITY_BASE_URL"`
	OpenAIAPIKey      string `env:"TEAMFUND_OPENAI_API_KEY"`
	OpenAIModel       string `env:"TEAMFUND_OPENAI_MODEL"`
	GeminiAPIKey      string `env:"TEAMFUND_GEMINI_API_KEY"`
	ImageModel        string `env:"TEAMFUND_IMAGE_MODEL"`

	StripeSecretKey     string `env:"TEAMFUND_STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `env:"TEAMFUND_STRIPE_WEBHOOK_SECRET"`

	MaxUploadBytes int64 `env:"TEAMFUND_MAX_UPLOAD_BYTES" envDefault:"10485760"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	fs.StringVar(&cfg.Host, "host", cfg.Host, "HTTP listen host")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite database path")
	fs.StringVar(&cfg.GoogleRedirectURI, "google-redirect-uri", cfg.GoogleRedirectURI, "Gmail OAuth callback URL")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// HTTPAddr returns the listen address.
func (c Config) HTTPAddr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Run opens the store, wires the configured providers and serves until ctx
// ends.
func Run(ctx context.Context, cfg Config) error {
	return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceTeamFund, func(ctx context.Context) error {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer store.Close()

		apiCfg, err := BuildAPIConfig(ctx, cfg)
		if err != nil {
			return err
		}
		apiCfg.Store = store

		server, err := app.NewServer(ctx, app.Config{HTTPAddr: cfg.HTTPAddr(), API: apiCfg})
		if err != nil {
			return fmt.Errorf("init teamfund server: %w", err)
		}
		defer server.Close()

		if err := server.ListenAndServe(ctx); err != nil {
			return fmt.Errorf("serve teamfund: %w", err)
		}
		return nil
	})
}

// BuildAPIConfig constructs every provider cfg enables. The store is left
// for the caller.
func BuildAPIConfig(ctx context.Context, cfg Config) (httpapi.Config, error) {
	if strings.TrimSpace(cfg.SessionSecret) == "" {
		return httpapi.Config{}, errors.New("TEAMFUND_SESSION_SECRET is required")
	}
	verifier, err := session.NewVerifier(session.Config{Secret: []byte(cfg.SessionSecret)})
	if err != nil {
		return httpapi.Config{}, fmt.Errorf("session verifier: %w", err)
	}
	apiCfg := httpapi.Config{
		Sessions:        verifier,
		MailRedirectURI: strings.TrimSpace(cfg.GoogleRedirectURI),
		MaxUploadBytes:  cfg.MaxUploadBytes,
	}

	outbound := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	bounded := &http.Client{Transport: outbound.Transport, Timeout: timeouts.Outbound}

	if key := strings.TrimSpace(cfg.HereAPIKey); key != "" {
		apiCfg.Discoverer = here.NewClient(here.Config{APIKey: key, HTTPClient: bounded})
	}
	if token := strings.TrimSpace(cfg.ApifyToken); token != "" {
		apiCfg.Scraper = apify.NewClient(apify.Config{
			Token:      token,
			ActorID:    cfg.ApifyActorID,
			HTTPClient: &http.Client{Transport: outbound.Transport, Timeout: timeouts.Scrape},
		})
	}

	generation := &http.Client{Transport: outbound.Transport, Timeout: timeouts.Generation}
	if key := strings.TrimSpace(cfg.PerplexityAPIKey); key != "" {
		baseURL := strings.TrimSpace(cfg.PerplexityBaseURL)
		if baseURL == "" {
			baseURL = llm.PerplexityBaseURL
		}
		researcher, err := llm.NewClient(llm.Config{
			Name:       "Perplexity",
			APIKey:     key,
			BaseURL:    baseURL,
			Model:      llm.ResearchModel,
			HTTPClient: generation,
		})
		if err != nil {
			return httpapi.Config{}, fmt.Errorf("perplexity client: %w", err)
		}
		apiCfg.Researcher = researcher
	}
	if key := strings.TrimSpace(cfg.OpenAIAPIKey); key != "" {
		model := strings.TrimSpace(cfg.OpenAIModel)
		if model == "" {
			model = llm.DefaultWriterModel
		}
		writer, err := llm.NewClient(llm.Config{Name: "OpenAI", APIKey: key, Model: model, HTTPClient: generation})
		if err != nil {
			return httpapi.Config{}, fmt.Errorf("openai client: %w", err)
		}
		apiCfg.Outreach = outreach.NewGenerator(writer)
	}
	if key := strings.TrimSpace(cfg.GeminiAPIKey); key != "" {
		images, err := imagegen.NewClient(ctx, imagegen.Config{APIKey: key, Model: cfg.ImageModel, HTTPClient: generation})
		if err != nil {
			return httpapi.Config{}, fmt.Errorf("image client: %w", err)
		}
		apiCfg.Mockups = images
	}

	mailEnabled, err := config.RequireTogether(map[string]string{
		"TEAMFUND_GOOGLE_CLIENT_ID":     cfg.GoogleClientID,
		"TEAMFUND_GOOGLE_CLIENT_SECRET": cfg.GoogleClientSecret,
	})
	if err != nil {
		return httpapi.Config{}, fmt.Errorf("google oauth: %w", err)
	}
	if mailEnabled {
		key, err := secret.ParseKey(cfg.EncryptionKey)
		if err != nil {
			return httpapi.Config{}, fmt.Errorf("TEAMFUND_ENCRYPTION_KEY: %w", err)
		}
		sealer, err := secret.NewAESGCMSealer(key)
		if err != nil {
			return httpapi.Config{}, fmt.Errorf("sealer: %w", err)
		}
		oauth, err := mail.NewOAuth(mail.OAuthConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURI:  cfg.GoogleRedirectURI,
		})
		if err != nil {
			return httpapi.Config{}, fmt.Errorf("google oauth: %w", err)
		}
		apiCfg.Sealer = sealer
		apiCfg.MailAuth = oauth
	}

	stripeEnabled, err := config.RequireTogether(map[string]string{
		"TEAMFUND_STRIPE_SECRET_KEY":     cfg.StripeSecretKey,
		"TEAMFUND_STRIPE_WEBHOOK_SECRET": cfg.StripeWebhookSecret,
	})
	if err != nil {
		return httpapi.Config{}, fmt.Errorf("stripe: %w", err)
	}
	if stripeEnabled {
		service, err := payments.NewService(payments.Config{
			SecretKey:     cfg.StripeSecretKey,
			WebhookSecret: cfg.StripeWebhookSecret,
		})
		if err != nil {
			return httpapi.Config{}, fmt.Errorf("stripe: %w", err)
		}
		apiCfg.Payments = service
	}

	log.Printf("providers here=%t apify=%t research=%t writer=%t images=%t gmail=%t stripe=%t",
		apiCfg.Discoverer != nil, apiCfg.Scraper != nil, apiCfg.Researcher != nil,
		apiCfg.Outreach != nil, apiCfg.Mockups != nil, apiCfg.MailAuth != nil, apiCfg.Payments != nil)
	return apiCfg, nil
}
