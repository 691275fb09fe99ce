package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/adrianliechti/wingman-chat/pkg/logging"
	"github.com/adrianliechti/wingman-chat/pkg/model"
	"github.com/adrianliechti/wingman-chat/pkg/ollama"
	"github.com/adrianliechti/wingman-chat/pkg/selector"
	"github.com/adrianliechti/wingman-chat/pkg/tool/mcp"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

type Config struct {
	*Settings

	Model    *model.Client
	Selector *selector.Selector

	MCP *mcp.Manager
}

type Settings struct {
	Provider string `mapstructure:"provider"`

	URL   string `mapstructure:"url"`
	Model string `mapstructure:"model"`
	Token string `mapstructure:"token"`

	Selector SelectorSettings `mapstructure:"selector"`
	Client   ClientSettings   `mapstructure:"client"`

	Manifest string   `mapstructure:"manifest"`
	Servers  []string `mapstructure:"servers"`

	LogLevel string `mapstructure:"log_level"`
}

type SelectorSettings struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Model   string `mapstructure:"model"`
}

type ClientSettings struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// Load parses args, connects to every configured tool-host and builds the
// model and selector clients. The returned cleanup closes all connections.
func Load(ctx context.Context, args []string) (*Config, func(), error) {
	settings, err := Parse(args)

	if err != nil {
		return nil, nil, err
	}

	logging.Setup(settings.LogLevel, os.Stderr)

	client, err := createModel(settings)

	if err != nil {
		return nil, nil, err
	}

	cfg := &Config{
		Settings: settings,

		Model: client,
		MCP:   mcp.New(settings.Client.Name, settings.Client.Version),
	}

	if settings.Selector.Enabled {
		url := settings.Selector.URL

		if url == "" {
			url = settings.URL
		}

		generator, err := ollama.New(url, nil)

		if err != nil {
			return nil, nil, fmt.Errorf("selector: %w", err)
		}

		cfg.Selector = selector.New(generator, settings.Selector.Model)
	}

	for _, server := range settings.Servers {
		if err := cfg.MCP.Connect(ctx, server); err != nil {
			cfg.Cleanup()
			return nil, nil, err
		}
	}

	return cfg, cfg.Cleanup, nil
}

func (c *Config) Cleanup() {
	if c.MCP != nil {
		c.MCP.Close()
	}
}

func createModel(s *Settings) (*model.Client, error) {
	switch strings.ToLower(s.Provider) {
	case ProviderOllama:
		client, err := ollama.New(s.URL, nil)

		if err != nil {
			return nil, err
		}

		return model.New(model.NewOllama(client), s.Model), nil

	case ProviderOpenAI:
		baseURL := strings.TrimRight(s.URL, "/") + "/v1"
		return model.New(model.NewOpenAI(baseURL, s.Token), s.Model), nil
	}

	return nil, fmt.Errorf("unsupported provider %q", s.Provider)
}

var flagKeys = map[string]string{
	"provider":       "provider",
	"url":            "url",
	"model":          "model",
	"selector-url":   "selector.url",
	"selector-model": "selector.model",
	"manifest":       "manifest",
	"log-level":      "log_level",
}

// Parse resolves settings from defaults, an optional config file, .env,
// WINGMAN_* environment variables and command line flags, in increasing
// precedence. Positional arguments name tool-host scripts.
func Parse(args []string) (*Settings, error) {
	godotenv.Load()

	flags := pflag.NewFlagSet("wingman-chat", pflag.ContinueOnError)

	configFile := flags.String("config", "", "path to a config file")
	noSelector := flags.Bool("no-selector", false, "offer every tool to the model instead of pre-selecting")

	flags.String("provider", "", "model provider (ollama or openai)")
	flags.String("url", "", "model API base url")
	flags.String("model", "", "model name")
	flags.String("selector-url", "", "tool selector API base url")
	flags.String("selector-model", "", "tool selector model name")
	flags.String("manifest", "", "manifest of tool-host build paths")
	flags.String("log-level", "", "log level (debug, info, warn, error)")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()

	v.SetDefault("provider", ProviderOllama)
	v.SetDefault("url", ollama.DefaultURL)
	v.SetDefault("model", "llama3.2")
	v.SetDefault("token", "")

	v.SetDefault("selector.enabled", true)
	v.SetDefault("selector.url", "")
	v.SetDefault("selector.model", selector.DefaultModel)

	v.SetDefault("client.name", "wingman-chat")
	v.SetDefault("client.version", "1.0.0")

	v.SetDefault("manifest", "")
	v.SetDefault("servers", []string{})
	v.SetDefault("log_level", "warn")

	v.SetEnvPrefix("wingman")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if *configFile != "" {
		v.SetConfigFile(*configFile)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		v.SetConfigName("wingman")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError

			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	flags.Visit(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			v.Set(key, f.Value.String())
		}
	})

	if *noSelector {
		v.Set("selector.enabled", false)
	}

	var s Settings

	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	servers := s.Servers

	if s.Manifest != "" {
		manifest, err := mcp.LoadManifest(s.Manifest)

		if err != nil {
			return nil, err
		}

		servers = append(servers, manifest.Descriptors()...)
	}

	servers = append(servers, flags.Args()...)

	servers, err := mcp.ExpandDescriptors(servers)

	if err != nil {
		return nil, err
	}

	if len(servers) == 0 {
		return nil, mcp.ErrNoServers
	}

	for _, server := range servers {
		if _, err := mcp.Launcher(server); err != nil {
			return nil, err
		}
	}

	s.Servers = servers

	return &s, nil
}
