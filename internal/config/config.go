// File: backend/internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/urlstatus/checkflow/backend/internal/regions"
)

const (
	regionsConfigFilename          = "regions.config.json"
	DefaultCheckRateLimitCPS       = 2.0
	DefaultCheckRateLimitBurst     = 3
	DefaultSystemAPIKeyPlaceholder = "SET_A_REAL_KEY_IN_CONFIG_OR_ENV_7a1c4e9b7a1c4e9b"
	DefaultStreamChunkSize         = 50
	DefaultRemoteCheckBaseURL      = "https://check-host.net"
	DefaultExcludedRegion          = "India"
	DefaultUserAgent               = "Mozilla/5.0"
)

// --- Struct Definitions ---

// AppConfig is the runtime configuration. Duration fields are converted from
// the seconds-as-int representation used in config.json.
type AppConfig struct {
	Server         ServerConfig
	Prober         ProberConfig
	RemoteCheck    RemoteCheckConfig
	Resolver       ResolverConfig
	Logging        LoggingConfig
	Regions        []regions.Entry
	loadedFromPath string
}

func (ac *AppConfig) GetLoadedFromPath() string { return ac.loadedFromPath }

type LoggingConfig struct {
	Level string `json:"level"`
}

type ServerConfig struct {
	Port            string `json:"port"`
	APIKey          string `json:"apiKey"`
	StreamChunkSize int    `json:"streamChunkSize,omitempty"`
}

// ProberConfig controls the direct HTTP probe.
type ProberConfig struct {
	UserAgent        string
	RequestTimeout   time.Duration
	AllowInsecureTLS bool
	RateLimitCPS     float64
	RateLimitBurst   int

	RequestTimeoutSeconds int `json:"-"`
}

type ProberConfigJSON struct {
	UserAgent             string  `json:"userAgent"`
	RequestTimeoutSeconds int     `json:"requestTimeoutSeconds"`
	AllowInsecureTLS      bool    `json:"allowInsecureTLS"`
	RateLimitCPS          float64 `json:"rateLimitCps,omitempty"`
	RateLimitBurst        int     `json:"rateLimitBurst,omitempty"`
}

// RemoteCheckConfig controls the delegated check against the distributed
// checking service: submission, the fixed-cadence poll loop, and the region
// excluded from the final classification.
type RemoteCheckConfig struct {
	BaseURL           string
	UserAgent         string
	SubmitTimeout     time.Duration
	PollTimeout       time.Duration
	PollAttempts      int
	PollInterval      time.Duration
	ExcludedRegion    string
	MaxURLsPerRequest int

	SubmitTimeoutSeconds int `json:"-"`
	PollTimeoutSeconds   int `json:"-"`
	PollIntervalSeconds  int `json:"-"`
}

type RemoteCheckConfigJSON struct {
	BaseURL              string `json:"baseUrl"`
	UserAgent            string `json:"userAgent,omitempty"`
	SubmitTimeoutSeconds int    `json:"submitTimeoutSeconds"`
	PollTimeoutSeconds   int    `json:"pollTimeoutSeconds"`
	PollAttempts         int    `json:"pollAttempts"`
	PollIntervalSeconds  int    `json:"pollIntervalSeconds"`
	ExcludedRegion       string `json:"excludedRegion"`
	MaxURLsPerRequest    int    `json:"maxUrlsPerRequest,omitempty"`
}

// ResolverConfig controls the DNS lookup used to annotate check results.
type ResolverConfig struct {
	Resolvers    []string
	QueryTimeout time.Duration

	QueryTimeoutSeconds int `json:"-"`
}

type ResolverConfigJSON struct {
	Resolvers           []string `json:"resolvers"`
	QueryTimeoutSeconds int      `json:"queryTimeoutSeconds"`
}

type AppConfigJSON struct {
	Server      ServerConfig          `json:"server"`
	Prober      ProberConfigJSON      `json:"prober"`
	RemoteCheck RemoteCheckConfigJSON `json:"remoteCheck"`
	Resolver    ResolverConfigJSON    `json:"resolver"`
	Logging     LoggingConfig         `json:"logging"`
}

// LoadRegions loads supplemental region table entries from the configuration
// directory. A missing file is not an error; the built-in table still applies.
func LoadRegions(configDir string) ([]regions.Entry, error) {
	filePath := filepath.Join(configDir, regionsConfigFilename)
	var entries []regions.Entry
	data, err := ioutil.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("Config: Regions config file '%s' not found. Using built-in region table.", filePath)
			return entries, nil
		}
		return nil, fmt.Errorf("failed to read Regions config file '%s': %w", filePath, err)
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("error unmarshalling Regions config file '%s': %w", filePath, err)
	}
	log.Printf("Config: Loaded %d region entries from '%s'", len(entries), filePath)
	return entries, nil
}

// SaveRegions saves supplemental region table entries to the configuration directory.
func SaveRegions(entries []regions.Entry, configDir string) error {
	filePath := filepath.Join(configDir, regionsConfigFilename)
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal region entries to JSON: %w", err)
	}
	if err := ioutil.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write region entries to file '%s': %w", filePath, err)
	}
	log.Printf("Config: Successfully saved %d region entries to '%s'", len(entries), filePath)
	return nil
}

// Load reads the main config file, applying defaults for anything missing.
// A missing file is created with defaults so operators have something to edit.
func Load(mainConfigPath string) (*AppConfig, error) {
	if mainConfigPath == "" {
		mainConfigPath = "config.json"
		log.Printf("Config: Main config path empty, using default: %s", mainConfigPath)
	}
	log.Printf("Config: Attempting to load main config from: %s", mainConfigPath)

	appCfgJSON := DefaultAppConfigJSON()
	var originalLoadError error

	data, err := ioutil.ReadFile(mainConfigPath)
	if err != nil {
		originalLoadError = err
		if os.IsNotExist(err) {
			log.Printf("Config: Main config file '%s' not found. Using defaults and attempting to save.", mainConfigPath)
			defaultAppCfg := ConvertJSONToAppConfig(appCfgJSON)
			defaultAppCfg.loadedFromPath = mainConfigPath
			if saveErr := Save(defaultAppCfg, mainConfigPath); saveErr != nil {
				log.Printf("Config: Failed to save default config file '%s': %v", mainConfigPath, saveErr)
			} else {
				log.Printf("Config: Saved default config to '%s'", mainConfigPath)
			}
		} else {
			log.Printf("Config: Error reading main config '%s': %v. Using defaults.", mainConfigPath, err)
		}
	} else {
		if errUnmarshal := json.Unmarshal(data, &appCfgJSON); errUnmarshal != nil {
			log.Printf("Config: Error unmarshalling main config '%s': %v. Using defaults for unparsed fields.", mainConfigPath, errUnmarshal)
			originalLoadError = errUnmarshal
		}
	}

	appConfig := ConvertJSONToAppConfig(appCfgJSON)
	appConfig.loadedFromPath = mainConfigPath

	configDir := filepath.Dir(mainConfigPath)
	if filepath.Base(mainConfigPath) == mainConfigPath {
		cwd, errCwd := os.Getwd()
		if errCwd == nil {
			configDir = cwd
		} else {
			log.Printf("Config Warning: Could not get CWD for supplemental configs: %v.", errCwd)
		}
	}

	regionEntries, loadErr := LoadRegions(configDir)
	if loadErr != nil {
		log.Printf("Config Notice: Error loading region entries, proceeding with built-in table: %v", loadErr)
		regionEntries = nil
	}
	appConfig.Regions = regionEntries

	return appConfig, originalLoadError
}

// --- Conversion functions ---

func ConvertJSONToProberConfig(jsonCfg ProberConfigJSON) ProberConfig {
	cfg := ProberConfig{
		UserAgent:             jsonCfg.UserAgent,
		RequestTimeout:        time.Duration(jsonCfg.RequestTimeoutSeconds) * time.Second,
		AllowInsecureTLS:      jsonCfg.AllowInsecureTLS,
		RateLimitCPS:          jsonCfg.RateLimitCPS,
		RateLimitBurst:        jsonCfg.RateLimitBurst,
		RequestTimeoutSeconds: jsonCfg.RequestTimeoutSeconds,
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.RequestTimeoutSeconds <= 0 {
		cfg.RequestTimeoutSeconds = 5
		cfg.RequestTimeout = 5 * time.Second
	}
	if cfg.RateLimitCPS <= 0 {
		cfg.RateLimitCPS = DefaultCheckRateLimitCPS
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = DefaultCheckRateLimitBurst
	}
	return cfg
}

func ConvertProberConfigToJSON(cfg ProberConfig) ProberConfigJSON {
	return ProberConfigJSON{
		UserAgent:             cfg.UserAgent,
		RequestTimeoutSeconds: cfg.RequestTimeoutSeconds,
		AllowInsecureTLS:      cfg.AllowInsecureTLS,
		RateLimitCPS:          cfg.RateLimitCPS,
		RateLimitBurst:        cfg.RateLimitBurst,
	}
}

func ConvertJSONToRemoteCheckConfig(jsonCfg RemoteCheckConfigJSON) RemoteCheckConfig {
	cfg := RemoteCheckConfig{
		BaseURL:              jsonCfg.BaseURL,
		UserAgent:            jsonCfg.UserAgent,
		SubmitTimeout:        time.Duration(jsonCfg.SubmitTimeoutSeconds) * time.Second,
		PollTimeout:          time.Duration(jsonCfg.PollTimeoutSeconds) * time.Second,
		PollAttempts:         jsonCfg.PollAttempts,
		PollInterval:         time.Duration(jsonCfg.PollIntervalSeconds) * time.Second,
		ExcludedRegion:       jsonCfg.ExcludedRegion,
		MaxURLsPerRequest:    jsonCfg.MaxURLsPerRequest,
		SubmitTimeoutSeconds: jsonCfg.SubmitTimeoutSeconds,
		PollTimeoutSeconds:   jsonCfg.PollTimeoutSeconds,
		PollIntervalSeconds:  jsonCfg.PollIntervalSeconds,
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultRemoteCheckBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.SubmitTimeoutSeconds <= 0 {
		cfg.SubmitTimeoutSeconds = 10
		cfg.SubmitTimeout = 10 * time.Second
	}
	if cfg.PollTimeoutSeconds <= 0 {
		cfg.PollTimeoutSeconds = 10
		cfg.PollTimeout = 10 * time.Second
	}
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = 10
	}
	if cfg.PollIntervalSeconds <= 0 {
		cfg.PollIntervalSeconds = 2
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.ExcludedRegion == "" {
		cfg.ExcludedRegion = DefaultExcludedRegion
	}
	if cfg.MaxURLsPerRequest <= 0 {
		cfg.MaxURLsPerRequest = 50
	}
	return cfg
}

func ConvertRemoteCheckConfigToJSON(cfg RemoteCheckConfig) RemoteCheckConfigJSON {
	return RemoteCheckConfigJSON{
		BaseURL:              cfg.BaseURL,
		UserAgent:            cfg.UserAgent,
		SubmitTimeoutSeconds: cfg.SubmitTimeoutSeconds,
		PollTimeoutSeconds:   cfg.PollTimeoutSeconds,
		PollAttempts:         cfg.PollAttempts,
		PollIntervalSeconds:  cfg.PollIntervalSeconds,
		ExcludedRegion:       cfg.ExcludedRegion,
		MaxURLsPerRequest:    cfg.MaxURLsPerRequest,
	}
}

func ConvertJSONToResolverConfig(jsonCfg ResolverConfigJSON) ResolverConfig {
	cfg := ResolverConfig{
		Resolvers:           jsonCfg.Resolvers,
		QueryTimeout:        time.Duration(jsonCfg.QueryTimeoutSeconds) * time.Second,
		QueryTimeoutSeconds: jsonCfg.QueryTimeoutSeconds,
	}
	if cfg.QueryTimeoutSeconds <= 0 {
		cfg.QueryTimeoutSeconds = 5
		cfg.QueryTimeout = 5 * time.Second
	}
	return cfg
}

func ConvertResolverConfigToJSON(cfg ResolverConfig) ResolverConfigJSON {
	return ResolverConfigJSON{
		Resolvers:           cfg.Resolvers,
		QueryTimeoutSeconds: cfg.QueryTimeoutSeconds,
	}
}

func ConvertJSONToAppConfig(jsonCfg AppConfigJSON) *AppConfig {
	appCfg := &AppConfig{
		Server:      jsonCfg.Server,
		Prober:      ConvertJSONToProberConfig(jsonCfg.Prober),
		RemoteCheck: ConvertJSONToRemoteCheckConfig(jsonCfg.RemoteCheck),
		Resolver:    ConvertJSONToResolverConfig(jsonCfg.Resolver),
		Logging:     jsonCfg.Logging,
	}
	if appCfg.Server.StreamChunkSize <= 0 {
		appCfg.Server.StreamChunkSize = DefaultStreamChunkSize
	}
	return appCfg
}

func ConvertAppConfigToJSON(appCfg *AppConfig) AppConfigJSON {
	return AppConfigJSON{
		Server:      appCfg.Server,
		Prober:      ConvertProberConfigToJSON(appCfg.Prober),
		RemoteCheck: ConvertRemoteCheckConfigToJSON(appCfg.RemoteCheck),
		Resolver:    ConvertResolverConfigToJSON(appCfg.Resolver),
		Logging:     appCfg.Logging,
	}
}

// Save writes the main configuration file.
func Save(cfg *AppConfig, filePath string) error {
	if filePath == "" {
		return fmt.Errorf("cannot save config, file path is empty")
	}
	appCfgJSON := ConvertAppConfigToJSON(cfg)
	data, err := json.MarshalIndent(appCfgJSON, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal app config to JSON: %w", err)
	}
	if err := ioutil.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write app config to file '%s': %w", filePath, err)
	}
	log.Printf("Config: Successfully saved main configuration to '%s'", filePath)
	return nil
}

func DefaultAppConfigJSON() AppConfigJSON {
	return AppConfigJSON{
		Server: ServerConfig{
			Port:            "8080",
			APIKey:          DefaultSystemAPIKeyPlaceholder,
			StreamChunkSize: DefaultStreamChunkSize,
		},
		Prober: ProberConfigJSON{
			UserAgent:             DefaultUserAgent,
			RequestTimeoutSeconds: 5,
			AllowInsecureTLS:      false,
			RateLimitCPS:          DefaultCheckRateLimitCPS,
			RateLimitBurst:        DefaultCheckRateLimitBurst,
		},
		RemoteCheck: RemoteCheckConfigJSON{
			BaseURL:              DefaultRemoteCheckBaseURL,
			UserAgent:            DefaultUserAgent,
			SubmitTimeoutSeconds: 10,
			PollTimeoutSeconds:   10,
			PollAttempts:         10,
			PollIntervalSeconds:  2,
			ExcludedRegion:       DefaultExcludedRegion,
			MaxURLsPerRequest:    50,
		},
		Resolver: ResolverConfigJSON{
			Resolvers:           []string{"1.1.1.1:53", "8.8.8.8:53"},
			QueryTimeoutSeconds: 5,
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
	}
}

func DefaultConfig() *AppConfig { return ConvertJSONToAppConfig(DefaultAppConfigJSON()) }
