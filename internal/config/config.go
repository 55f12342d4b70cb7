package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is read once at startup and treated as immutable afterwards.
type Config struct {
	Env             string
	DefaultCurrency string
	MockFallback    bool
	SearchCacheTTL  time.Duration

	// Carrier code -> display name lookup used during normalization.
	Carriers map[string]string

	AmadeusEnabled      bool
	AmadeusHost         string
	AmadeusClientID     string
	AmadeusClientSecret string
	AmadeusPriority     int

	SabreEnabled  bool
	SabreWSDL     string
	SabrePriority int

	AviationstackEnabled  bool
	AviationstackHost     string
	AviationstackAPIKey   string
	AviationstackPriority int
}

func Load() *Config {
	v := viper.New()

	v.SetDefault("env", "development")
	v.SetDefault("default_currency", "BRL")
	v.SetDefault("mock_fallback", true)
	v.SetDefault("search_cache_ttl", "0s")

	v.SetDefault("amadeus_enabled", true)
	v.SetDefault("amadeus_host", "https://test.api.amadeus.com")
	v.SetDefault("amadeus_priority", 2)

	v.SetDefault("sabre_enabled", false)
	v.SetDefault("sabre_priority", 1)

	v.SetDefault("aviationstack_enabled", false)
	v.SetDefault("aviationstack_host", "https://api.aviationstack.com")
	v.SetDefault("aviationstack_priority", 3)

	v.SetDefault("carriers", map[string]string{
		"LA": "LATAM Airlines",
		"JJ": "LATAM Brasil",
		"G3": "Gol Linhas Aéreas",
		"AD": "Azul Linhas Aéreas",
		"TP": "TAP Air Portugal",
		"AA": "American Airlines",
		"AF": "Air France",
		"AR": "Aerolíneas Argentinas",
		"AV": "Avianca",
		"BA": "British Airways",
		"CM": "Copa Airlines",
		"DL": "Delta Air Lines",
		"EK": "Emirates",
		"IB": "Iberia",
		"KL": "KLM",
		"LH": "Lufthansa",
		"UA": "United Airlines",
	})

	if path := os.Getenv("PASSAGENS_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		// Fallback to conventional locations for local dev
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/passagens")
	}

	if err := v.ReadInConfig(); err != nil {
		log.Printf("no config file found, using defaults + env vars: %v", err)
	}

	v.AutomaticEnv()

	ttl, err := time.ParseDuration(v.GetString("search_cache_ttl"))
	if err != nil {
		log.Fatalf("bad search_cache_ttl: %v", err)
	}

	carriers := make(map[string]string)
	for code, name := range v.GetStringMapString("carriers") {
		// viper lowercases map keys
		carriers[strings.ToUpper(code)] = name
	}

	return &Config{
		Env:             v.GetString("env"),
		DefaultCurrency: v.GetString("default_currency"),
		MockFallback:    v.GetBool("mock_fallback"),
		SearchCacheTTL:  ttl,
		Carriers:        carriers,

		AmadeusEnabled:      v.GetBool("amadeus_enabled"),
		AmadeusHost:         v.GetString("amadeus_host"),
		AmadeusClientID:     v.GetString("amadeus_clientid"),
		AmadeusClientSecret: v.GetString("amadeus_clientsecret"),
		AmadeusPriority:     v.GetInt("amadeus_priority"),

		SabreEnabled:  v.GetBool("sabre_enabled"),
		SabreWSDL:     v.GetString("sabre_wsdl"),
		SabrePriority: v.GetInt("sabre_priority"),

		AviationstackEnabled:  v.GetBool("aviationstack_enabled"),
		AviationstackHost:     v.GetString("aviationstack_host"),
		AviationstackAPIKey:   v.GetString("aviationstack_apikey"),
		AviationstackPriority: v.GetInt("aviationstack_priority"),
	}
}
