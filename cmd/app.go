// Package cmd implements the bo command line application, the back office
// client to prepare and submit purchases.
package cmd

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/backoffice"
	"github.com/etnz/backoffice/api"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

// Commands are the bo subcommands.
var Commands = []subcommands.Command{
	&purchaseCmd{},
	&searchCmd{},
	&barcodeCmd{},
	&convertCmd{},
	&currenciesCmd{},
	&topicCmd{},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var apiURL = flag.String("api-url", "", "Back office server URL. Overrides the "+EnvAPIURL+" environment variable.")
var apiToken = flag.String("token", "", "API bearer token. Overrides the "+EnvAPIToken+" environment variable.")
var timeout = flag.Duration("timeout", 0, "Timeout of each server call. Overrides the "+EnvTimeout+" environment variable.")

// Verbose turns on debug logs of the server calls.
var Verbose = flag.Bool("v", false, "Log every server call.")

// Config is the application configuration. It is read from BO_* environment
// variables, after loading the .env file of the working directory if any.
// Command line flags take precedence.
type Config struct {
	APIURL  string        `envconfig:"API_URL" default:"http://localhost:8000/api"`
	Token   string        `envconfig:"API_TOKEN"`
	Verbose bool          `envconfig:"VERBOSE"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"30s"`
}

// LoadConfig returns the configuration.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := envconfig.Process("BO", &cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	if *apiURL != "" {
		cfg.APIURL = *apiURL
	}
	if *apiToken != "" {
		cfg.Token = *apiToken
	}
	if *timeout != 0 {
		cfg.Timeout = *timeout
	}
	if *Verbose {
		cfg.Verbose = true
	}
	return cfg, nil
}

// Env returns the configuration as environment variables.
func (c Config) Env() []string {
	return []string{
		EnvAPIURL + "=" + c.APIURL,
		EnvAPIToken + "=" + c.Token,
		EnvVerbose + "=" + strconv.FormatBool(c.Verbose),
		EnvTimeout + "=" + c.Timeout.String(),
	}
}

// newLogger returns the logger of the server calls, on stderr.
func newLogger(cfg Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	if cfg.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// newClient returns a client of the configured server.
func newClient() (*api.Client, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return api.New(cfg.APIURL, cfg.Token, api.WithLogger(newLogger(cfg)), api.WithTimeout(cfg.Timeout))
}

// parseCurrency finds a currency by id or by code.
func parseCurrency(c *backoffice.Currencies, s string) (backoffice.Currency, error) {
	if id, err := strconv.Atoi(s); err == nil {
		return c.Get(id)
	}
	return c.ByCode(strings.ToUpper(s))
}

// printMarkdown prints md rendered for the terminal, or raw if it cannot be rendered.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err == nil {
		if out, err := r.Render(md); err == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Print(md)
}
