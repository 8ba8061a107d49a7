// Package config resolves connection settings from flags, environment and
// an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/richinsley/cmfy/client"
)

const (
	EnvHostname = "COMFY_HOSTNAME"
	EnvPort     = "COMFY_PORT"
	EnvClientID = "COMFY_CLIENT_ID"
	EnvConfig   = "COMFY_CONFIG"

	DefaultHostname = "localhost"
	DefaultPort     = 8188
)

// Config is the connection target of every command.
type Config struct {
	Hostname string `yaml:"hostname" validate:"required,hostname_rfc1123|ip"`
	Port     int    `yaml:"port" validate:"required,min=1,max=65535"`
	ClientID string `yaml:"client_id" validate:"omitempty,uuid"`
}

func Default() Config {
	return Config{Hostname: DefaultHostname, Port: DefaultPort}
}

// DefaultPath is $XDG_CONFIG_HOME/cmfy/config.yaml or its platform
// equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "cmfy", "config.yaml")
}

// LoadFile reads a YAML config. A missing file yields an empty Config.
func LoadFile(path string) (Config, error) {
	var c Config
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return c, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, &client.ParseError{What: "config " + path, Err: err}
	}
	return c, nil
}

// FromEnv reads the COMFY_* variables through lookup.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	var c Config
	if v, ok := lookup(EnvHostname); ok {
		c.Hostname = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvPort); ok && strings.TrimSpace(v) != "" {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return c, client.NewInputError(v, EnvPort+" must be a port number")
		}
		c.Port = port
	}
	if v, ok := lookup(EnvClientID); ok {
		c.ClientID = strings.TrimSpace(v)
	}
	return c, nil
}

// Resolve layers the given configs over the defaults, later layers winning.
// Zero fields in a layer leave the value underneath untouched.
func Resolve(layers ...Config) (Config, error) {
	c := Default()
	for _, layer := range layers {
		if err := mergo.Merge(&c, layer, mergo.WithOverride); err != nil {
			return c, err
		}
	}
	return c, c.Validate()
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	var errs []error
	for _, fe := range verrs {
		errs = append(errs, client.NewInputError(fmt.Sprint(fe.Value()),
			fmt.Sprintf("%s fails '%s'", strings.ToLower(fe.Field()), fe.Tag())))
	}
	return errors.Join(errs...)
}
