package config

import (
	_ "embed"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

//go:embed default/config.yaml
var defaultConfigData []byte

const (
	ConfigurationName = "osh.yaml"
)

type Configuration struct {
	configFs afero.Fs

	InitialDescriptors int    `json:"initial_descriptors" validate:"gte=1"`
	InitialCommands    int    `json:"initial_commands" validate:"gte=1"`
	OpenMode           string `json:"open_mode" validate:"required,filemode"`
	ExecFailureStatus  int    `json:"exec_failure_status" validate:"gte=0,lte=255"`

	SelfExecGuard SelfExecGuard `json:"self_exec_guard"`

	Color   string `json:"color" validate:"oneof=always auto never"`
	Verbose bool   `json:"verbose"`
	Profile bool   `json:"profile"`

	EventLog string `json:"event_log"`
	EnvFile  string `json:"env_file"`
}

type SelfExecGuard struct {
	Enabled bool `json:"enabled"`
	Status  int  `json:"status" validate:"gte=0,lte=255"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})
	if err := validate.RegisterValidation("filemode", func(fl validator.FieldLevel) bool {
		_, err := parseFileMode(fl.Field().String())
		return err == nil
	}); err != nil {
		return err
	}

	return validate.Struct(c)
}

func parseFileMode(s string) (uint32, error) {
	mode, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, err
	}
	if mode&^0o7777 != 0 {
		return 0, fmt.Errorf("mode %q has bits outside of 07777", s)
	}
	return uint32(mode), nil
}

// FileMode returns OpenMode as permission bits.
func (c *Configuration) FileMode() uint32 {
	mode, err := parseFileMode(c.OpenMode)
	if err != nil {
		// Validate rejects these.
		return 0o644
	}
	return mode
}

func (c *Configuration) fs() afero.Fs {
	return c.configFs
}

// OpenEventLog opens the event log in an append only state. It returns a
// nil file if no event log is configured.
func (c *Configuration) OpenEventLog() (afero.File, error) {
	if c.EventLog == "" {
		return nil, nil
	}
	return c.fs().OpenFile(c.EventLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// ReadEventLog opens the event log for reading.
func (c *Configuration) ReadEventLog() (afero.File, error) {
	if c.EventLog == "" {
		return nil, fmt.Errorf("no event_log configured")
	}
	return c.fs().OpenFile(c.EventLog, os.O_RDONLY, 0600)
}

// ChildEnv returns the variables from the env file as KEY=VALUE pairs sorted
// by key, or nil if there is no env file.
func (c *Configuration) ChildEnv() ([]string, error) {
	if c.EnvFile == "" {
		return nil, nil
	}
	fd, err := c.fs().Open(c.EnvFile)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	vars, err := godotenv.Parse(fd)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", c.EnvFile, err)
	}

	var out []string
	for k, v := range vars {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out, nil
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
