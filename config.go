package dataapi

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const dsnScheme = "dataapi://"

// Config identifies the database cluster and the credentials used to reach
// it through the Data API.
type Config struct {
	ResourceArn string `yaml:"resource_arn"`
	SecretArn   string `yaml:"secret_arn"`
	Database    string `yaml:"database,omitempty"`
	// Schema is only meaningful for PostgreSQL clusters.
	Schema string `yaml:"schema,omitempty"`
	Region string `yaml:"region,omitempty"`

	// Static keys. When empty the SDK's default credential chain is used.
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
	SessionToken    string `yaml:"session_token,omitempty"`

	// Endpoint overrides the service URL, eg. for an emulator.
	Endpoint    string        `yaml:"endpoint,omitempty"`
	MaxAttempts int           `yaml:"max_attempts,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
}

func (c Config) Validate() error {
	if c.ResourceArn == "" {
		return configErrorf("resource_arn", "required")
	}
	if c.SecretArn == "" {
		return configErrorf("secret_arn", "required")
	}
	if c.Region == "" && c.Endpoint == "" {
		return configErrorf("region", "required when no endpoint is set")
	}
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return configErrorf("access_key_id", "access key id and secret access key must be given together")
	}
	if c.Endpoint != "" {
		u, err := url.Parse(c.Endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return configErrorf("endpoint", "not an absolute URL: %q", c.Endpoint)
		}
	}
	if c.MaxAttempts < 0 {
		return configErrorf("max_attempts", "must be >= 0, got %d", c.MaxAttempts)
	}
	if c.Timeout < 0 {
		return configErrorf("timeout", "must be >= 0, got %v", c.Timeout)
	}
	return nil
}

// ConfigFromEnv reads the environment variables used by deployments of the
// Data API adaptor. Missing variables are left empty; call Validate.
func ConfigFromEnv() Config {
	return Config{
		ResourceArn:     os.Getenv("RDS_RESOURCE_ARN"),
		SecretArn:       os.Getenv("RDS_SECRET_ARN"),
		Database:        os.Getenv("RDS_DATABASE_NAME"),
		Schema:          os.Getenv("RDS_SCHEMA"),
		Region:          os.Getenv("RDS_REGION"),
		AccessKeyID:     os.Getenv("ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("SESSION_TOKEN"),
		Endpoint:        os.Getenv("RDS_ENDPOINT"),
	}
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(filename string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(filename)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, configErrorf("config file", "parsing %s: %v", filename, err)
	}
	return cfg, nil
}

// ParseDSN parses the data source name given to sql.Open. It is a URL query
// string, optionally prefixed with "dataapi://?":
//
//	dataapi://?resource_arn=arn:aws:rds:...&secret_arn=arn:aws:secretsmanager:...&database=app&region=eu-west-1
func ParseDSN(dsn string) (cfg Config, err error) {
	dsn = strings.TrimPrefix(dsn, dsnScheme)
	dsn = strings.TrimPrefix(dsn, "?")
	values, err := url.ParseQuery(dsn)
	if err != nil {
		err = configErrorf("dsn", "%v", err)
		return
	}
	for key, vs := range values {
		v := vs[len(vs)-1]
		switch key {
		case "resource_arn":
			cfg.ResourceArn = v
		case "secret_arn":
			cfg.SecretArn = v
		case "database":
			cfg.Database = v
		case "schema":
			cfg.Schema = v
		case "region":
			cfg.Region = v
		case "access_key_id":
			cfg.AccessKeyID = v
		case "secret_access_key":
			cfg.SecretAccessKey = v
		case "session_token":
			cfg.SessionToken = v
		case "endpoint":
			cfg.Endpoint = v
		case "max_attempts":
			cfg.MaxAttempts, err = strconv.Atoi(v)
			if err != nil {
				err = configErrorf("max_attempts", "%q is not an integer", v)
				return
			}
		case "timeout":
			cfg.Timeout, err = time.ParseDuration(v)
			if err != nil {
				err = configErrorf("timeout", "%q is not a duration", v)
				return
			}
		default:
			err = configErrorf("dsn", "unknown parameter %q", key)
			return
		}
	}
	return
}

// FormatDSN is the inverse of ParseDSN.
func (c Config) FormatDSN() string {
	values := url.Values{}
	set := func(key, value string) {
		if value != "" {
			values.Set(key, value)
		}
	}
	set("resource_arn", c.ResourceArn)
	set("secret_arn", c.SecretArn)
	set("database", c.Database)
	set("schema", c.Schema)
	set("region", c.Region)
	set("access_key_id", c.AccessKeyID)
	set("secret_access_key", c.SecretAccessKey)
	set("session_token", c.SessionToken)
	set("endpoint", c.Endpoint)
	if c.MaxAttempts != 0 {
		values.Set("max_attempts", strconv.Itoa(c.MaxAttempts))
	}
	if c.Timeout != 0 {
		values.Set("timeout", c.Timeout.String())
	}
	return dsnScheme + "?" + values.Encode()
}
