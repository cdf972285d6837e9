package config

import (
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	mongoURIFlag      = "mongodb-uri"
	httpPortFlag      = "http-port"
	accessSecretFlag  = "access-token-secret"
	refreshSecretFlag = "refresh-token-secret"
	accessTTLFlag     = "access-token-ttl"
	refreshTTLFlag    = "refresh-token-ttl"
	apiURLFlag        = "api-url"
	developmentFlag   = "development"
)

type Config struct {
	MongoDB MongoDBConfig
	Token   TokenConfig

	APIURL      string
	HTTPPort    int
	Development bool
}

type MongoDBConfig struct {
	URI string
}

type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func Load() Config {
	viper.SetDefault(mongoURIFlag, "mongodb://localhost:27017")
	viper.SetDefault(httpPortFlag, 8080)
	viper.SetDefault(accessSecretFlag, "")
	viper.SetDefault(refreshSecretFlag, "")
	viper.SetDefault(accessTTLFlag, 15*time.Minute)
	viper.SetDefault(refreshTTLFlag, 30*24*time.Hour)
	viper.SetDefault(apiURLFlag, "http://localhost:8080")
	viper.SetDefault(developmentFlag, true)

	pflag.String(mongoURIFlag, viper.GetString(mongoURIFlag), "MongoDB URI")
	pflag.Int32(httpPortFlag, viper.GetInt32(httpPortFlag), "HTTP port")
	pflag.String(accessSecretFlag, viper.GetString(accessSecretFlag), "Access token signing secret")
	pflag.String(refreshSecretFlag, viper.GetString(refreshSecretFlag), "Refresh token signing secret")
	pflag.Duration(accessTTLFlag, viper.GetDuration(accessTTLFlag), "Access token lifetime")
	pflag.Duration(refreshTTLFlag, viper.GetDuration(refreshTTLFlag), "Refresh token lifetime")
	pflag.String(apiURLFlag, viper.GetString(apiURLFlag), "Public API URL used in activation links")
	pflag.Bool(developmentFlag, viper.GetBool(developmentFlag), "Development mode")
	pflag.Parse()

	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	for _, flag := range []string{
		mongoURIFlag, httpPortFlag, accessSecretFlag, refreshSecretFlag,
		accessTTLFlag, refreshTTLFlag, apiURLFlag, developmentFlag,
	} {
		if err := viper.BindEnv(flag); err != nil {
			panic(err)
		}
	}

	return Config{
		MongoDB: MongoDBConfig{
			URI: viper.GetString(mongoURIFlag),
		},
		Token: TokenConfig{
			AccessSecret:  viper.GetString(accessSecretFlag),
			RefreshSecret: viper.GetString(refreshSecretFlag),
			AccessTTL:     viper.GetDuration(accessTTLFlag),
			RefreshTTL:    viper.GetDuration(refreshTTLFlag),
		},
		APIURL:      viper.GetString(apiURLFlag),
		HTTPPort:    int(viper.GetInt32(httpPortFlag)),
		Development: viper.GetBool(developmentFlag),
	}
}
