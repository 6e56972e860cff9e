package main

import (
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"flowbuilder/infrastructure/config"
)

// settings are the flowctl options, read from flags, FLOW_* environment
// variables and an optional config file
type settings struct {
	Store       string        `mapstructure:"store"`
	Key         string        `mapstructure:"key"`
	Dir         string        `mapstructure:"dir"`
	Table       string        `mapstructure:"table"`
	Region      string        `mapstructure:"region"`
	Codec       string        `mapstructure:"codec"`
	Compression string        `mapstructure:"compression"`
	JWTSecret   string        `mapstructure:"jwt_secret"`
	JWTIssuer   string        `mapstructure:"jwt_issuer"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"`
	JSON        bool          `mapstructure:"json"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("FLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store", config.StoreFile)
	v.SetDefault("key", "chatbot-flow")
	v.SetDefault("dir", "./data")
	v.SetDefault("table", "flowbuilder")
	v.SetDefault("region", "us-west-2")
	v.SetDefault("codec", "json")
	v.SetDefault("compression", "none")
	v.SetDefault("jwt_issuer", "flowbuilder")
	v.SetDefault("token_ttl", 24*time.Hour)
	return v
}

// bindFlags lets flags override the environment under their underscored name
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if bindErr := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); bindErr != nil && err == nil {
			err = bindErr
		}
	})
	return err
}

func loadSettings(v *viper.Viper) (*settings, error) {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// appConfig maps settings onto the service configuration so flowctl opens
// stores exactly as the server does
func (s *settings) appConfig() *config.Config {
	return &config.Config{
		Environment:         "cli",
		AWSRegion:           s.Region,
		DynamoDBTable:       s.Table,
		SnapshotStore:       strings.ToLower(s.Store),
		SnapshotKey:         s.Key,
		SnapshotDir:         s.Dir,
		SnapshotCodec:       s.Codec,
		SnapshotCompression: s.Compression,
		NotificationTTL:     time.Second,
		LogLevel:            "error",
	}
}
