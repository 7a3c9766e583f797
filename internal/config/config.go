package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/pion/stun/v3"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type ICEServer struct {
	URLs       []string `mapstructure:"urls" validate:"required,min=1,dive,required"`
	Username   string   `mapstructure:"username"`
	Credential string   `mapstructure:"credential"`
}

type Config struct {
	Mode               string        `mapstructure:"mode" validate:"oneof=debug release test"`
	Port               int           `mapstructure:"port" validate:"min=1,max=65535"`
	LogLevel           string        `mapstructure:"log_level" validate:"oneof=trace debug info warn error"`
	ReadLimit          int64         `mapstructure:"read_limit" validate:"min=1024"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	SweepInterval      time.Duration `mapstructure:"sweep_interval" validate:"gt=0"`
	SendBuffer         int           `mapstructure:"send_buffer" validate:"min=1,max=4096"`
	DefaultRoom        string        `mapstructure:"default_room" validate:"required"`
	Secret             string        `mapstructure:"secret"`
	CORSAllow          []string      `mapstructure:"cors_allow"`
	JoinRateLimit      int           `mapstructure:"join_rate_limit" validate:"min=1"`
	JoinRateWindow     time.Duration `mapstructure:"join_rate_window" validate:"gt=0"`
	BackpressurePolicy string        `mapstructure:"backpressure_policy" validate:"oneof=drop kick"`
	ICEServers         []ICEServer   `mapstructure:"ice_servers" validate:"dive"`

	// ICE is ICEServers checked and converted for clients.
	ICE []webrtc.ICEServer `mapstructure:"-"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 3000)
	v.SetDefault("log_level", "info")
	v.SetDefault("read_limit", 65536)
	v.SetDefault("write_timeout", "10s")
	v.SetDefault("sweep_interval", "30s")
	v.SetDefault("send_buffer", 32)
	v.SetDefault("default_room", "default-room")
	v.SetDefault("secret", "")
	v.SetDefault("cors_allow", []string{"*"})
	v.SetDefault("join_rate_limit", 20)
	v.SetDefault("join_rate_window", "10s")
	v.SetDefault("backpressure_policy", "drop")
	v.SetDefault("ice_servers", []map[string]any{
		{"urls": []string{"stun:stun.l.google.com:19302"}},
	})
}

// Load reads .env, then config/config.<CONFIG_ENV>.yaml (or --config),
// then the environment, then command line flags, later sources winning.
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Str("module", "config").Msg(".env not loaded")
	}

	flags := pflag.NewFlagSet("rendezvous", pflag.ContinueOnError)
	file := flags.String("config", "", "config file path (default config/config.<CONFIG_ENV>.yaml)")
	flags.String("mode", "release", "gin mode: debug, release or test")
	flags.Int("port", 3000, "listen port")
	flags.String("log-level", "info", "log level")
	flags.String("backpressure-policy", "drop", "drop or kick slow receivers")
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	fileName := *file
	if fileName == "" {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		fileName = fmt.Sprintf("config/config.%s.yaml", env)
	}
	v.SetConfigFile(fileName)

	v.SetEnvPrefix("RENDEZVOUS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("port", "RENDEZVOUS_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	for key, flag := range map[string]string{
		"mode":                "mode",
		"port":                "port",
		"log_level":           "log-level",
		"backpressure_policy": "backpressure-policy",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if *file != "" {
			return nil, fmt.Errorf("read config %s: %w", fileName, err)
		}
		log.Info().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	ice, err := ParseICEServers(cfg.ICEServers)
	if err != nil {
		return nil, err
	}
	cfg.ICE = ice

	if cfg.Secret == "" {
		cfg.Secret = uuid.NewString()
		log.Warn().Str("module", "config").Msg("no secret configured, client cookies will not survive restarts")
	}

	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("policy", cfg.BackpressurePolicy).Msg("config ready")
	return &cfg, nil
}

// ParseICEServers checks every STUN/TURN url and converts the list into
// the shape browsers expect in RTCPeerConnection configuration.
func ParseICEServers(in []ICEServer) ([]webrtc.ICEServer, error) {
	out := make([]webrtc.ICEServer, 0, len(in))
	for _, s := range in {
		for _, raw := range s.URLs {
			u, err := stun.ParseURI(raw)
			if err != nil {
				return nil, fmt.Errorf("ice server %q: %w", raw, err)
			}
			if (u.Scheme == stun.SchemeTypeTURN || u.Scheme == stun.SchemeTypeTURNS) && s.Username == "" {
				return nil, fmt.Errorf("ice server %q: turn requires username", raw)
			}
		}
		srv := webrtc.ICEServer{URLs: s.URLs, Username: s.Username}
		if s.Credential != "" {
			srv.Credential = s.Credential
		}
		out = append(out, srv)
	}
	return out, nil
}
