package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel  string        `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	Port      string        `yaml:"port" env:"PORT" env-default:"3000"`
	StaticDir string        `yaml:"static-dir" env:"STATIC_DIR" env-default:""`
	RoomTTL   time.Duration `yaml:"room-ttl" env:"ROOM_TTL" env-default:"1h"`
	Redis     Redis         `yaml:"redis"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// Player configures the terminal client.
type Player struct {
	LogLevel       string        `env:"PLAYER_LOG_LEVEL" env-default:"warn"`
	ServerURL      string        `env:"PLAYER_SERVER_URL" env-default:"ws://localhost:3000/ws"`
	Mode           string        `env:"PLAYER_MODE" env-default:"multi"`
	PairingTimeout time.Duration `env:"PLAYER_PAIRING_TIMEOUT" env-default:"10s"`
	AIDelay        time.Duration `env:"PLAYER_AI_DELAY" env-default:"300ms"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

// MustLoadPlayer reads the client settings from the environment only.
func MustLoadPlayer() *Player {
	player := &Player{}

	if err := cleanenv.ReadEnv(player); err != nil {
		panic(fmt.Errorf("unable to load player config: %w", err))
	}

	return player
}

func (that *Redis) GetRedisAddr() string {
	if that.Host == "" || that.Port == "" {
		return ""
	}

	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
