package config

import (
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Env  string `mapstructure:"env"`
		Name string `mapstructure:"name"`
	} `mapstructure:"app"`
	API struct {
		BaseURL string        `mapstructure:"base_url"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"api"`
	Session struct {
		Store     string `mapstructure:"store"`
		File      string `mapstructure:"file"`
		KeyPrefix string `mapstructure:"key_prefix"`
	} `mapstructure:"session"`
	Redis struct {
		Addr     string        `mapstructure:"addr"`
		Password string        `mapstructure:"password"`
		DB       int           `mapstructure:"db"`
		CacheTTL time.Duration `mapstructure:"cache_ttl"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		Topic   string   `mapstructure:"topic"`
	} `mapstructure:"kafka"`
	Cloudinary struct {
		CloudName string `mapstructure:"cloud_name"`
		ApiKey    string `mapstructure:"api_key"`
		ApiSecret string `mapstructure:"api_secret"`
		Folder    string `mapstructure:"folder"`
	} `mapstructure:"cloudinary"`
	Assets struct {
		DefaultProfilePicture string `mapstructure:"default_profile_picture"`
		DefaultCoverPhoto     string `mapstructure:"default_cover_photo"`
		MaxBytes              int64  `mapstructure:"max_bytes"`
	} `mapstructure:"assets"`
	Tracing struct {
		OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	} `mapstructure:"tracing"`
	DevServer struct {
		Port          string        `mapstructure:"port"`
		JWTSecret     string        `mapstructure:"jwt_secret"`
		TokenLifespan time.Duration `mapstructure:"token_lifespan"`
	} `mapstructure:"devserver"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.name", "internmatch")
	v.SetDefault("api.base_url", "http://localhost:1217/api/v1")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("session.store", "file")
	v.SetDefault("session.file", filepath.Join(".internmatch", "session.json"))
	v.SetDefault("session.key_prefix", "internmatch:")
	v.SetDefault("redis.cache_ttl", 10*time.Minute)
	v.SetDefault("kafka.topic", "profile.events")
	v.SetDefault("cloudinary.folder", "internmatch/previews")
	v.SetDefault("assets.default_profile_picture", "https://cdn-icons-png.flaticon.com/512/847/847969.png")
	v.SetDefault("assets.default_cover_photo", "https://via.placeholder.com/1200x300.png?text=Cover+Photo")
	v.SetDefault("assets.max_bytes", 10<<20)
	v.SetDefault("devserver.port", "1217")
	v.SetDefault("devserver.jwt_secret", "dev-secret-change")
	v.SetDefault("devserver.token_lifespan", time.Hour)
}

// LoadConfig reads .env, then config.yaml from the given paths (or the
// working directory), then the environment. Later sources win.
func LoadConfig(paths ...string) (cfg Config, err error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	envFiles := make([]string, 0, len(paths))
	for _, p := range paths {
		envFiles = append(envFiles, filepath.Join(p, ".env"))
	}
	if err = godotenv.Load(envFiles...); err != nil {
		log.Println("warning: .env file not found, use default.")
	}

	v := viper.New()
	setDefaults(v)

	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err = v.ReadInConfig(); err != nil {
		log.Printf("note: config.yaml not found, read .env only. Error: %v", err)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("app.env", "APP_ENV")
	v.BindEnv("api.base_url", "API_BASE_URL")
	v.BindEnv("api.timeout", "API_TIMEOUT")
	v.BindEnv("session.store", "SESSION_STORE")
	v.BindEnv("session.file", "SESSION_FILE")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("kafka.topic", "KAFKA_TOPIC")
	v.BindEnv("tracing.otlp_endpoint", "OTLP_ENDPOINT")
	v.BindEnv("devserver.port", "DEVSERVER_PORT")
	v.BindEnv("devserver.jwt_secret", "JWT_SECRET")
	v.BindEnv("devserver.token_lifespan", "TOKEN_LIFESPAN")

	v.BindEnv("cloudinary.cloud_name", "CLOUDINARY_CLOUD_NAME")
	v.BindEnv("cloudinary.api_key", "CLOUDINARY_API_KEY")
	v.BindEnv("cloudinary.api_secret", "CLOUDINARY_API_SECRET")

	err = v.Unmarshal(&cfg)
	return
}
