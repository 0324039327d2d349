package config

import (
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	ListenAddr     string        `yaml:"listen_addr"`
	LogLevel       string        `yaml:"log_level"`
	LogJSON        bool          `yaml:"log_json"`
	SecureCookies  bool          `yaml:"secure_cookies"`
	JwtTTL         time.Duration `yaml:"jwt_ttl"`
	RelationConfig string        `yaml:"relation_config"` // path to the relation config document
	Storage        Storage       `yaml:"storage"`
	Attachments    Attachments   `yaml:"attachments"`
}

type Storage struct {
	PublicDir     string `yaml:"public_dir"`
	ProtectedDir  string `yaml:"protected_dir"`
	PublicBaseURL string `yaml:"public_base_url"` // prefix the public dir is served under, e.g. /storage
}

type Attachments struct {
	MaxFileSizeBytes  int64    `yaml:"max_file_size_bytes"`
	AllowedImageMimes []string `yaml:"allowed_image_mimes"`
	AllowedFileMimes  []string `yaml:"allowed_file_mimes"`
	MaxImagePixels    int      `yaml:"max_image_pixels"` // per side, 0 disables the check
	VariantMaxPx      int      `yaml:"variant_max_px"`   // cap on requested variant dimensions
}

type Private struct {
	JwtKey string `yaml:"jwt_key"`
	Pg     Pg     `yaml:"pg"`
}

type Pg struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname"`
}

func (s *Config) JwtKey() string {
	return s.Private.JwtKey
}

func (s *Config) JwtTTL() time.Duration {
	return s.Public.JwtTTL
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file")
	}

	err = yaml.Unmarshal(configFile, output)
	if err != nil {
		panic("can't unmarshal config file")
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	return &Config{public, private}
}
