package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"qgsape/internal/logger"
)

// Storage drivers
const (
	StorageMemory    = "memory"
	StorageFirestore = "firestore"
)

// Auth modes
const (
	AuthFirebase = "firebase"
	AuthDev      = "dev"
)

// Configuration holds everything the server needs at startup.
type Configuration struct {
	Address       string `env:"ADDRESS" envDefault:":9091"`
	GinMode       string `env:"GIN_MODE" envDefault:"release"`
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"memory"`
	AuthMode      string `env:"AUTH_MODE" envDefault:"firebase"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:9091"`

	// Firebase
	FirebaseProjectID       string `env:"FIREBASE_PROJECT_ID"`
	FirebaseCredentialsPath string `env:"FIREBASE_CREDENTIALS_PATH"`
	FirebaseStorageBucket   string `env:"FIREBASE_STORAGE_BUCKET"`
	UploadDir               string `env:"UPLOAD_DIR" envDefault:"./uploads"`

	// Brevo: transactional email + contacts
	BrevoAPIKey      string `env:"BREVO_API_KEY"`
	BrevoSenderEmail string `env:"BREVO_SENDER_EMAIL"`
	BrevoSenderName  string `env:"BREVO_SENDER_NAME" envDefault:"LE QG DE LA SAPE"`
	BrevoListID      int64  `env:"BREVO_LIST_ID"`
	BrevoAPIURL      string `env:"BREVO_API_URL"`

	// Resend: admin notifications
	ResendAPIKey string `env:"RESEND_API_KEY"`
	ResendFrom   string `env:"RESEND_FROM"`
	ResendAPIURL string `env:"RESEND_API_URL"`
	AdminEmail   string `env:"ADMIN_EMAIL"`

	// SMTP fallback when no API key is configured
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`

	// Gemini
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`

	NominatimURL       string `env:"NOMINATIM_URL" envDefault:"https://nominatim.openstreetmap.org"`
	NominatimUserAgent string `env:"NOMINATIM_USER_AGENT" envDefault:"qgsape/1.0"`

	FacebookPixelID string `env:"FACEBOOK_PIXEL_ID"`

	CartTTL      time.Duration `env:"CART_TTL" envDefault:"72h"`
	CartCapacity int           `env:"CART_CAPACITY" envDefault:"10000"`

	SideEffectWorkers int           `env:"SIDE_EFFECT_WORKERS" envDefault:"4"`
	SideEffectTimeout time.Duration `env:"SIDE_EFFECT_TIMEOUT" envDefault:"20s"`

	Log logger.Config
}

// Load reads the optional env file(s) and parses the environment.
// A missing env file is not an error: production injects variables directly.
func Load(files ...string) (*Configuration, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", f, err)
		}
	}

	cfg := Configuration{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks combinations env tags cannot express.
func (c *Configuration) Validate() error {
	switch c.StorageDriver {
	case StorageMemory:
	case StorageFirestore:
		if c.FirebaseProjectID == "" {
			return errors.New("FIREBASE_PROJECT_ID is required for the firestore storage driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	switch c.AuthMode {
	case AuthFirebase:
		if c.FirebaseProjectID == "" {
			return errors.New("FIREBASE_PROJECT_ID is required for firebase auth")
		}
	case AuthDev:
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode)
	}
	if c.SideEffectWorkers <= 0 {
		return errors.New("SIDE_EFFECT_WORKERS must be positive")
	}
	return nil
}

// NeedsFirebase reports whether the Firebase Admin app must be initialised.
func (c *Configuration) NeedsFirebase() bool {
	return c.StorageDriver == StorageFirestore || c.AuthMode == AuthFirebase || c.FirebaseStorageBucket != ""
}
