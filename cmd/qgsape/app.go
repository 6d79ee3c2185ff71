package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"qgsape/internal/ai"
	"qgsape/internal/auth"
	"qgsape/internal/cart"
	"qgsape/internal/config"
	"qgsape/internal/domain"
	"qgsape/internal/geo"
	httpapi "qgsape/internal/http"
	"qgsape/internal/media"
	"qgsape/internal/notify"
	"qgsape/internal/platform"
	"qgsape/internal/repository"
	"qgsape/internal/service"
)

// backend is the configured store plus the Firebase app, when one is needed.
type backend struct {
	repos   *repository.Repositories
	fb      *platform.Firebase
	closers []func() error
}

func openBackend(ctx context.Context, cfg *config.Configuration, log logrus.FieldLogger) (*backend, error) {
	b := &backend{}
	if cfg.NeedsFirebase() {
		fb, err := platform.NewFirebase(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsPath, cfg.FirebaseStorageBucket)
		if err != nil {
			return nil, err
		}
		b.fb = fb
	}

	switch cfg.StorageDriver {
	case config.StorageFirestore:
		client, err := b.fb.Firestore(ctx)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, client.Close)
		b.repos = repository.NewFirestoreRepositories(client)
		log.WithField("project", cfg.FirebaseProjectID).Info("Using Firestore storage")
	default:
		b.repos = repository.NewMemoryRepositories(repository.NewMemoryStore())
		log.Warn("Using in-memory storage, data is lost on restart")
	}
	return b, nil
}

func (b *backend) Close() {
	for _, c := range b.closers {
		_ = c()
	}
}

// notifications picks a provider per channel: Brevo for customers and
// contacts, Resend for the admin, SMTP when no API key is set, and the log
// otherwise.
func notifications(cfg *config.Configuration, log logrus.FieldLogger) (service.Notifications, error) {
	fallback := notify.LogMailer{Log: log.WithField("module", "mail")}
	n := service.Notifications{
		Contacts:   fallback,
		Customer:   fallback,
		Admin:      fallback,
		AdminEmail: cfg.AdminEmail,
		SiteName:   cfg.BrevoSenderName,
		BaseURL:    cfg.PublicBaseURL,
	}
	sender := notify.Recipient{Email: cfg.BrevoSenderEmail, Name: cfg.BrevoSenderName}
	if cfg.SMTPHost != "" {
		smtp := notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, sender)
		n.Customer, n.Admin = smtp, smtp
	}
	if cfg.BrevoAPIKey != "" {
		brevo := notify.NewBrevoClient(cfg.BrevoAPIKey, cfg.BrevoAPIURL, sender, cfg.BrevoListID)
		n.Contacts, n.Customer = brevo, brevo
	}
	if cfg.ResendAPIKey != "" {
		resend, err := notify.NewResendClient(cfg.ResendAPIKey, cfg.ResendAPIURL, cfg.ResendFrom)
		if err != nil {
			return n, err
		}
		n.Admin = resend
	}
	if cfg.AdminEmail == "" {
		log.Warn("ADMIN_EMAIL not set, admin order notifications disabled")
	}
	return n, nil
}

func verifier(ctx context.Context, cfg *config.Configuration, b *backend, log logrus.FieldLogger) (auth.TokenVerifier, error) {
	if cfg.AuthMode == config.AuthDev {
		log.Warn("AUTH_MODE=dev: bearer tokens are trusted as email addresses")
		return auth.DevVerifier{}, nil
	}
	client, err := b.fb.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return auth.NewFirebaseVerifier(client), nil
}

// uploader returns the upload target and the local directory to serve, if any.
func uploader(ctx context.Context, cfg *config.Configuration, b *backend) (media.Uploader, string, error) {
	if cfg.FirebaseStorageBucket == "" {
		return &media.LocalUploader{Dir: cfg.UploadDir, BaseURL: cfg.PublicBaseURL}, cfg.UploadDir, nil
	}
	client, err := b.fb.Storage(ctx)
	if err != nil {
		return nil, "", err
	}
	bucket, err := client.DefaultBucket()
	if err != nil {
		return nil, "", fmt.Errorf("open bucket %s: %w", cfg.FirebaseStorageBucket, err)
	}
	return media.NewBucketUploader(bucket, cfg.FirebaseStorageBucket), "", nil
}

// buildServer wires services and handlers. The dispatcher must be drained on
// shutdown.
func buildServer(ctx context.Context, cfg *config.Configuration, b *backend, log logrus.FieldLogger) (*httpapi.Server, *notify.Dispatcher, error) {
	repos := b.repos
	flows, err := ai.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, log)
	if err != nil {
		return nil, nil, err
	}
	tokens, err := verifier(ctx, cfg, b, log)
	if err != nil {
		return nil, nil, err
	}
	up, uploadDir, err := uploader(ctx, cfg, b)
	if err != nil {
		return nil, nil, err
	}

	n, err := notifications(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	dispatcher := notify.NewDispatcher(log, cfg.SideEffectWorkers, cfg.SideEffectTimeout)
	carts := service.NewCartService(cart.NewExpiringStore(cfg.CartCapacity, cfg.CartTTL), repos.Products)

	svc := httpapi.Services{
		Products:   service.NewProductService(repos.Products, repos.Tx, log),
		Categories: service.NewCategoryService(repos.Categories, repos.Tx, log),
		Orders:     service.NewOrderService(repos.Products, repos.Orders, repos.Tx, log),
		Carts:      carts,
		Checkout:   service.NewCheckoutService(repos, carts, dispatcher, n, log),
		Coupons:    service.NewCouponService(repos.Coupons),
		Reviews:    service.NewReviewService(repos.Products, repos.Reviews, repos.Tx, log),
		Community:  service.NewCommunityService(repos.Posts, flows, log),
		Content:    service.NewContentService(repos),
		Settings: service.NewSettingsService(repos.Settings, domain.SiteInfo{
			Name:            cfg.BrevoSenderName,
			Email:           cfg.BrevoSenderEmail,
			FacebookPixelID: cfg.FacebookPixelID,
		}),
		Users:      service.NewUserService(repos.Users, cfg.AdminEmail, log),
		Assistant:  service.NewAssistantService(flows, repos.Products, log),
		Newsletter: service.NewNewsletterService(n.Contacts),
		Geocoder:   geo.NewNominatim(cfg.NominatimURL, cfg.NominatimUserAgent),
		Uploader:   up,
	}
	srv := httpapi.NewServer(httpapi.Config{Verifier: tokens, UploadDir: uploadDir, Log: log}, svc)
	return srv, dispatcher, nil
}
