package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"qgsape/internal/domain"
	"qgsape/internal/repository"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load categories, products, methods and coupons from a YAML file",
	Long: `Loads a catalog file into the configured store. Entries with an id are
written under that id, so running the same file twice updates instead of
duplicating. Everything is written in a single transaction.

Example:
  qgsape seed --file catalog.yaml`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "catalog YAML file")
	_ = seedCmd.MarkFlagRequired("file")
}

// catalogFile is the layout of a seed file.
type catalogFile struct {
	Categories      []domain.Category       `yaml:"categories"`
	Products        []domain.Product        `yaml:"products"`
	ShippingMethods []domain.ShippingMethod `yaml:"shippingMethods"`
	PaymentMethods  []domain.PaymentMethod  `yaml:"paymentMethods"`
	Coupons         []domain.Coupon         `yaml:"coupons"`
}

type seedReport struct {
	Categories, Products, ShippingMethods, PaymentMethods, Coupons int
}

func runSeed(cmd *cobra.Command, _ []string) error {
	f, err := os.Open(seedFile)
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	b, err := openBackend(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	report, err := seedCatalog(cmd.Context(), b.repos, f, time.Now().UTC())
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"file":             seedFile,
		"categories":       report.Categories,
		"products":         report.Products,
		"shipping_methods": report.ShippingMethods,
		"payment_methods":  report.PaymentMethods,
		"coupons":          report.Coupons,
	}).Info("Catalog seeded")
	return nil
}

func seedCatalog(ctx context.Context, repos *repository.Repositories, r io.Reader, now time.Time) (seedReport, error) {
	var file catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return seedReport{}, fmt.Errorf("parse seed file: %w", err)
	}
	if err := validateCatalog(&file); err != nil {
		return seedReport{}, err
	}

	for i := range file.Products {
		p := &file.Products[i]
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		p.UpdatedAt = now
	}

	err := repos.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := putAll[domain.Category](ctx, repos.Categories, file.Categories); err != nil {
			return fmt.Errorf("categories: %w", err)
		}
		if err := putAll[domain.Product](ctx, repos.Products, file.Products); err != nil {
			return fmt.Errorf("products: %w", err)
		}
		if err := putAll[domain.ShippingMethod](ctx, repos.ShippingMethods, file.ShippingMethods); err != nil {
			return fmt.Errorf("shipping methods: %w", err)
		}
		if err := putAll[domain.PaymentMethod](ctx, repos.PaymentMethods, file.PaymentMethods); err != nil {
			return fmt.Errorf("payment methods: %w", err)
		}
		if err := putAll[domain.Coupon](ctx, repos.Coupons, file.Coupons); err != nil {
			return fmt.Errorf("coupons: %w", err)
		}
		return nil
	})
	if err != nil {
		return seedReport{}, err
	}
	return seedReport{
		Categories:      len(file.Categories),
		Products:        len(file.Products),
		ShippingMethods: len(file.ShippingMethods),
		PaymentMethods:  len(file.PaymentMethods),
		Coupons:         len(file.Coupons),
	}, nil
}

func putAll[T any](ctx context.Context, c repository.Collection[T], items []T) error {
	for i := range items {
		if err := c.Put(ctx, &items[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateCatalog(file *catalogFile) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	check := func(kind string, i int, item any) error {
		if err := v.Struct(item); err != nil {
			return fmt.Errorf("%s #%d: %w", kind, i+1, err)
		}
		return nil
	}
	for i := range file.Categories {
		if err := check("category", i, &file.Categories[i]); err != nil {
			return err
		}
	}
	for i := range file.Products {
		if err := check("product", i, &file.Products[i]); err != nil {
			return err
		}
	}
	for i := range file.ShippingMethods {
		if err := check("shipping method", i, &file.ShippingMethods[i]); err != nil {
			return err
		}
	}
	for i := range file.PaymentMethods {
		if err := check("payment method", i, &file.PaymentMethods[i]); err != nil {
			return err
		}
	}
	for i := range file.Coupons {
		if err := check("coupon", i, &file.Coupons[i]); err != nil {
			return err
		}
	}
	return nil
}
