package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"qgsape/internal/config"
	"qgsape/internal/logger"

	_ "qgsape/docs"
)

var (
	envFile string

	cfg       *config.Configuration
	log       *logrus.Logger
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:           "qgsape",
	Short:         "LE QG DE LA SAPE storefront backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(envFile)
		if err != nil {
			return err
		}
		log, logCloser, err = logger.New(cfg.Log)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment (optional)")
	rootCmd.AddCommand(serveCmd, seedCmd)
}

// @title LE QG DE LA SAPE API
// @version 1.0
// @description Storefront, checkout and back-office API of LE QG DE LA SAPE.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Firebase ID token, as "Bearer <token>"
func main() {
	if err := rootCmd.Execute(); err != nil {
		if log != nil {
			log.WithError(err).Error("Command failed")
		} else {
			fmt.Fprintln(os.Stderr, "qgsape:", err)
		}
		os.Exit(1)
	}
}
