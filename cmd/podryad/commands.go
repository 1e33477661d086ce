package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nurpe/podryad/internal/amountwords"
	"github.com/nurpe/podryad/internal/auth"
	"github.com/nurpe/podryad/internal/config"
	"github.com/nurpe/podryad/internal/contracttype"
	"github.com/nurpe/podryad/internal/costing"
	"github.com/nurpe/podryad/internal/db"
	"github.com/nurpe/podryad/internal/excel"
	httphandler "github.com/nurpe/podryad/internal/http"
	"github.com/nurpe/podryad/internal/http/middleware"
	"github.com/nurpe/podryad/internal/logger"
	"github.com/nurpe/podryad/internal/numbering"
	"github.com/nurpe/podryad/internal/pdf"
	"github.com/nurpe/podryad/internal/repository"
	"github.com/nurpe/podryad/internal/service"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			log := logger.New(cfg.Environment, cfg.LogLevel)

			database, err := db.New(cfg, log)
			if err != nil {
				return fmt.Errorf("failed to connect database: %w", err)
			}

			templateRepo := repository.NewTemplateRepository(database)
			types, err := templateRepo.ListContractTypes(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load contract types: %w", err)
			}
			registry, err := contracttype.NewRegistry(types)
			if err != nil {
				return err
			}

			pdfGenerator, err := pdf.NewGenerator(cfg.Documents.PDFFontPath, cfg.Documents.PDFBoldFontPath)
			if err != nil {
				return fmt.Errorf("failed to init pdf generator: %w", err)
			}

			numbers := numbering.NewAuthority(repository.NewSequenceRepository(database), cfg.Numbering.MaxAttempts, log)
			templateService := service.NewTemplateService(templateRepo, registry, log)
			documentService := service.NewDocumentService(service.DocumentServiceDeps{
				Templates: templateRepo,
				Documents: repository.NewDocumentRepository(database),
				Registry:  registry,
				Numbers:   numbers,
				Words:     amountwords.Rubles{KopecksInWords: cfg.Documents.KopecksInWords},
				Parser:    costing.NumberParser{Lenient: cfg.Documents.LenientNumbers},
				PDF:       pdfGenerator,
				Excel:     excel.NewGenerator(),
			}, log)

			tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
			handler := httphandler.NewHandler(templateService, documentService, log)
			router := httphandler.NewRouter(handler, middleware.Auth(tokenParser), cfg.HTTP.CORSAllowedOrigins, cfg.Environment, log)

			addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
			log.Info().Str("addr", addr).Int("contract_types", len(types)).Msg("starting podryad")

			if err := router.Run(addr); err != nil {
				log.Error().Err(err).Msg("server stopped")
				return err
			}
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and seed contract types",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			log := logger.New(cfg.Environment, cfg.LogLevel)

			database, err := db.Open(cfg)
			if err != nil {
				return err
			}
			if err := db.Migrate(database); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info().Msg("migrations applied")
			return nil
		},
	}
}

func wordsCmd() *cobra.Command {
	var kopecksInWords bool
	cmd := &cobra.Command{
		Use:   "words <amount>",
		Short: "Print an amount in Russian words",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printWords(cmd, args[0], kopecksInWords)
		},
	}
	cmd.Flags().BoolVar(&kopecksInWords, "kopecks-in-words", false, "spell kopecks as words")
	return cmd
}

func printWords(cmd *cobra.Command, raw string, kopecksInWords bool) error {
	amount, err := costing.NumberParser{}.Price(raw)
	if err != nil {
		return err
	}
	words, err := amountwords.Rubles{KopecksInWords: kopecksInWords}.Format(amount)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), words)
	return nil
}
