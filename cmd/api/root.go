package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"canteen/internal/archive"
	"canteen/internal/auth"
	"canteen/internal/catalog"
	"canteen/internal/config"
	"canteen/internal/db"
	"canteen/internal/menu"
	"canteen/internal/order"
	"canteen/internal/router"
	"canteen/internal/storage"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "canteen",
	Short: "Menu customization and order scheduling API for canteen concessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an access token for local testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper(), cfgFile)
		if err != nil {
			return err
		}
		tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
		if err != nil {
			return err
		}

		user, _ := cmd.Flags().GetString("user")
		email, _ := cmd.Flags().GetString("email")
		role, _ := cmd.Flags().GetString("role")

		tok, err := tokens.Generate(auth.Claims{UserID: user, Email: email, Role: role})
		if err != nil {
			return err
		}
		fmt.Println(tok)
		return nil
	},
}

func init() {
	cobra.OnInitialize(config.LoadDotEnv)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	rootCmd.Flags().String("port", "8000", "HTTP port")
	rootCmd.Flags().Int("schedule-horizon-days", 7, "How many days ahead pickups may be scheduled")
	rootCmd.Flags().Duration("order-closing-buffer", 30*time.Minute, "Refuse order-now this close to closing time")

	viper.BindPFlag("port", rootCmd.Flags().Lookup("port"))
	viper.BindPFlag("schedule_horizon_days", rootCmd.Flags().Lookup("schedule-horizon-days"))
	viper.BindPFlag("order_closing_buffer", rootCmd.Flags().Lookup("order-closing-buffer"))

	tokenCmd.Flags().String("user", "dev-user", "user id claim")
	tokenCmd.Flags().String("email", "", "email claim")
	tokenCmd.Flags().String("role", auth.RoleCustomer, "CUSTOMER or VENDOR")
	rootCmd.AddCommand(tokenCmd)
}

func serve() error {
	cfg, err := config.Load(viper.GetViper(), cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}

	// ───────────────────────── DB ─────────────────────────
	pgDB := db.ConnectPostgres(cfg.DatabaseURL)
	defer pgDB.Close()

	// ───────────────────────── STORAGE ─────────────────────────
	var receiptStore order.Archiver
	if cfg.R2.Enabled() {
		r2Client, err := storage.NewR2Client(context.Background(), cfg.R2)
		if err != nil {
			return fmt.Errorf("R2 init failed: %w", err)
		}
		receiptStore = r2Client
	} else {
		log.Println("[STORAGE] R2 not configured, receipts will not be archived")
	}

	// ───────────────────────── SERVICES ─────────────────────────
	catalogRepo := catalog.NewPostgresRepository(pgDB)
	menuService := menu.NewService(catalogRepo, catalogRepo, menu.Options{
		Location:      loc,
		HorizonDays:   cfg.HorizonDays,
		ClosingBuffer: cfg.ClosingBuffer,
	})
	orderRepo := order.NewPostgresRepository(pgDB)
	orderService := order.NewService(orderRepo, menuService, receiptStore)

	// ───────────────────────── WORKERS ─────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if receiptStore != nil {
		archive.NewWorker(orderRepo, receiptStore, cfg.ArchiveInterval).Start(ctx)
	}

	r := router.NewRouter(router.Deps{
		Tokens:       tokens,
		Menu:         menuService,
		Orders:       orderService,
		AllowOrigins: cfg.CORSOrigins,
	})

	// ───────────────────────── START ─────────────────────────
	log.Printf("[API] running at http://localhost:%s (timezone %s)", cfg.Port, loc)
	return r.Run(":" + cfg.Port)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
