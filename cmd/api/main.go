package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/melkamu26/CodeCrafters-ExpenseSplitter/internal/auth"
	"github.com/melkamu26/CodeCrafters-ExpenseSplitter/internal/config"
	"github.com/melkamu26/CodeCrafters-ExpenseSplitter/internal/database"
	"github.com/melkamu26/CodeCrafters-ExpenseSplitter/internal/group"
	groupStore "github.com/melkamu26/CodeCrafters-ExpenseSplitter/internal/group/store"
	splitterHttp "github.com/melkamu26/CodeCrafters-ExpenseSplitter/internal/http"
	groupHandler "github.com/melkamu26/CodeCrafters-ExpenseSplitter/internal/http/group"
	ledgerHandler "github.com/melkamu26/CodeCrafters-ExpenseSplitter/internal/http/ledger"
	userHandler "github.com/melkamu26/CodeCrafters-ExpenseSplitter/internal/http/user"
	"github.com/melkamu26/CodeCrafters-ExpenseSplitter/internal/ledger"
	ledgerStore "github.com/melkamu26/CodeCrafters-ExpenseSplitter/internal/ledger/store"
	"github.com/melkamu26/CodeCrafters-ExpenseSplitter/internal/user"
	userStore "github.com/melkamu26/CodeCrafters-ExpenseSplitter/internal/user/store"
	"github.com/melkamu26/CodeCrafters-ExpenseSplitter/pkg/logging"
)

func main() {
	// Missing .env is fine in deployed environments.
	_ = godotenv.Load()

	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	var (
		groups        = groupStore.New(db)
		userService   = user.NewService(userStore.New(db), tokens)
		groupService  = group.NewService(groups)
		ledgerService = ledger.NewService(ledgerStore.New(db), groups, ledger.EqualAllocator{})
	)

	var (
		userH   = userHandler.NewHandler(userService)
		groupH  = groupHandler.NewHandler(groupService)
		ledgerH = ledgerHandler.NewHandler(ledgerService)
	)

	router := splitterHttp.New(tokens, userH, groupH, ledgerH)

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "addr", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	if err := server.ListenAndServe(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
