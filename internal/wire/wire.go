// Package wire provides dependency injection for the mkc application.
// It creates singleton services with lazy initialization.
package wire

import (
	"context"
	"database/sql"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/example/mkc/internal/adapters/auth"
	cliadapter "github.com/example/mkc/internal/adapters/cli"
	"github.com/example/mkc/internal/adapters/sqlite"
	"github.com/example/mkc/internal/app"
	"github.com/example/mkc/internal/clock"
	"github.com/example/mkc/internal/config"
	"github.com/example/mkc/internal/core/command"
	"github.com/example/mkc/internal/db"
	"github.com/example/mkc/internal/ports/primary"
)

var (
	envConfig      *config.EnvConfig
	policy         *config.Policy
	database       *sql.DB
	commandService primary.CommandService
	userService    primary.UserService
	policyService  primary.PolicyService
	entityService  primary.EntityService
	tokens         *auth.TokenIssuer
	once           sync.Once
)

// Env returns the environment configuration.
func Env() *config.EnvConfig {
	once.Do(initServices)
	return envConfig
}

// Policy returns the loaded policy file.
func Policy() *config.Policy {
	once.Do(initServices)
	return policy
}

// Database returns the shared database connection.
func Database() *sql.DB {
	once.Do(initServices)
	return database
}

// CommandService returns the singleton CommandService instance.
func CommandService() primary.CommandService {
	once.Do(initServices)
	return commandService
}

// UserService returns the singleton UserService instance.
func UserService() primary.UserService {
	once.Do(initServices)
	return userService
}

// PolicyService returns the singleton PolicyService instance.
func PolicyService() primary.PolicyService {
	once.Do(initServices)
	return policyService
}

// EntityService returns the singleton EntityService instance.
func EntityService() primary.EntityService {
	once.Do(initServices)
	return entityService
}

// VerifyToken resolves the username of a session token.
func VerifyToken(token string) (string, error) {
	once.Do(initServices)
	return tokens.Verify(token)
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	var err error
	envConfig, err = config.LoadEnv(".")
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	logger := NewLogger(os.Stderr, envConfig.LogLevel)

	policy, err = config.LoadPolicy(envConfig.PolicyFile)
	if err != nil {
		log.Fatalf("failed to load policy: %v", err)
	}
	registry, err := policy.Registry()
	if err != nil {
		log.Fatalf("invalid policy: %v", err)
	}
	permissions, err := policy.Table(registry)
	if err != nil {
		log.Fatalf("invalid policy: %v", err)
	}

	database, err = db.GetDB(envConfig.DBPath)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	secret, err := envConfig.ResolveTokenSecret()
	if err != nil {
		log.Fatalf("failed to resolve token secret: %v", err)
	}
	tokens, err = auth.NewTokenIssuer(secret, envConfig.TokenTTL, clock.Real())
	if err != nil {
		log.Fatalf("failed to create token issuer: %v", err)
	}

	// Create repository adapters (secondary ports) - sqlite adapters with injected DB
	commandRepo := sqlite.NewCommandSourceRepository(database)
	userRepo := sqlite.NewUserRepository(database)
	policyRepo := sqlite.NewPolicyRepository(database)
	store := sqlite.NewDocumentStore(database)

	resources := make([]string, 0, len(registry.Definitions()))
	for _, def := range registry.Definitions() {
		resources = append(resources, def.Resource)
	}
	if err := store.EnsureTables(context.Background(), resources...); err != nil {
		log.Fatalf("failed to create entity tables: %v", err)
	}

	security := auth.NewSecurityContext(userRepo)
	deserializer := command.NewDeserializer(registry)
	changes := app.NewChangeDetectionService(registry, store)

	// One command handler and write service per entity type
	handlers := make(map[string]primary.CommandSourceHandler, len(resources))
	for _, def := range registry.Definitions() {
		handlers[def.Resource] = app.NewCommandHandler(def.Resource, app.CommandHandlerDeps{
			Security:     security,
			Deserializer: deserializer,
			Changes:      changes,
			Writer:       app.NewDocumentWriteService(def, store, policyRepo, logger),
			Permissions:  permissions,
			Clock:        clock.Real(),
			Logger:       logger,
		})
	}

	// Create services (primary ports implementation)
	commandService = app.NewCommandService(app.CommandServiceDeps{
		Repo:        commandRepo,
		Security:    security,
		Permissions: permissions,
		Handlers:    handlers,
		Clock:       clock.Real(),
		Logger:      logger,
	})
	userService = app.NewUserService(userRepo, tokens)
	policyService = app.NewPolicyService(registry, permissions, policyRepo)
	entityService = app.NewEntityService(registry, store, store)
}

// NewLogger returns a text logger writing to w at the named level.
// Unknown levels fall back to warn.
func NewLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// CommandAdapter returns a new CommandAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func CommandAdapter() *cliadapter.CommandAdapter {
	return CommandAdapterWithOutput(os.Stdout)
}

// CommandAdapterWithOutput returns a new CommandAdapter writing to the given output.
func CommandAdapterWithOutput(out io.Writer) *cliadapter.CommandAdapter {
	once.Do(initServices)
	return cliadapter.NewCommandAdapter(commandService, out)
}

// UserAdapter returns a new UserAdapter writing to stdout.
func UserAdapter() *cliadapter.UserAdapter {
	once.Do(initServices)
	return cliadapter.NewUserAdapter(userService, os.Stdout)
}

// PolicyAdapter returns a new PolicyAdapter writing to stdout.
func PolicyAdapter() *cliadapter.PolicyAdapter {
	once.Do(initServices)
	return cliadapter.NewPolicyAdapter(policyService, os.Stdout)
}

// EntityAdapter returns a new EntityAdapter writing to stdout.
func EntityAdapter() *cliadapter.EntityAdapter {
	once.Do(initServices)
	return cliadapter.NewEntityAdapter(entityService, os.Stdout)
}
