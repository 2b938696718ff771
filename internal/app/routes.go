package app

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keywarden/keywarden/internal/auth"
	"github.com/keywarden/keywarden/internal/config"
	"github.com/keywarden/keywarden/internal/domain"
	"github.com/keywarden/keywarden/internal/mailer"
	"github.com/keywarden/keywarden/internal/stores"
	"github.com/keywarden/keywarden/internal/token"
)

// RegisterRoutes builds the store stack for the configured backend, wires
// the auth service, and registers all routes. This is the single place
// where concrete store implementations are chosen.
func (a *App) RegisterRoutes(clock domain.Clock, mail mailer.Mailer) {
	e := a.Echo

	var (
		users       domain.UserStore
		challenges  domain.ChallengeStore
		revocations domain.RevocationList
	)
	switch a.Config.StoreBackend {
	case config.BackendDurable:
		users = stores.NewMariaDBUserStore(a.DB, clock)
		challenges = stores.NewRedisChallengeStore(a.Redis, a.Config.Auth.ChallengeTTL, clock)
		revocations = stores.NewRedisRevocationList(a.Redis)
	default:
		users = stores.NewMemoryUserStore(clock)
		challenges = stores.NewMemoryChallengeStore(a.Config.Auth.ChallengeTTL, clock)
		revocations = stores.NewMemoryRevocationList(clock)
	}

	codec := token.NewCodec(a.Config.Auth.TokenSecret, a.Config.Auth.TokenTTL, clock)
	service := auth.NewAuthService(users, challenges, revocations, codec, mail, clock, a.Config.Auth.RevocationGrace)
	handler := auth.NewHandler(service, a.Config.Auth.TokenTTL)

	auth.RegisterRoutes(e, handler, service)

	// Health check endpoint for container orchestration. With the durable
	// backend it also confirms both stores are reachable.
	e.GET("/healthz", a.healthz)
}

// healthz reports service liveness and, for the durable backend, store
// connectivity.
func (a *App) healthz(c echo.Context) error {
	if a.Config.StoreBackend == config.BackendDurable {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		if err := a.DB.PingContext(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "degraded", "database": "unreachable",
			})
		}
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "degraded", "redis": "unreachable",
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
