package middlewares

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/wmorato/ZapSign/pkg/repositories"
	"github.com/wmorato/ZapSign/pkg/types"
)

const apiKeyCacheTTL = 10 * time.Minute

type APIKeyConfig struct {
	RedisClient *redis.Client
	Companies   *repositories.CompanyRepository
}

// HashAPIKey is the stored form of an API key. Raw keys never touch the
// database.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// APIKeyAuth guards machine-to-machine routes with the X-API-Key header.
// Resolved company ids are cached in redis so the hot path skips the
// database.
func APIKeyAuth(cfg *APIKeyConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		rawKey := c.GetHeader("X-API-Key")
		if rawKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.Error("missing API key"))
			return
		}

		hash := HashAPIKey(rawKey)
		cacheKey := fmt.Sprintf("apikey:%s", hash)

		var companyID uuid.UUID
		if val, err := cfg.RedisClient.Get(ctx, cacheKey).Result(); err == nil {
			companyID, _ = uuid.Parse(val)
		}
		if companyID == uuid.Nil {
			id, err := cfg.Companies.GetCompanyIDByAPIKeyHash(hash)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, types.Error("invalid API key"))
				return
			}
			companyID = id
			cfg.RedisClient.Set(ctx, cacheKey, companyID.String(), apiKeyCacheTTL)
		}

		c.Set(ContextCompanyID, companyID)
		c.Next()
	}
}
