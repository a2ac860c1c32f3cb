package controllers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"WaifuBracket/cache"
	"WaifuBracket/models"

	"github.com/gin-gonic/gin"
)

const (
	statsCacheKey = "waifubracket:global-stats"
	statsCacheTTL = 60 * time.Second
)

// GetGlobalBracket serves the synthetic bracket spanning the entire
// registry, the default search scope when no community bracket is named.
func (server *Server) GetGlobalBracket(c *gin.Context) {
	bracket, err := models.GlobalBracket(server.DB)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": bracket})
}

// GetGlobalStats serves the per-waifu usage and vote roll-up. The payload
// is cached briefly in redis; vote and round mutations invalidate it.
func (server *Server) GetGlobalStats(c *gin.Context) {
	if cached, err := cache.Get(c.Request.Context(), statsCacheKey); err == nil && cached != "" {
		c.Data(http.StatusOK, "application/json", []byte(cached))
		return
	}

	usage, err := models.GlobalUsage(server.DB)
	if err != nil {
		respondError(c, err)
		return
	}

	payload, err := json.Marshal(gin.H{"status": http.StatusOK, "response": usage})
	if err != nil {
		respondError(c, err)
		return
	}
	if err := cache.Set(c.Request.Context(), statsCacheKey, payload, statsCacheTTL); err != nil {
		log.Printf("warning: caching global stats: %v", err)
	}
	c.Data(http.StatusOK, "application/json", payload)
}

func (server *Server) invalidateStatsCache(c *gin.Context) {
	if err := cache.DeleteByPrefix(c.Request.Context(), statsCacheKey); err != nil {
		log.Printf("warning: invalidating stats cache: %v", err)
	}
}
