package controllers

import (
	"net/http"
	"strconv"

	"WaifuBracket/engine"
	"WaifuBracket/metrics"
	"WaifuBracket/models"
	httpctx "WaifuBracket/utils/httpctx"

	"github.com/gin-gonic/gin"
)

// loadBracket parses the :id param and fetches the bracket.
func (server *Server) loadBracket(c *gin.Context) (*models.Bracket, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": http.StatusBadRequest, "error": "Invalid bracket ID"})
		return nil, false
	}
	bracket := &models.Bracket{}
	if _, err := bracket.FindBracketByID(server.DB, uint(id)); err != nil {
		respondError(c, err)
		return nil, false
	}
	return bracket, true
}

// requireOwnerOrAdmin gates the bracket lifecycle operations.
func requireOwnerOrAdmin(c *gin.Context, bracket *models.Bracket) (uint, bool) {
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": http.StatusUnauthorized, "error": "Unauthorized"})
		return 0, false
	}
	if bracket.OwnerID != userID && !httpctx.IsAdminRequest(c) {
		c.JSON(http.StatusForbidden, gin.H{"status": http.StatusForbidden, "error": "Only the bracket owner may do that"})
		return 0, false
	}
	return userID, true
}

// resolveEntryWaifu turns a request's waifu reference (exact id or free
// text run through the alias resolver) into a registry id.
func (server *Server) resolveEntryWaifu(c *gin.Context, waifuID uint, query string) (uint, bool) {
	if waifuID != 0 {
		return waifuID, true
	}
	waifu, err := models.ResolveWaifu(server.DB, query)
	if err != nil {
		respondError(c, err)
		return 0, false
	}
	return waifu.ID, true
}

//
// ===============================
// CREATE & LOOKUP
// ===============================
//

func (server *Server) CreateBracket(c *gin.Context) {
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": http.StatusUnauthorized, "error": "Unauthorized"})
		return
	}

	var input struct {
		Name                 string `json:"name" binding:"required"`
		AdvanceMode          string `json:"advance_mode"`
		RoundDurationSeconds int    `json:"round_duration_seconds"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  err.Error(),
		})
		return
	}

	bracket := models.Bracket{
		Name:                 input.Name,
		OwnerID:              userID,
		CommunityID:          c.Param("community_id"),
		AdvanceMode:          input.AdvanceMode,
		RoundDurationSeconds: input.RoundDurationSeconds,
	}
	bracket.Prepare()
	if errorMessages := bracket.Validate(); len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  errorMessages,
		})
		return
	}

	created, err := bracket.SaveBracket(server.DB)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": http.StatusCreated, "response": created})
}

// GetCommunityBrackets lists a community's brackets, or resolves one by
// partial name when ?name= is given.
func (server *Server) GetCommunityBrackets(c *gin.Context) {
	communityID := c.Param("community_id")

	if name := c.Query("name"); name != "" {
		bracket := models.Bracket{}
		found, err := bracket.FindBracketByName(server.DB, communityID, name)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": found})
		return
	}

	brackets, err := (&models.Bracket{}).FindCommunityBrackets(server.DB, communityID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": brackets})
}

// GetVotingBracket returns the community's single votable bracket, if any.
func (server *Server) GetVotingBracket(c *gin.Context) {
	bracket, err := models.VotingBracket(server.DB, c.Param("community_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if bracket == nil {
		c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": nil})
		return
	}
	if _, err := bracket.FindBracketByID(server.DB, bracket.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": bracket})
}

func (server *Server) GetBracket(c *gin.Context) {
	bracket, ok := server.loadBracket(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": bracket})
}

//
// ===============================
// ENTRY MANAGEMENT
// ===============================
//

func (server *Server) AddBracketEntry(c *gin.Context) {
	bracket, ok := server.loadBracket(c)
	if !ok {
		return
	}
	if _, ok := requireOwnerOrAdmin(c, bracket); !ok {
		return
	}

	var input struct {
		WaifuID uint   `json:"waifu_id"`
		Query   string `json:"query"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  err.Error(),
		})
		return
	}

	waifuID, ok := server.resolveEntryWaifu(c, input.WaifuID, input.Query)
	if !ok {
		return
	}
	entry, err := bracket.AddEntry(server.DB, waifuID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": http.StatusCreated, "response": entry})
}

func (server *Server) RemoveBracketEntry(c *gin.Context) {
	bracket, ok := server.loadBracket(c)
	if !ok {
		return
	}
	if _, ok := requireOwnerOrAdmin(c, bracket); !ok {
		return
	}

	waifuID, err := strconv.ParseUint(c.Param("waifu_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": http.StatusBadRequest, "error": "Invalid waifu ID"})
		return
	}
	if err := bracket.RemoveEntry(server.DB, uint(waifuID)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": "entry removed"})
}

//
// ===============================
// LIFECYCLE
// ===============================
//

func (server *Server) StartVote(c *gin.Context) {
	bracket, ok := server.loadBracket(c)
	if !ok {
		return
	}
	if _, ok := requireOwnerOrAdmin(c, bracket); !ok {
		return
	}

	if err := bracket.StartVote(server.DB, engine.New()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": bracket})
}

func (server *Server) LockBracket(c *gin.Context) {
	bracket, ok := server.loadBracket(c)
	if !ok {
		return
	}
	if _, ok := requireOwnerOrAdmin(c, bracket); !ok {
		return
	}
	if err := bracket.Lock(server.DB); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": bracket})
}

func (server *Server) UnlockBracket(c *gin.Context) {
	bracket, ok := server.loadBracket(c)
	if !ok {
		return
	}
	if _, ok := requireOwnerOrAdmin(c, bracket); !ok {
		return
	}
	if err := bracket.Unlock(server.DB); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": bracket})
}

func (server *Server) CloseBracket(c *gin.Context) {
	bracket, ok := server.loadBracket(c)
	if !ok {
		return
	}
	if _, ok := requireOwnerOrAdmin(c, bracket); !ok {
		return
	}
	if err := bracket.Close(server.DB); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": bracket})
}

// FinishRound collapses the current round's divisions. The response is
// either the final winner or the next round's bracket; divisions that came
// down to a coin flip are listed so the caller can announce them.
func (server *Server) FinishRound(c *gin.Context) {
	bracket, ok := server.loadBracket(c)
	if !ok {
		return
	}
	if _, ok := requireOwnerOrAdmin(c, bracket); !ok {
		return
	}

	result, err := bracket.FinishRound(server.DB, engine.New())
	if err != nil {
		respondError(c, err)
		return
	}
	metrics.RoundsFinished.Inc()
	for range result.TieBreaks {
		metrics.TiesBroken.Inc()
	}
	server.invalidateStatsCache(c)

	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": result})
}
