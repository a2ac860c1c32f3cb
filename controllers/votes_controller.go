package controllers

import (
	"net/http"

	"WaifuBracket/metrics"
	"WaifuBracket/models"
	httpctx "WaifuBracket/utils/httpctx"

	"github.com/gin-gonic/gin"
)

// communityBracket loads the :id bracket and rejects the request when it
// does not belong to the :community_id scope; votes from outside the
// tournament's community are never counted.
func (server *Server) communityBracket(c *gin.Context) (*models.Bracket, bool) {
	bracket, ok := server.loadBracket(c)
	if !ok {
		return nil, false
	}
	if bracket.CommunityID != c.Param("community_id") {
		c.JSON(http.StatusForbidden, gin.H{
			"status": http.StatusForbidden,
			"error":  "bracket belongs to a different community",
		})
		return nil, false
	}
	return bracket, true
}

type voteInput struct {
	WaifuID uint   `json:"waifu_id"`
	Query   string `json:"query"`
}

func (server *Server) CastVote(c *gin.Context) {
	bracket, ok := server.communityBracket(c)
	if !ok {
		return
	}
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": http.StatusUnauthorized, "error": "Unauthorized"})
		return
	}

	var input voteInput
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

	vote, err := bracket.CastVote(server.DB, userID, waifuID)
	if err != nil {
		respondError(c, err)
		return
	}
	metrics.VotesCast.Inc()
	server.invalidateStatsCache(c)

	c.JSON(http.StatusCreated, gin.H{"status": http.StatusCreated, "response": vote})
}

func (server *Server) RetractVote(c *gin.Context) {
	bracket, ok := server.communityBracket(c)
	if !ok {
		return
	}
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": http.StatusUnauthorized, "error": "Unauthorized"})
		return
	}

	var input voteInput
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

	if err := bracket.RetractVote(server.DB, userID, waifuID); err != nil {
		respondError(c, err)
		return
	}
	metrics.VotesRetracted.Inc()
	server.invalidateStatsCache(c)

	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": "vote retracted"})
}

// GetMyVotes reports the caller's live votes in a bracket, one per division.
func (server *Server) GetMyVotes(c *gin.Context) {
	bracket, ok := server.loadBracket(c)
	if !ok {
		return
	}
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": http.StatusUnauthorized, "error": "Unauthorized"})
		return
	}

	votes, err := bracket.FindUserVotes(server.DB, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": votes})
}
