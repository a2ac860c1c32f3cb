package controllers

import (
	"WaifuBracket/middlewares"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initializeRoutes() {
	auth := middlewares.TokenAuthMiddleware(s.DB)

	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.Router.Group("/api/v1")
	{
		// Users routes
		v1.POST("/login", s.Login)
		v1.POST("/users", s.CreateUser)
		v1.GET("/users/:id", s.GetUser)

		// Registry routes
		v1.POST("/waifus", auth, s.CreateWaifu)
		v1.GET("/waifus", s.GetWaifus)
		v1.GET("/waifus/resolve", s.ResolveWaifu)
		v1.GET("/waifus/:id", s.GetWaifu)
		v1.PUT("/waifus/:id", auth, s.UpdateWaifu)
		v1.POST("/waifus/:id/aliases", auth, s.AddWaifuAlias)
		v1.GET("/source-works/resolve", s.ResolveSourceWork)
		v1.POST("/source-works/aliases", auth, s.AddSourceWorkAlias)

		// Global view routes
		v1.GET("/global/bracket", s.GetGlobalBracket)
		v1.GET("/global/stats", s.GetGlobalStats)

		// Bracket routes
		v1.POST("/communities/:community_id/brackets", auth, s.CreateBracket)
		v1.GET("/communities/:community_id/brackets", s.GetCommunityBrackets)
		v1.GET("/communities/:community_id/brackets/voting", s.GetVotingBracket)
		v1.GET("/brackets/:id", s.GetBracket)
		v1.POST("/brackets/:id/entries", auth, s.AddBracketEntry)
		v1.DELETE("/brackets/:id/entries/:waifu_id", auth, s.RemoveBracketEntry)
		v1.POST("/brackets/:id/start-vote", auth, s.StartVote)
		v1.POST("/brackets/:id/lock", auth, s.LockBracket)
		v1.POST("/brackets/:id/unlock", auth, s.UnlockBracket)
		v1.POST("/brackets/:id/close", auth, s.CloseBracket)
		v1.POST("/brackets/:id/finish-round", auth, s.FinishRound)

		// Vote routes (community scoped: outside votes are rejected)
		v1.POST("/communities/:community_id/brackets/:id/votes", auth, s.CastVote)
		v1.DELETE("/communities/:community_id/brackets/:id/votes", auth, s.RetractVote)
		v1.GET("/brackets/:id/votes/mine", auth, s.GetMyVotes)
	}
}
