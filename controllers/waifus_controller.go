package controllers

import (
	"net/http"
	"strconv"

	"WaifuBracket/models"

	"github.com/gin-gonic/gin"
)

// CreateWaifu registers a new waifu in the global registry. Moderation
// approval of the add request happens before this endpoint is reached.
func (server *Server) CreateWaifu(c *gin.Context) {
	var waifu models.Waifu
	if err := c.ShouldBindJSON(&waifu); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  "Cannot unmarshal body",
		})
		return
	}

	waifu.Prepare()
	if errorMessages := waifu.Validate(); len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  errorMessages,
		})
		return
	}

	created, err := waifu.SaveWaifu(server.DB)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": http.StatusCreated, "response": created})
}

func (server *Server) GetWaifus(c *gin.Context) {
	waifus, err := (&models.Waifu{}).FindAllWaifus(server.DB)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": waifus})
}

func (server *Server) GetWaifu(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": http.StatusBadRequest, "error": "Invalid waifu ID"})
		return
	}

	waifu := models.Waifu{}
	found, err := waifu.FindWaifuByID(server.DB, uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	aliases, err := waifu.FindAliases(server.DB, found.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": found,
		"aliases":  aliases,
	})
}

// UpdateWaifu applies any subset of the registry edits: rename,
// description, image and source work. Renames re-validate uniqueness.
func (server *Server) UpdateWaifu(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": http.StatusBadRequest, "error": "Invalid waifu ID"})
		return
	}

	var input struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		ImageURL    *string `json:"image_url"`
		SourceWork  *string `json:"source_work"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  "Cannot unmarshal body",
		})
		return
	}

	waifu := models.Waifu{}
	if input.Name != nil {
		if _, err := waifu.Rename(server.DB, uint(id), *input.Name); err != nil {
			respondError(c, err)
			return
		}
	}
	if input.Description != nil {
		if _, err := waifu.UpdateDescription(server.DB, uint(id), *input.Description); err != nil {
			respondError(c, err)
			return
		}
	}
	if input.ImageURL != nil {
		if _, err := waifu.UpdateImage(server.DB, uint(id), *input.ImageURL); err != nil {
			respondError(c, err)
			return
		}
	}
	if input.SourceWork != nil {
		if _, err := waifu.UpdateSourceWork(server.DB, uint(id), *input.SourceWork); err != nil {
			respondError(c, err)
			return
		}
	}

	updated, err := waifu.FindWaifuByID(server.DB, uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": updated})
}

func (server *Server) AddWaifuAlias(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": http.StatusBadRequest, "error": "Invalid waifu ID"})
		return
	}

	var input struct {
		Alias string `json:"alias" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  err.Error(),
		})
		return
	}

	alias, err := (&models.Waifu{}).AddAlias(server.DB, uint(id), input.Alias)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": http.StatusCreated, "response": alias})
}

func (server *Server) AddSourceWorkAlias(c *gin.Context) {
	var input struct {
		SourceWork string `json:"source_work" binding:"required"`
		Alias      string `json:"alias" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  err.Error(),
		})
		return
	}

	alias, err := models.AddSourceWorkAlias(server.DB, input.SourceWork, input.Alias)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": http.StatusCreated, "response": alias})
}

// ResolveWaifu turns a free-text query into exactly one waifu. A numeric
// query is treated as an exact-id lookup, which is how users break
// ambiguity after seeing a disambiguation list.
func (server *Server) ResolveWaifu(c *gin.Context) {
	query := c.Query("q")

	if id, err := strconv.ParseUint(query, 10, 32); err == nil {
		waifu, err := (&models.Waifu{}).FindWaifuByID(server.DB, uint(id))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": waifu})
		return
	}

	waifu, err := models.ResolveWaifu(server.DB, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": waifu})
}

func (server *Server) ResolveSourceWork(c *gin.Context) {
	work, err := models.ResolveSourceWork(server.DB, c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": work})
}
