package controllers

import (
	"errors"
	"net/http"

	"WaifuBracket/engine"
	"WaifuBracket/models"

	"github.com/gin-gonic/gin"
)

// respondError translates the typed failures of the tournament core into
// HTTP responses. Ambiguity and duplicate conditions keep their payloads so
// the client can present a disambiguation list or the existing choice;
// anything unrecognized is a storage fault and surfaces as a 500.
func respondError(c *gin.Context, err error) {
	var (
		duplicateName  *models.DuplicateNameError
		duplicateAlias *models.DuplicateAliasError
		noMatch        *models.NoMatchError
		ambiguous      *models.AmbiguousMatchError
		ambiguousWork  *models.AmbiguousSourceWorkError
		unknownName    *models.UnknownBracketNameError
		tooMany        *models.TooManyBracketMatchesError
		notOpen        *models.NotOpenError
		notPow2        *models.NotPowerOfTwoError
		otherVoting    *models.AnotherBracketVotingError
		alreadyIn      *models.AlreadyInBracketError
		alreadyVoted   *models.AlreadyVotedError
		oddCount       *engine.OddEntryCountError
	)

	switch {
	case errors.Is(err, models.ErrUnknownWaifu),
		errors.Is(err, models.ErrUnknownBracket),
		errors.Is(err, models.ErrEntryNotFound),
		errors.Is(err, models.ErrNoVoteToRetract):
		c.JSON(http.StatusNotFound, gin.H{"status": http.StatusNotFound, "error": err.Error()})

	case errors.As(err, &noMatch):
		c.JSON(http.StatusNotFound, gin.H{
			"status": http.StatusNotFound,
			"error":  noMatch.Error(),
			"query":  noMatch.Query,
		})

	case errors.As(err, &unknownName):
		c.JSON(http.StatusNotFound, gin.H{
			"status": http.StatusNotFound,
			"error":  unknownName.Error(),
			"query":  unknownName.Query,
		})

	case errors.As(err, &ambiguous):
		c.JSON(http.StatusConflict, gin.H{
			"status":     http.StatusConflict,
			"error":      ambiguous.Error(),
			"query":      ambiguous.Query,
			"candidates": ambiguous.Candidates,
		})

	case errors.As(err, &ambiguousWork):
		c.JSON(http.StatusConflict, gin.H{
			"status":     http.StatusConflict,
			"error":      ambiguousWork.Error(),
			"query":      ambiguousWork.Query,
			"candidates": ambiguousWork.Candidates,
		})

	case errors.As(err, &tooMany):
		c.JSON(http.StatusConflict, gin.H{
			"status":     http.StatusConflict,
			"error":      tooMany.Error(),
			"query":      tooMany.Query,
			"candidates": tooMany.Candidates,
		})

	case errors.As(err, &duplicateName):
		c.JSON(http.StatusConflict, gin.H{
			"status": http.StatusConflict,
			"error":  duplicateName.Error(),
			"name":   duplicateName.Name,
		})

	case errors.As(err, &duplicateAlias):
		c.JSON(http.StatusConflict, gin.H{
			"status": http.StatusConflict,
			"error":  duplicateAlias.Error(),
			"alias":  duplicateAlias.Alias,
		})

	case errors.As(err, &alreadyIn):
		c.JSON(http.StatusConflict, gin.H{
			"status":   http.StatusConflict,
			"error":    alreadyIn.Error(),
			"waifu_id": alreadyIn.WaifuID,
		})

	case errors.As(err, &alreadyVoted):
		c.JSON(http.StatusConflict, gin.H{
			"status":   http.StatusConflict,
			"error":    alreadyVoted.Error(),
			"division": alreadyVoted.Division,
			"chosen":   alreadyVoted.ChosenWaifuID,
		})

	case errors.As(err, &notPow2):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status":      http.StatusUnprocessableEntity,
			"error":       notPow2.Error(),
			"entry_count": notPow2.Count,
			"next_lower":  notPow2.Lower,
			"next_higher": notPow2.Higher,
		})

	case errors.As(err, &otherVoting):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status":            http.StatusUnprocessableEntity,
			"error":             otherVoting.Error(),
			"voting_bracket_id": otherVoting.OtherBracketID,
		})

	case errors.As(err, &notOpen),
		errors.As(err, &oddCount),
		errors.Is(err, models.ErrNotVotable),
		errors.Is(err, models.ErrNotLocked),
		errors.Is(err, models.ErrAlreadyLocked),
		errors.Is(err, models.ErrBracketClosed),
		errors.Is(err, models.ErrGlobalReadOnly):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  err.Error(),
		})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": http.StatusInternalServerError,
			"error":  err.Error(),
		})
	}
}
