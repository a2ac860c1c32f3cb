package controllers

import (
	"net/http"

	"WaifuBracket/auth"
	"WaifuBracket/models"
	"WaifuBracket/security"

	"github.com/gin-gonic/gin"
)

func (server *Server) Login(c *gin.Context) {
	var user models.User
	if err := c.ShouldBindJSON(&user); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  "Cannot unmarshal body",
		})
		return
	}

	user.Prepare()
	if errorMessages := user.Validate("login"); len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  errorMessages,
		})
		return
	}

	userData, err := server.SignIn(user.Email, user.Password)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  "Incorrect email or password",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": userData,
	})
}

func (server *Server) SignIn(email, password string) (map[string]interface{}, error) {
	user := models.User{}
	if _, err := user.FindUserByEmail(server.DB, email); err != nil {
		return nil, err
	}
	if err := security.VerifyPassword(user.Password, password); err != nil {
		return nil, err
	}
	token, err := auth.CreateToken(user.ID)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"token":    token,
		"id":       user.ID,
		"email":    user.Email,
		"username": user.Username,
		"is_admin": user.IsAdmin,
	}, nil
}
