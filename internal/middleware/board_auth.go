package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/konbon-dev/konbon-api/internal/constants"
	"github.com/konbon-dev/konbon-api/internal/database"
	"github.com/konbon-dev/konbon-api/internal/models"
)

// RequireBoardMember checks that the user holds an explicit membership row on
// the board. Working members (visible only through task assignment) do not
// pass; they can see the board but not mutate its structure.
func RequireBoardMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		boardIDStr := c.Param("id")
		boardID, err := strconv.ParseUint(boardIDStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid board ID",
			})
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			c.Abort()
			return
		}

		var board models.Board
		if err := database.GetDB().First(&board, boardID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Board not found",
			})
			c.Abort()
			return
		}

		var member models.BoardMember
		err = database.GetDB().
			Where("board_id = ? AND user_id = ?", boardID, userID).
			First(&member).Error
		if err != nil {
			// Return 404 instead of 403 to avoid leaking board existence
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Board not found",
			})
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyBoard, board)
		c.Set(constants.ContextKeyMember, member)
		c.Next()
	}
}

// RequireBoardOwner checks that the user is an owner of the board. Must run
// after RequireBoardMember.
func RequireBoardOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		memberInterface, exists := c.Get(constants.ContextKeyMember)
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Board access required",
			})
			c.Abort()
			return
		}

		member, ok := memberInterface.(models.BoardMember)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Invalid board member data",
			})
			c.Abort()
			return
		}

		if member.Role != models.RoleOwner {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Only board owners can perform this action",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
