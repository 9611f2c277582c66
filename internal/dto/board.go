package dto

import (
	"time"

	"github.com/konbon-dev/konbon-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image,omitempty"`
}

// BoardDTO represents a board in API responses
type BoardDTO struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// BoardMemberDTO represents a roster entry: user fields flattened with the
// membership role, matching the members listing contract.
type BoardMemberDTO struct {
	ID    uint64           `json:"id"`
	Name  string           `json:"name"`
	Image string           `json:"image,omitempty"`
	Email string           `json:"email"`
	Role  models.BoardRole `json:"role"`
}

// ColumnDTO represents a column in API responses
type ColumnDTO struct {
	ID      uint64 `json:"id"`
	BoardID uint64 `json:"board_id"`
	Name    string `json:"name"`
	Order   int    `json:"order"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Image: user.Image,
	}
}

// ToBoardDTO converts a Board model to BoardDTO
func ToBoardDTO(board models.Board) BoardDTO {
	return BoardDTO{
		ID:        board.ID,
		Name:      board.Name,
		CreatedAt: board.CreatedAt,
	}
}

// ToBoardDTOs converts a slice of boards
func ToBoardDTOs(boards []models.Board) []BoardDTO {
	dtos := make([]BoardDTO, len(boards))
	for i, b := range boards {
		dtos[i] = ToBoardDTO(b)
	}
	return dtos
}

// ToBoardMemberDTO converts a membership (with preloaded user) to DTO
func ToBoardMemberDTO(member models.BoardMember) BoardMemberDTO {
	return BoardMemberDTO{
		ID:    member.UserID,
		Name:  member.User.Name,
		Image: member.User.Image,
		Email: member.User.Email,
		Role:  member.Role,
	}
}

// ToBoardMemberDTOs converts a slice of memberships
func ToBoardMemberDTOs(members []models.BoardMember) []BoardMemberDTO {
	dtos := make([]BoardMemberDTO, len(members))
	for i, m := range members {
		dtos[i] = ToBoardMemberDTO(m)
	}
	return dtos
}

// ToColumnDTO converts a Column model to ColumnDTO
func ToColumnDTO(column models.Column) ColumnDTO {
	return ColumnDTO{
		ID:      column.ID,
		BoardID: column.BoardID,
		Name:    column.Name,
		Order:   column.Position,
	}
}

// ToColumnDTOs converts a slice of columns
func ToColumnDTOs(columns []models.Column) []ColumnDTO {
	dtos := make([]ColumnDTO, len(columns))
	for i, c := range columns {
		dtos[i] = ToColumnDTO(c)
	}
	return dtos
}
