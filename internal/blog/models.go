// Package blog is the posts and users backend of blogd: gorm models,
// repositories with keyset pagination and their gin handlers.
package blog

import (
	"time"

	"gorm.io/gorm"

	"github.com/Alp4ka/keypager"
)

type Post struct {
	Slug      string    `gorm:"primaryKey;size:191" json:"slug"`
	Title     string    `gorm:"not null" json:"title"`
	Content   string    `gorm:"type:text" json:"content"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

// PostFilter matches posts whose title or content contains the given text.
type PostFilter struct {
	Title   string `form:"title" json:"title,omitempty"`
	Content string `form:"content" json:"content,omitempty"`
}

func PostFilterFunc(f PostFilter) keypager.Predicate {
	return keypager.Disjunction{
		{keypager.Contains("title", f.Title)},
		{keypager.Contains("content", f.Content)},
	}
}

type CreatePostRequest struct {
	Slug    string `json:"slug" binding:"required,max=191"`
	Title   string `json:"title" binding:"required"`
	Content string `json:"content"`
}

type UpdatePostRequest struct {
	Title   *string `json:"title" binding:"omitempty,min=1"`
	Content *string `json:"content"`
}

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:191;uniqueIndex;not null" json:"username"`
	Name      string    `json:"name"`
	Bio       string    `gorm:"type:text" json:"bio"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

// UserFilter matches users whose username, name or bio contains the given
// text.
type UserFilter struct {
	Username string `form:"username" json:"username,omitempty"`
	Name     string `form:"name" json:"name,omitempty"`
	Bio      string `form:"bio" json:"bio,omitempty"`
}

func UserFilterFunc(f UserFilter) keypager.Predicate {
	return keypager.Disjunction{
		{keypager.Contains("username", f.Username)},
		{keypager.Contains("name", f.Name)},
		{keypager.Contains("bio", f.Bio)},
	}
}

type CreateUserRequest struct {
	Username string `json:"username" binding:"required,max=191"`
	Name     string `json:"name"`
	Bio      string `json:"bio"`
}

type UpdateUserRequest struct {
	Name *string `json:"name"`
	Bio  *string `json:"bio"`
}

// Migrate creates or updates the tables of all models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Post{}, &User{})
}
