package mapper

import (
	"github.com/AlibekovAA/social-stream/backend/internal/common/dto"
	postdomain "github.com/AlibekovAA/social-stream/backend/internal/post/domain"
)

func PostToDTO(post postdomain.Post) dto.Post {
	return dto.Post{
		ID:        string(post.ID),
		UserID:    string(post.UserID),
		Username:  post.Username,
		Content:   post.Content,
		CreatedAt: post.CreatedAt,
	}
}

func PostsToDTO(posts []postdomain.Post) []dto.Post {
	result := make([]dto.Post, len(posts))
	for i, p := range posts {
		result[i] = PostToDTO(p)
	}
	return result
}
