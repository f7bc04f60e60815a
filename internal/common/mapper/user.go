package mapper

import (
	"github.com/AlibekovAA/social-stream/backend/internal/common/dto"
	graphdomain "github.com/AlibekovAA/social-stream/backend/internal/graph/domain"
	userdomain "github.com/AlibekovAA/social-stream/backend/internal/user/domain"
)

func UserSummaryToDTO(summary userdomain.Summary) dto.UserSummary {
	return dto.UserSummary{
		ID:       string(summary.ID),
		Username: summary.Username,
		IsAdmin:  summary.IsAdmin,
		JoinedAt: summary.JoinedAt,
	}
}

func UserSummariesToDTO(summaries []userdomain.Summary) []dto.UserSummary {
	result := make([]dto.UserSummary, len(summaries))
	for i, s := range summaries {
		result[i] = UserSummaryToDTO(s)
	}
	return result
}

func RelationToDTO(rel graphdomain.Relation) dto.Relation {
	return dto.Relation{
		Following:  rel.Following,
		FollowedBy: rel.FollowedBy,
	}
}
