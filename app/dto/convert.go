package dto

import (
	"time"

	"github.com/projectcamp/ms-go-projects/app/entity"
)

func FromProject(p *entity.Project) ProjectResponse {
	return ProjectResponse{
		ID:          p.ID.Hex(),
		Name:        p.Name,
		Description: p.Description,
		CreatedBy:   p.CreatedBy.Hex(),
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
}

func FromProjectListItems(items []entity.ProjectListItem) []ProjectListItemResponse {
	out := make([]ProjectListItemResponse, 0, len(items))
	for i := range items {
		out = append(out, ProjectListItemResponse{
			Project:     FromProject(&items[i].Project),
			Role:        items[i].Role.String(),
			MemberCount: items[i].MemberCount,
		})
	}
	return out
}

func FromMembers(members []entity.MemberWithUser) []MemberResponse {
	out := make([]MemberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, MemberResponse{
			UserID:    m.UserID.Hex(),
			Username:  m.Username,
			Email:     m.Email,
			FullName:  m.FullName,
			AvatarURL: m.AvatarURL,
			Role:      m.Role.String(),
			CreatedAt: m.CreatedAt.Format(time.RFC3339),
			UpdatedAt: m.UpdatedAt.Format(time.RFC3339),
		})
	}
	return out
}
