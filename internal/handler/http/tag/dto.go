// Package tag provides the HTTP handlers behind /tags: list,
// get-or-create, rename, and delete (§6.1).
package tag

import "feedkeep/internal/domain/entity"

type tagDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ArticleCount int    `json:"article_count"`
}

func toDTO(t *entity.UserTag) tagDTO {
	return tagDTO{ID: t.ID, Name: t.Name, ArticleCount: t.ArticleCount}
}
