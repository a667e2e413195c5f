// Package folder provides the HTTP handlers behind /folders: the tree
// listing and folder CRUD (create, rename, move, pin, delete) (§6.1).
package folder

import "feedkeep/internal/domain/entity"

type folderDTO struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"`
	Depth    int     `json:"depth"`
	Pinned   bool    `json:"pinned"`
}

func toDTO(f *entity.Folder) folderDTO {
	return folderDTO{ID: f.ID, Name: f.Name, ParentID: f.ParentID, Depth: f.Depth, Pinned: f.Pinned}
}
