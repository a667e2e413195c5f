// Package me provides the HTTP handlers behind /me and
// /me/preferences: the caller's own profile and personalization
// settings (§6.1, §6.4).
package me

import (
	"time"

	"feedkeep/internal/domain/entity"
)

type userDTO struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserDTO(u *entity.User) userDTO {
	return userDTO{ID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin, CreatedAt: u.CreatedAt}
}

type preferencesDTO struct {
	Theme                 string `json:"theme"`
	ShowArticleThumbnails bool   `json:"show_article_thumbnails"`
	AppLayout             string `json:"app_layout"`
	ArticleLayout         string `json:"article_layout"`
	FontSpacing           string `json:"font_spacing"`
	FontSize              string `json:"font_size"`
	FeedSortOrder         string `json:"feed_sort_order"`
	ShowFeedFavicons      bool   `json:"show_feed_favicons"`
	DateFormat            string `json:"date_format"`
	TimeFormat            string `json:"time_format"`
	Language              string `json:"language"`
	AutoMarkAsRead        string `json:"auto_mark_as_read"`
	EstimatedReadingTime  bool   `json:"estimated_reading_time"`
	ShowSummaries         bool   `json:"show_summaries"`
}

func toPreferencesDTO(p *entity.UserPreferences) preferencesDTO {
	return preferencesDTO{
		Theme: p.Theme, ShowArticleThumbnails: p.ShowArticleThumbnails, AppLayout: p.AppLayout,
		ArticleLayout: p.ArticleLayout, FontSpacing: p.FontSpacing, FontSize: p.FontSize,
		FeedSortOrder: p.FeedSortOrder, ShowFeedFavicons: p.ShowFeedFavicons, DateFormat: p.DateFormat,
		TimeFormat: p.TimeFormat, Language: p.Language, AutoMarkAsRead: p.AutoMarkAsRead,
		EstimatedReadingTime: p.EstimatedReadingTime, ShowSummaries: p.ShowSummaries,
	}
}
