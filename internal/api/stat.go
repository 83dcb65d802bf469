package api

import (
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/sunr3d/explorer/internal/format"
	"github.com/sunr3d/explorer/internal/middleware"
	"github.com/sunr3d/explorer/models"
)

// GET /stat
func (h *ArchiveAPI) GetStat(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		http.Error(w, "Требуется аутентификация", http.StatusUnauthorized)
		return
	}

	events, err := h.stat.List(r.Context(), user.Username)
	if err != nil {
		h.logger.Error("ошибка получения статистики", zap.String("username", user.Username), zap.Error(err))
		http.Error(w, "Внутренняя ошибка сервера при получении статистики", http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []models.StatEvent{}
	}

	h.format.RenderBody(w, r, "stat", format.Locals{
		"title":  "Activity",
		"events": events,
		"tree":   statTree(events),
	})
}

func statTree(events []models.StatEvent) format.Tree {
	tree := make(format.Tree, 0, len(events))
	for _, ev := range events {
		item := format.TreeItem{
			Name:        ev.Name,
			Path:        "/?path=" + url.QueryEscape(ev.Path),
			Description: ev.Message,
			ModTime:     ev.Timestamp,
		}
		if ev.IsError() {
			item.Name = "error"
			item.Description = ev.Error
		}
		if item.Name == "" {
			item.Name = "archive"
		}
		tree = append(tree, item)
	}
	return tree
}
