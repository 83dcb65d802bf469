package format

import (
	"net/http"
	"time"

	"github.com/gorilla/feeds"
)

// TreeItem is one node of the listing a feed is built from.
type TreeItem struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Description string    `json:"description,omitempty"`
	Size        int64     `json:"size,omitempty"`
	ModTime     time.Time `json:"mtime"`
	Dir         bool      `json:"dir,omitempty"`
}

type Tree []TreeItem

func writeFeed(w http.ResponseWriter, r *http.Request, locals Locals, tree Tree) error {
	title, _ := locals["title"].(string)
	if title == "" {
		title = "explorer"
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	base := scheme + "://" + r.Host

	feed := &feeds.Feed{
		Title:       title,
		Link:        &feeds.Link{Href: base + r.URL.Path},
		Description: title,
		Created:     time.Now(),
	}
	for _, item := range tree {
		feed.Items = append(feed.Items, &feeds.Item{
			Title:       item.Name,
			Link:        &feeds.Link{Href: base + item.Path},
			Description: item.Description,
			Created:     item.ModTime,
		})
	}

	rss, err := feed.ToRss()
	if err != nil {
		return err
	}
	_, err = w.Write([]byte(rss))
	return err
}
