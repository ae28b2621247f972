package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/models"
)

// listPage fetches one page of a collection whose items live under key
func listPage[T any](ctx context.Context, c *Client, path, key string, q models.ListQuery) (models.Page[T], error) {
	q = q.Normalized()

	data, err := c.send(ctx, "GET", path, q.Values(), nil, "")
	if err != nil {
		return models.Page[T]{}, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.Page[T]{}, &Error{Kind: KindServer, Message: "malformed list response", Err: err}
	}

	var meta pageEnvelope
	if err := json.Unmarshal(data, &meta); err != nil {
		return models.Page[T]{}, &Error{Kind: KindServer, Message: "malformed pagination metadata", Err: err}
	}

	page := models.Page[T]{
		Page:    meta.CurrentPage,
		PerPage: meta.PerPage,
		Pages:   meta.Pages,
		Total:   meta.Total,
	}
	if page.Page == 0 {
		page.Page = q.Page
	}
	if page.PerPage == 0 {
		page.PerPage = q.PerPage
	}

	if items, ok := raw[key]; ok && string(items) != "null" {
		if err := json.Unmarshal(items, &page.Items); err != nil {
			return models.Page[T]{}, &Error{Kind: KindServer, Message: fmt.Sprintf("malformed %s list", key), Err: err}
		}
	}
	if page.Items == nil {
		page.Items = []T{}
	}

	return page, nil
}

func normalizeAnalyses(items []models.Analysis) {
	for i := range items {
		items[i].Normalize()
	}
}
