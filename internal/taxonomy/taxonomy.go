// Package taxonomy loads the recordable-event catalog. The raw definition
// document is two flat arrays: categories (one per event) and options keyed
// by event_id/group_id. Options may arrive out of order across groups; they
// are folded into ordered option groups per event, preserving first-seen
// group order and per-group option order.
package taxonomy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/drivestudy/annotator/internal/models"
)

type rawCategory struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

type rawOption struct {
	Code        string `json:"code"`
	EventID     int    `json:"event_id"`
	GroupID     int    `json:"group_id"`
	GroupType   string `json:"group_type"`
	Description string `json:"description"`
}

type rawDefinition struct {
	Category []rawCategory `json:"category"`
	Option   []rawOption   `json:"option"`
}

// LoadFile reads and parses a raw definition document from disk.
func LoadFile(path string) ([]models.EventDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definition file: %w", err)
	}
	return Parse(data)
}

// Fetch retrieves and parses a raw definition document from an HTTP source.
func Fetch(ctx context.Context, url string) ([]models.EventDefinition, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch definition: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("definition source status: %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read definition body: %w", err)
	}
	return Parse(data)
}

// Parse unmarshals a raw definition document and groups its options.
func Parse(data []byte) ([]models.EventDefinition, error) {
	var rd rawDefinition
	if err := json.Unmarshal(data, &rd); err != nil {
		return nil, fmt.Errorf("unmarshal definition: %w", err)
	}
	return build(rd), nil
}

func build(rd rawDefinition) []models.EventDefinition {
	defs := make([]models.EventDefinition, 0, len(rd.Category))
	for _, c := range rd.Category {
		var groups []models.OptionGroup
		for _, o := range rd.Option {
			if o.EventID == c.ID {
				groups = insertOption(groups, o)
			}
		}
		defs = append(defs, models.EventDefinition{
			ID:          c.ID,
			Description: c.Description,
			Options:     groups,
		})
	}
	return defs
}

func insertOption(groups []models.OptionGroup, o rawOption) []models.OptionGroup {
	choice := models.Choice{Code: o.Code, Description: o.Description}
	for i := range groups {
		if groups[i].GroupID == o.GroupID {
			groups[i].Choices = append(groups[i].Choices, choice)
			return groups
		}
	}
	return append(groups, models.OptionGroup{
		GroupID:   o.GroupID,
		GroupType: models.GroupType(o.GroupType),
		Choices:   []models.Choice{choice},
	})
}
