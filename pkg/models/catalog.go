// Package models holds the fixed set of selectable Claude models.
package models

import (
	"fmt"
	"maps"
)

// Descriptor names a selectable model.
type Descriptor struct {
	ID          string
	DisplayName string
}

// DefaultModelID is used whenever a caller names no model or an unknown one.
const DefaultModelID = "claude-3-7-sonnet-20250219"

// Builtin returns the models offered when no catalog is configured.
func Builtin() []Descriptor {
	return []Descriptor{
		{ID: "claude-3-opus-20240229", DisplayName: "Claude 3 Opus"},
		{ID: "claude-3-sonnet-20240229", DisplayName: "Claude 3 Sonnet"},
		{ID: "claude-3-haiku-20240307", DisplayName: "Claude 3 Haiku"},
		{ID: "claude-3-5-sonnet-20240620", DisplayName: "Claude 3.5 Sonnet"},
		{ID: DefaultModelID, DisplayName: "Claude 3.7 Sonnet"},
	}
}

// Catalog maps model ids to display names. It is immutable after construction.
type Catalog struct {
	names        map[string]string
	defaultModel string
}

// NewCatalog builds a catalog. The default model must be one of the descriptors.
func NewCatalog(descriptors []Descriptor, defaultModel string) (*Catalog, error) {
	names := make(map[string]string, len(descriptors))
	for _, d := range descriptors {
		if d.ID == "" {
			return nil, fmt.Errorf("model descriptor with empty id")
		}
		names[d.ID] = d.DisplayName
	}
	if _, ok := names[defaultModel]; !ok {
		return nil, fmt.Errorf("default model %q is not in the catalog", defaultModel)
	}

	return &Catalog{names: names, defaultModel: defaultModel}, nil
}

// NewBuiltinCatalog returns the catalog of Builtin models with DefaultModelID.
func NewBuiltinCatalog() *Catalog {
	c, err := NewCatalog(Builtin(), DefaultModelID)
	if err != nil {
		panic("builtin model catalog is invalid: " + err.Error())
	}
	return c
}

// Resolve returns requested if it is a known model. Otherwise it returns the
// default model and fellBack is true, unless requested was empty: an empty
// request selects the default without being a fallback.
func (c *Catalog) Resolve(requested string) (id string, fellBack bool) {
	if requested == "" {
		return c.defaultModel, false
	}
	if _, ok := c.names[requested]; ok {
		return requested, false
	}
	return c.defaultModel, true
}

// Default returns the default model id.
func (c *Catalog) Default() string {
	return c.defaultModel
}

// List returns a copy of the id to display name mapping.
func (c *Catalog) List() map[string]string {
	return maps.Clone(c.names)
}
