package persona

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Registry is the process-wide, read-only persona lookup.
type Registry struct {
	byID  map[string]Persona
	order []string
}

// NewRegistry builds a registry from the supplied personas. Later duplicates
// of an id win, matching a config file overriding the seed roster.
func NewRegistry(items []Persona) *Registry {
	byID := make(map[string]Persona, len(items))
	for _, p := range items {
		byID[p.ID] = p
	}
	order := make([]string, 0, len(byID))
	for id := range byID {
		order = append(order, id)
	}
	sort.Strings(order)
	return &Registry{byID: byID, order: order}
}

// Get looks up a persona by identifier.
func (r *Registry) Get(id string) (Persona, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// List returns all personas ordered by identifier.
func (r *Registry) List() []Persona {
	out := make([]Persona, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// LoadFile reads a persona roster from a JSON file.
func LoadFile(path string) ([]Persona, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open personas %s: %w", path, err)
	}
	defer file.Close()

	var items []Persona
	if err := json.NewDecoder(file).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode personas: %w", err)
	}
	for _, p := range items {
		if p.ID == "" || p.Instruction == "" {
			return nil, fmt.Errorf("persona %q missing id or instruction", p.Name)
		}
	}
	return items, nil
}
