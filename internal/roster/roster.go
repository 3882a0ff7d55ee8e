// Package roster loads candidate lists from YAML files and command-line arguments.
package roster

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/wheel/internal/game/wheel"
)

var (
	// ErrEmpty is returned when a roster has no candidates.
	ErrEmpty = errors.New("roster: no candidates")
	// ErrDuplicateID is returned when two entries share an id.
	ErrDuplicateID = errors.New("roster: duplicate candidate id")
)

// Entry is one candidate as written in a roster file.
//
// ID is optional; entries without one receive a generated UUID. Name is the
// display label and defaults to ID. Weight follows wheel.NormalizeWeight.
type Entry struct {
	ID     string  `yaml:"id"`
	Name   string  `yaml:"name"`
	Weight float64 `yaml:"weight"`
}

// Roster is an ordered candidate list.
type Roster struct {
	Title   string  `yaml:"title"`
	Entries []Entry `yaml:"candidates"`
}

// Load reads and parses the roster file at path.
//
// Precondition: path must be a readable YAML file.
// Postcondition: Returns a roster whose entries all have unique non-empty ids, or a non-nil error.
func Load(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing roster file %s: %w", path, err)
	}
	return r, nil
}

// Parse decodes a YAML roster and assigns missing ids.
//
// Postcondition: Returns a roster whose entries all have unique non-empty ids, or a non-nil error.
func Parse(data []byte) (*Roster, error) {
	var r Roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	return &r, nil
}

// FromArgs builds a roster from "name" or "name=weight" arguments. The name
// is used as both id and label.
//
// Postcondition: Returns a roster with one entry per argument, or a non-nil error.
func FromArgs(args []string) (*Roster, error) {
	r := &Roster{Entries: make([]Entry, 0, len(args))}
	for _, arg := range args {
		name, weight, hasWeight := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("roster: empty candidate name in %q", arg)
		}
		e := Entry{ID: name, Name: name}
		if hasWeight {
			w, err := strconv.ParseFloat(strings.TrimSpace(weight), 64)
			if err != nil {
				return nil, fmt.Errorf("roster: weight of %q: %w", name, err)
			}
			e.Weight = w
		}
		r.Entries = append(r.Entries, e)
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Roster) finish() error {
	if len(r.Entries) == 0 {
		return ErrEmpty
	}
	seen := make(map[string]bool, len(r.Entries))
	for i := range r.Entries {
		e := &r.Entries[i]
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if e.Name == "" {
			e.Name = e.ID
		}
		if seen[e.ID] {
			return fmt.Errorf("%w: %q", ErrDuplicateID, e.ID)
		}
		seen[e.ID] = true
	}
	return nil
}

// Candidates returns the roster as wheel candidates, in roster order.
func (r *Roster) Candidates() []wheel.Candidate {
	out := make([]wheel.Candidate, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = wheel.Candidate{ID: e.ID, Weight: e.Weight}
	}
	return out
}

// Label returns the display name for id, or id itself when it is not in the roster.
func (r *Roster) Label(id string) string {
	for _, e := range r.Entries {
		if e.ID == id {
			return e.Name
		}
	}
	return id
}
