// Package tuning tracks a multi-string tuning session: which configured
// string a detected pitch belongs to, how far off it is, and which strings
// have been brought into tune.
package tuning

import (
	"fmt"
	"slices"
	"strings"

	"github.com/RyanBlaney/sonido-tuner/algorithms/common"
	"github.com/RyanBlaney/sonido-tuner/tuning/config"
)

// StringTarget is the note name and target frequency of one string
type StringTarget struct {
	Note      string  `json:"note"`
	Frequency float64 `json:"frequency"` // Hz
}

// Definition is an ordered set of string targets. Index 0 is the lowest
// string by convention, though nothing depends on the order. Duplicate
// frequencies are legal and every string keeps its own index.
type Definition struct {
	Name    string         `json:"name"`
	Strings []StringTarget `json:"strings"`
}

// NumStrings returns the number of strings
func (d Definition) NumStrings() int {
	return len(d.Strings)
}

// Validate rejects an empty tuning or any target frequency that is not
// finite and positive.
func (d Definition) Validate() error {
	if len(d.Strings) == 0 {
		return fmt.Errorf("%w: %q", ErrEmptyTuning, d.Name)
	}
	for i, s := range d.Strings {
		if !common.IsFinitePositive(s.Frequency) {
			return fmt.Errorf("%w: %q string %d (%s) = %v", ErrInvalidTarget, d.Name, i, s.Note, s.Frequency)
		}
	}
	return nil
}

// Clone returns a deep copy
func (d Definition) Clone() Definition {
	return Definition{Name: d.Name, Strings: slices.Clone(d.Strings)}
}

// FromEntry builds a definition from a config file entry
func FromEntry(e config.TuningEntry) (Definition, error) {
	if len(e.Notes) != len(e.Frequencies) {
		return Definition{}, fmt.Errorf("%w: %q has %d notes and %d frequencies",
			ErrStringCountMismatch, e.Name, len(e.Notes), len(e.Frequencies))
	}

	def := Definition{Name: e.Name, Strings: make([]StringTarget, len(e.Notes))}
	for i := range e.Notes {
		def.Strings[i] = StringTarget{Note: e.Notes[i], Frequency: e.Frequencies[i]}
	}
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// DefaultTuningName names the preset used when nothing else is chosen
const DefaultTuningName = "Standard"

func guitar(name string, notes [6]string, freqs [6]float64) Definition {
	def := Definition{Name: name, Strings: make([]StringTarget, 6)}
	for i := range 6 {
		def.Strings[i] = StringTarget{Note: notes[i], Frequency: freqs[i]}
	}
	return def
}

// Presets returns the built-in six-string guitar tunings, lowest string first
func Presets() []Definition {
	return []Definition{
		guitar("Standard",
			[6]string{"E", "A", "D", "G", "B", "E"},
			[6]float64{82.41, 110.00, 146.83, 196.00, 246.94, 329.63}),
		guitar("Eb Tuning",
			[6]string{"Eb", "Ab", "Db", "Gb", "Bb", "Eb"},
			[6]float64{77.78, 103.83, 138.59, 185.00, 233.08, 311.13}),
		guitar("Open G",
			[6]string{"D", "G", "D", "G", "B", "D"},
			[6]float64{73.42, 98.00, 146.83, 196.00, 246.94, 293.66}),
		guitar("Open E",
			[6]string{"E", "B", "E", "G#", "B", "E"},
			[6]float64{82.41, 123.47, 164.81, 207.65, 246.94, 329.63}),
		guitar("Open D",
			[6]string{"D", "A", "D", "F#", "A", "D"},
			[6]float64{73.42, 110.00, 146.83, 185.00, 220.00, 293.66}),
		guitar("DADGAD",
			[6]string{"D", "A", "D", "G", "A", "D"},
			[6]float64{73.42, 110.00, 146.83, 196.00, 220.00, 293.66}),
	}
}

// Standard returns the standard E A D G B E tuning
func Standard() Definition {
	return Presets()[0]
}

// Catalog holds the available tunings in insertion order. Lookups ignore
// case. A Catalog is not safe for concurrent modification.
type Catalog struct {
	order []string
	byKey map[string]Definition
}

// NewCatalog returns a catalog holding the presets
func NewCatalog() *Catalog {
	c := &Catalog{byKey: make(map[string]Definition)}
	for _, def := range Presets() {
		// presets have distinct names
		_ = c.Add(def)
	}
	return c
}

func catalogKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Add validates and inserts a definition. A name already present is rejected.
func (c *Catalog) Add(def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	key := catalogKey(def.Name)
	if key == "" {
		return fmt.Errorf("%w: tuning needs a name", ErrEmptyTuning)
	}
	if _, ok := c.byKey[key]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateTuning, def.Name)
	}
	c.byKey[key] = def.Clone()
	c.order = append(c.order, def.Name)
	return nil
}

// AddEntries adds every tuning declared in a config file
func (c *Catalog) AddEntries(entries []config.TuningEntry) error {
	for _, e := range entries {
		def, err := FromEntry(e)
		if err != nil {
			return err
		}
		if err := c.Add(def); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the named tuning
func (c *Catalog) Lookup(name string) (Definition, error) {
	def, ok := c.byKey[catalogKey(name)]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknownTuning, name)
	}
	return def.Clone(), nil
}

// Names returns the tuning names in insertion order
func (c *Catalog) Names() []string {
	return slices.Clone(c.order)
}
