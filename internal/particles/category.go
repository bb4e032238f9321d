package particles

import "fmt"

// Category is the chemical role of an agent.
type Category uint8

const (
	Filler  Category = iota // starch
	Builder                 // glutenin
	Linker                  // gliadin
	numCategories
)

// Traits are the immutable per-category constants.
type Traits struct {
	Name      string
	Mass      float64
	Radius    float64
	MaxDegree int
	// Share is the probability of drawing this category at population time.
	Share float64
}

var traits = [numCategories]Traits{
	Filler:  {Name: "filler", Mass: 10.0, Radius: 0.05, MaxDegree: 0, Share: 0.40},
	Builder: {Name: "builder", Mass: 2.0, Radius: 0.03, MaxDegree: 4, Share: 0.30},
	Linker:  {Name: "linker", Mass: 1.0, Radius: 0.02, MaxDegree: 2, Share: 0.30},
}

// drawOrder is the order the cumulative share partition is walked in.
var drawOrder = [numCategories]Category{Builder, Linker, Filler}

// Traits returns the constants for c.
func (c Category) Traits() Traits {
	return traits[c]
}

func (c Category) String() string {
	if c < numCategories {
		return traits[c].Name
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c < numCategories
}

// CanBond reports whether a querying agent of category c may propose a
// bond to a neighbor of category other.
func (c Category) CanBond(other Category) bool {
	return c == Builder && (other == Linker || other == Builder)
}

// DrawCategory maps a uniform sample u in [0, 1) onto the share partition.
func DrawCategory(u float64) Category {
	acc := 0.0
	for _, c := range drawOrder {
		acc += traits[c].Share
		if u < acc {
			return c
		}
	}
	return Filler
}

// ParseCategory is the inverse of Category.String.
func ParseCategory(s string) (Category, error) {
	for c := Category(0); c < numCategories; c++ {
		if traits[c].Name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown category: %s", s)
}
