package categories

// Fixture represents a predefined forest shape for tests.
type Fixture interface {
	// Name returns the fixture's descriptive name.
	Name() string

	// Description returns what the fixture is meant to exercise.
	Description() string

	// Roots returns the root nodes of the fixture.
	Roots() []Node
}

type fixture struct {
	name        string
	description string
	roots       []Node
}

func (f *fixture) Name() string        { return f.name }
func (f *fixture) Description() string { return f.description }
func (f *fixture) Roots() []Node       { return f.roots }

// Predefined fixtures for common test scenarios.
var (
	// FixtureChain is a single path A > B > C.
	FixtureChain = &fixture{
		name:        "Chain",
		description: "Three categories nested in a single line",
		roots: []Node{
			N(1, "A",
				N(2, "B",
					N(3, "C"))),
		},
	}

	// FixtureStore is a small product catalogue with siblings, a deep branch
	// and an inactive subtree.
	FixtureStore = &fixture{
		name:        "Store",
		description: "Catalogue with several roots, siblings and an inactive branch",
		roots: []Node{
			N(10, "Electrónica",
				N(11, "Computadoras",
					N(12, "Laptops"),
					N(13, "Escritorio")),
				N(14, "Telefonía",
					N(15, "Smartphones",
						N(16, "Accesorios")))),
			N(20, "Hogar",
				N(21, "Cocina"),
				N(22, "Jardín").Disabled()),
			N(30, "Oficina"),
		},
	}
)
