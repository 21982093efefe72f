package categorize

// Fallback is the catch-all category for descriptions no rule matches.
const Fallback = "Otros"

// DefaultCategories returns the built-in ordered rule table. Order matters:
// "amazon prime" is reached only by descriptions that miss "Compras Online".
func DefaultCategories() []Category {
	return []Category{
		{Name: "Supermercado", Patterns: []string{`mercadona`, `eroski`, `primaprix`, `bm\b`, `dia\b`, `fruter`, `super 99`, `super xtra`}},
		{Name: "Restaurantes", Patterns: []string{`restaurant`, `restaurante`, `kebab`, `arepa`, `doner`, `fusion market`, `good burger`, `pizz`}},
		{Name: "Bares / Cafés", Patterns: []string{`cafe`, `cafetea`, `macchiato`, `bar\b`, `cerve`, `pub`}},
		{Name: "Entretenimiento", Patterns: []string{`cine`, `golem`, `evento`, `festival`, `club`, `zentral`, `concierto`}},
		{Name: "Moda / Ropa", Patterns: []string{`zara`, `bershka`, `pull`, `moda`, `outlet`}},
		{Name: "Compras Online", Patterns: []string{`amazon`, `amzn`, `vinted`, `temu`, `zara\.com`}},
		{Name: "Gimnasio / Deporte", Patterns: []string{`vivagym`, `ayuntamiento`, `piscina`, `strong club`}},
		{Name: "Cuidado Personal", Patterns: []string{`peluquer`, `beauty`, `barber`, `estética`}},
		{Name: "Suscripciones", Patterns: []string{`spotify`, `openai`, `apple\.com`, `itunes`, `amazon prime`, `google one`}},
		{Name: "Salud", Patterns: []string{`farmacia`, `clinic`, `denti`}},
		{Name: "Transporte / Viajes", Patterns: []string{`ride on`, `uber`, `taxi`, `aero`, `trainline`, `mytrip`, `renfe`, `blablacar`}},
		{Name: "Transferencias", Patterns: []string{`bizum`, `yappy`, `transferencia\b`}},
		{Name: "MEC", Patterns: []string{`entre cuentas`, `sanchez castillo.*sanchez castillo`, `leonardo enrique.*leonardo`}},
		{Name: "ATM / Efectivo", Patterns: []string{`atm`, `ingreso\s+contra\s+cuenta`}},
	}
}

// DefaultRules compiles DefaultCategories.
func DefaultRules() *Ruleset {
	r, err := NewRuleset(DefaultCategories(), Fallback)
	if err != nil {
		panic(err)
	}
	return r
}
