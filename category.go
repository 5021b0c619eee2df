package main

// AppCategory is the closed set of pedagogical categories. Every app maps
// to exactly one; unknown apps land in AdminOther so their XP still shows
// up in totals.
type AppCategory string

const (
	CategoryInstruction AppCategory = "Instruction"
	CategoryPractice    AppCategory = "Practice"
	CategoryTesting     AppCategory = "Testing"
	CategoryEarlyLit    AppCategory = "Early Lit"
	CategoryAdminOther  AppCategory = "Admin/Other"
)

// Categorizer resolves app names to categories via the configured
// membership tables. Exact-string, case-sensitive lookup only.
type Categorizer struct {
	byApp map[string]AppCategory
}

// NewCategorizer builds the lookup from the config tables. Later tables
// never override earlier ones, so the table order fixes precedence for an
// app listed twice.
func NewCategorizer(tables AppTables) *Categorizer {
	c := &Categorizer{byApp: make(map[string]AppCategory)}
	add := func(apps []string, cat AppCategory) {
		for _, app := range apps {
			if _, ok := c.byApp[app]; !ok {
				c.byApp[app] = cat
			}
		}
	}
	add(tables.Instruction, CategoryInstruction)
	add(tables.Practice, CategoryPractice)
	add(tables.Testing, CategoryTesting)
	add(tables.EarlyLit, CategoryEarlyLit)
	add(tables.Admin, CategoryAdminOther)
	return c
}

// Categorize returns the category for an app name.
func (c *Categorizer) Categorize(app string) AppCategory {
	if cat, ok := c.byApp[app]; ok {
		return cat
	}
	return CategoryAdminOther
}
