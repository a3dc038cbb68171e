package categorize

// Assignment maps builder identity keys to categories.
type Assignment struct {
	primary map[string]Category
	all     map[string][]Category
	winners map[Category]string
}

func newAssignment() Assignment {
	return Assignment{
		primary: map[string]Category{},
		all:     map[string][]Category{},
		winners: map[Category]string{},
	}
}

func (a Assignment) record(cat Category, key string) {
	a.primary[key] = cat
	a.all[key] = append(a.all[key], cat)
	a.winners[cat] = key
}

// For returns the single category exposed for a builder.
func (a Assignment) For(key string) (Category, bool) {
	c, ok := a.primary[key]
	return c, ok
}

// All returns every category the builder won, in assignment order.
func (a Assignment) All(key string) []Category {
	return append([]Category(nil), a.all[key]...)
}

// Winner returns the identity key that holds cat.
func (a Assignment) Winner(cat Category) (string, bool) {
	k, ok := a.winners[cat]
	return k, ok
}

// Len returns the number of builders holding at least one category.
func (a Assignment) Len() int { return len(a.primary) }
