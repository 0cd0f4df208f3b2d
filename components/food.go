package components

// Food is a single-use life source.
type Food struct {
	Body     Body
	consumed bool
}

// NewFood returns an unconsumed food item.
func NewFood(body Body) Food {
	return Food{Body: body}
}

// TryConsume marks the food eaten. Only the first call succeeds. Feeding
// runs on one goroutine, so the first caller in iteration order wins.
func (f *Food) TryConsume() bool {
	if f.consumed {
		return false
	}
	f.consumed = true
	return true
}

// Consumed reports whether the food has been eaten.
func (f *Food) Consumed() bool {
	return f.consumed
}
