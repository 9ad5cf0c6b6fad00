package catalog

// Predicate selects vehicles for Filter.
type Predicate func(Vehicle) bool

func ByPlate(plate string) Predicate {
	return func(v Vehicle) bool { return v.plate == plate }
}

func ByMake(brand string) Predicate {
	return func(v Vehicle) bool { return v.make == brand }
}

func ByModel(model string) Predicate {
	return func(v Vehicle) bool { return v.model == model }
}

func ByYear(year int) Predicate {
	return func(v Vehicle) bool { return v.RegistrationYear() == year }
}

// Every matches when all preds match. With no predicates it matches
// everything.
func Every(preds ...Predicate) Predicate {
	return func(v Vehicle) bool {
		for _, p := range preds {
			if !p(v) {
				return false
			}
		}
		return true
	}
}
