package config

// CategoryWeights orders command categories in help output. Unknown
// categories sort last, alphabetically.
var CategoryWeights = map[string]int{
	"Information": 0,
	"Utilities":   10,
	"Fun":         20,
	"Maintenance": 60,
}

// CategoryWeight returns the sort weight of a category.
func CategoryWeight(name string) int {
	if w, ok := CategoryWeights[name]; ok {
		return w
	}
	return 1000
}
