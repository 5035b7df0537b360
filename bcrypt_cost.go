//go:build !race

package wiki

func passwordHashCost() int {
	return 12
}
