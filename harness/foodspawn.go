package harness

import (
	"math/rand"

	"github.com/corvid9/snakepilot/grid"
)

// FoodSettings mirrors the common Battlesnake server food knobs: always keep
// at least MinimumFood items on the board, and each step roll an additional
// FoodSpawnChance percent chance to spawn one more on top of that.
type FoodSettings struct {
	MinimumFood     int
	FoodSpawnChance int
}

// DefaultFoodSettings matches the Battlesnake official server's defaults.
var DefaultFoodSettings = FoodSettings{MinimumFood: 1, FoodSpawnChance: 15}

// applyFoodSettings tops fruits up to settings.MinimumFood and, with
// probability settings.FoodSpawnChance, spawns one extra — each new cell
// drawn via bounds.RandomFreeCell against the snake's own occupied set.
func applyFoodSettings(bounds grid.Bounds, fruits []grid.Cell, occupied grid.CellSet, rng *rand.Rand, settings FoodSettings) []grid.Cell {
	if settings.MinimumFood < 0 {
		settings.MinimumFood = 0
	}
	if settings.FoodSpawnChance < 0 {
		settings.FoodSpawnChance = 0
	} else if settings.FoodSpawnChance > 100 {
		settings.FoodSpawnChance = 100
	}

	deficit := settings.MinimumFood - len(fruits)
	if deficit < 0 {
		deficit = 0
	}
	spawnExtra := settings.FoodSpawnChance > 0 && rng.Intn(100) < settings.FoodSpawnChance
	toSpawn := deficit
	if spawnExtra {
		toSpawn++
	}
	if toSpawn == 0 {
		return fruits
	}

	// occupied's backing array is shared with the caller's copy, so build a
	// fresh set rather than mutating it in place.
	withFruit := grid.NewCellSet(bounds)
	occupied.ForEach(withFruit.Add)
	for _, f := range fruits {
		withFruit.Add(f)
	}

	for i := 0; i < toSpawn; i++ {
		cell, ok := bounds.RandomFreeCell(withFruit, rng)
		if !ok {
			break
		}
		fruits = append(fruits, cell)
		withFruit.Add(cell)
	}
	return fruits
}
