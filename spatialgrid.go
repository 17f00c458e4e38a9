package strand

import (
	"math"
	"slices"
	"sort"

	"github.com/akmonengine/strand/actor"
	"github.com/akmonengine/strand/internal/pipeline"
	"github.com/go-gl/mathgl/mgl64"
)

// maxCellsPerAxis bounds how many cells an object may span on one axis.
// Larger objects (planes) are kept out of the cells and tested against everything.
const maxCellsPerAxis = 64

// CellKey is the integer coordinate of a grid cell
type CellKey struct {
	X, Y, Z int
}

// Cell holds the indices of the objects overlapping it
type Cell struct {
	objectIndices []int
}

// Pair of collision objects whose bounds overlap
type Pair struct {
	ObjectA actor.CollisionObject
	ObjectB actor.CollisionObject
}

// SpatialGrid is a uniform hashed grid used by the broad phase
type SpatialGrid struct {
	cellSize  float64
	cells     []Cell
	cellMask  int
	unbounded []int
}

// NewSpatialGrid creates a grid of numCells buckets (rounded up to a power of two)
func NewSpatialGrid(cellSize float64, numCells int) *SpatialGrid {
	numCells = nextPowerOfTwo(numCells)

	cells := make([]Cell, numCells)
	for i := range cells {
		cells[i].objectIndices = make([]int, 0, 8)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// Insert adds the object index to every cell its bounds overlap
func (sg *SpatialGrid) Insert(index int, aabb actor.AABB) {
	minCell := sg.worldToCell(aabb.Min)
	maxCell := sg.worldToCell(aabb.Max)
	if maxCell.X-minCell.X > maxCellsPerAxis ||
		maxCell.Y-minCell.Y > maxCellsPerAxis ||
		maxCell.Z-minCell.Z > maxCellsPerAxis {
		sg.unbounded = append(sg.unbounded, index)
		return
	}

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				cellIdx := sg.hashCell(CellKey{x, y, z})
				sg.cells[cellIdx].objectIndices = append(sg.cells[cellIdx].objectIndices, index)
			}
		}
	}
}

func (sg *SpatialGrid) Clear() {
	for i := range sg.cells {
		sg.cells[i].objectIndices = sg.cells[i].objectIndices[:0]
	}
	sg.unbounded = sg.unbounded[:0]
}

func (sg *SpatialGrid) SortCells() {
	for i := range sg.cells {
		if len(sg.cells[i].objectIndices) > 1 {
			sort.Ints(sg.cells[i].objectIndices)
		}
	}
	sort.Ints(sg.unbounded)
}

// FindPairs returns every pair (i < j) of objects that may collide, ordered by i then j
func (sg *SpatialGrid) FindPairs(objects []actor.CollisionObject) []Pair {
	pairs := make([]Pair, 0, len(objects)/2)
	seen := make([]bool, len(objects))
	for i := range objects {
		pairs = sg.appendPairs(pairs, objects, i, seen)
	}
	return pairs
}

// FindPairsParallel is FindPairs spread over workersCount goroutines, with the same result
func (sg *SpatialGrid) FindPairsParallel(objects []actor.CollisionObject, workersCount int) []Pair {
	indices := make([]int, len(objects))
	for i := range indices {
		indices[i] = i
	}
	chunks := pipeline.Chunks(indices, workersCount)
	results := make([][]Pair, len(chunks))

	slots := make([]int, len(chunks))
	for i := range slots {
		slots[i] = i
	}
	pipeline.Task(len(chunks), slots, func(slot int) {
		seen := make([]bool, len(objects))
		for _, i := range chunks[slot] {
			results[slot] = sg.appendPairs(results[slot], objects, i, seen)
		}
	})

	return slices.Concat(results...)
}

func (sg *SpatialGrid) appendPairs(pairs []Pair, objects []actor.CollisionObject, index int, seen []bool) []Pair {
	clear(seen)
	candidates := make([]int, 0, 8)
	collect := func(indices []int) {
		for _, otherIdx := range indices {
			if otherIdx <= index || seen[otherIdx] {
				continue
			}
			seen[otherIdx] = true
			candidates = append(candidates, otherIdx)
		}
	}

	if slices.Contains(sg.unbounded, index) {
		// an unbounded object meets every object registered after it
		for j := index + 1; j < len(objects); j++ {
			candidates = append(candidates, j)
		}
	} else {
		aabb := objects[index].GetAABB()
		minCell := sg.worldToCell(aabb.Min)
		maxCell := sg.worldToCell(aabb.Max)
		for x := minCell.X; x <= maxCell.X; x++ {
			for y := minCell.Y; y <= maxCell.Y; y++ {
				for z := minCell.Z; z <= maxCell.Z; z++ {
					collect(sg.cells[sg.hashCell(CellKey{x, y, z})].objectIndices)
				}
			}
		}
		collect(sg.unbounded)
	}
	sort.Ints(candidates)

	objectA := objects[index]
	for _, otherIdx := range candidates {
		objectB := objects[otherIdx]
		if !canCollide(objectA, objectB) {
			continue
		}
		if !objectA.GetAABB().Overlaps(objectB.GetAABB()) {
			continue
		}
		pairs = append(pairs, Pair{ObjectA: objectA, ObjectB: objectB})
	}
	return pairs
}

// canCollide filters out pairs that can never produce a contact
func canCollide(a, b actor.CollisionObject) bool {
	if !actor.ShouldCollide(a.GetFilter(), b.GetFilter()) {
		return false
	}

	rbA, aIsRigid := a.(*actor.RigidBody)
	rbB, bIsRigid := b.(*actor.RigidBody)
	if !aIsRigid || !bIsRigid {
		return true
	}
	if rbA.BodyType == actor.BodyTypeStatic && rbB.BodyType == actor.BodyTypeStatic {
		return false
	}
	return !rbA.IsSleeping || !rbB.IsSleeping
}

func (sg *SpatialGrid) worldToCell(pos mgl64.Vec3) CellKey {
	return CellKey{
		X: int(math.Floor(pos.X() / sg.cellSize)),
		Y: int(math.Floor(pos.Y() / sg.cellSize)),
		Z: int(math.Floor(pos.Z() / sg.cellSize)),
	}
}

func (sg *SpatialGrid) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & sg.cellMask
}
