package pipeline

import (
	"sync/atomic"
	"testing"
)

func TestTask_VisitsEveryItemOnce(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		size    int
	}{
		{"single worker", 1, 10},
		{"more workers than items", 8, 3},
		{"uneven split", 3, 10},
		{"zero workers", 0, 5},
		{"empty", 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]int, tt.size)
			for i := range data {
				data[i] = i
			}
			visits := make([]int32, tt.size)
			var total atomic.Int32

			Task(tt.workers, data, func(i int) {
				atomic.AddInt32(&visits[i], 1)
				total.Add(1)
			})

			if int(total.Load()) != tt.size {
				t.Errorf("total visits = %d, want %d", total.Load(), tt.size)
			}
			for i, v := range visits {
				if v != 1 {
					t.Errorf("item %d visited %d times, want 1", i, v)
				}
			}
		})
	}
}

func TestChunks(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		n         int
		wantSizes []int
	}{
		{"even", 6, 3, []int{2, 2, 2}},
		{"uneven", 7, 3, []int{3, 3, 1}},
		{"more batches than items", 2, 5, []int{1, 1}},
		{"single batch", 4, 1, []int{4}},
		{"empty", 0, 3, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]int, tt.size)
			for i := range data {
				data[i] = i
			}
			chunks := Chunks(data, tt.n)
			if len(chunks) != len(tt.wantSizes) {
				t.Fatalf("len(chunks) = %d, want %d", len(chunks), len(tt.wantSizes))
			}
			next := 0
			for i, chunk := range chunks {
				if len(chunk) != tt.wantSizes[i] {
					t.Errorf("len(chunks[%d]) = %d, want %d", i, len(chunk), tt.wantSizes[i])
				}
				for _, v := range chunk {
					if v != next {
						t.Errorf("chunks out of order: got %d, want %d", v, next)
					}
					next++
				}
			}
		})
	}
}
