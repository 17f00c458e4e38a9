// Package pipeline fans per-item work out to a fixed number of goroutines.
package pipeline

import "sync"

// Task calls fn for every item, split in contiguous chunks across workersCount
// goroutines, and returns once all of them are done. With one worker (or one
// item) it runs inline.
func Task[T any](workersCount int, data []T, fn func(data T)) {
	dataSize := len(data)
	if dataSize == 0 {
		return
	}
	workersCount = max(1, min(workersCount, dataSize))
	if workersCount == 1 {
		for _, item := range data {
			fn(item)
		}
		return
	}

	var wg sync.WaitGroup
	for _, chunk := range Chunks(data, workersCount) {
		wg.Add(1)
		go func(chunk []T) {
			defer wg.Done()
			for _, item := range chunk {
				fn(item)
			}
		}(chunk)
	}
	wg.Wait()
}

// Chunks partitions data into at most n contiguous, order-preserving batches
func Chunks[T any](data []T, n int) [][]T {
	dataSize := len(data)
	if dataSize == 0 {
		return nil
	}
	n = max(1, min(n, dataSize))
	chunkSize := (dataSize + n - 1) / n

	chunks := make([][]T, 0, n)
	for start := 0; start < dataSize; start += chunkSize {
		chunks = append(chunks, data[start:min(start+chunkSize, dataSize)])
	}
	return chunks
}
