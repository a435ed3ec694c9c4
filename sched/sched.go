/*
 * sched.go, part of nbforce.
 *
 * Copyright 2024 Raul Mera <rmera{at}usachDOTcl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

// Package sched splits the outer entries of a neighbor list among worker
// goroutines. Workers claim chunks from a shared cursor. Chunks start large
// and shrink as the list is consumed, (nri-cursor)/(2*nthreads)+10 entries
// each, so workers that got short lists at the end do not wait long for the others.
package sched

import (
	"sync"
	"sync/atomic"
)

// MinChunk is added to every chunk, so the tail of the list is not
// handed out one entry at a time.
const MinChunk = 10

// ChunkSize returns the number of entries claimed when the cursor is at cur.
// The result is not clamped.
func ChunkSize(nri, nthreads, cur int) int {
	return (nri-cur)/(2*nthreads) + MinChunk
}

// Cursor is the shared claim counter. The zero value starts at 0.
type Cursor struct {
	v atomic.Int64
}

// Claim returns the next chunk [n0,n1) of a list with nri outer entries
// shared among nthreads workers, or ok=false when the list is exhausted.
// The cursor is advanced with a compare-and-swap, so the chunk size is always
// computed from the value being replaced and no entry is handed out twice.
func (C *Cursor) Claim(nri, nthreads int) (n0, n1 int, ok bool) {
	if nthreads < 1 {
		nthreads = 1
	}
	for {
		cur := C.v.Load()
		if cur >= int64(nri) {
			return 0, 0, false
		}
		next := cur + int64(ChunkSize(nri, nthreads, int(cur)))
		if next > int64(nri) {
			next = int64(nri)
		}
		if C.v.CompareAndSwap(cur, next) {
			return int(cur), int(next), true
		}
	}
}

// Reset puts the cursor back at the beginning.
func (C *Cursor) Reset() {
	C.v.Store(0)
}

// Chunk is a claimed range of outer entries.
type Chunk struct {
	Worker int
	N0, N1 int
}

// Recorder keeps every claimed chunk. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	chunks []Chunk
}

func (R *Recorder) add(c Chunk) {
	R.mu.Lock()
	R.chunks = append(R.chunks, c)
	R.mu.Unlock()
}

// Chunks returns a copy of the recorded chunks, in claim order.
func (R *Recorder) Chunks() []Chunk {
	R.mu.Lock()
	defer R.mu.Unlock()
	ret := make([]Chunk, len(R.chunks))
	copy(ret, R.chunks)
	return ret
}

// Run processes the outer entries [0,nri) with nthreads workers. Each worker
// claims chunks until the list is exhausted, calling work for each one. work is
// always called with the index of the worker (0 to nthreads-1) so it can write
// to worker-local buffers. Run returns when all the chunks have been processed.
// With one thread the work runs on the calling goroutine.
// If a Recorder is given, all the claimed chunks are stored in it.
func Run(nri, nthreads int, work func(worker, n0, n1 int), rec ...*Recorder) {
	if nthreads < 1 {
		nthreads = 1
	}
	var recorder *Recorder
	if len(rec) > 0 {
		recorder = rec[0]
	}
	var cursor Cursor
	loop := func(w int) {
		for {
			n0, n1, ok := cursor.Claim(nri, nthreads)
			if !ok {
				return
			}
			if recorder != nil {
				recorder.add(Chunk{w, n0, n1})
			}
			work(w, n0, n1)
		}
	}
	if nthreads == 1 {
		loop(0)
		return
	}
	var wg sync.WaitGroup
	for w := 0; w < nthreads; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			loop(w)
		}(w)
	}
	wg.Wait()
}

// Counters are the outer and inner iteration counts of a kernel call,
// used for load balance diagnostics.
type Counters struct {
	Outer int
	Inner int
	//inner iterations done by each worker
	PerWorker []int
}

// Add accumulates o into C.
func (C *Counters) Add(o Counters) {
	C.Outer += o.Outer
	C.Inner += o.Inner
	if len(C.PerWorker) < len(o.PerWorker) {
		C.PerWorker = append(C.PerWorker, make([]int, len(o.PerWorker)-len(C.PerWorker))...)
	}
	for i, v := range o.PerWorker {
		C.PerWorker[i] += v
	}
}
