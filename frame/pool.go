/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package frame

import (
	"sync"

	"github.com/bits-and-blooms/bitset"

	liberr "github.com/nabbar/edge-sdk/errors"
)

// Pool is a fixed-capacity free-list of equally-sized cells. Get does not
// block: it returns ErrPoolExhausted at once, without growing the pool,
// when every cell is checked out, so sustained back-pressure on the wire
// shows up as back-pressure on callers instead of unbounded allocation.
type Pool struct {
	mu    sync.Mutex
	cells [][]byte
	free  *bitset.BitSet
	size  int
}

// NewPool allocates count cells of cellSize bytes each, all initially
// free.
func NewPool(count, cellSize int) *Pool {
	p := &Pool{
		cells: make([][]byte, count),
		free:  bitset.New(uint(count)),
		size:  cellSize,
	}
	for i := range p.cells {
		p.cells[i] = make([]byte, cellSize)
		p.free.Set(uint(i))
	}
	return p
}

// Get checks out the next free cell. ErrPoolExhausted is returned rather
// than growing the pool when every cell is checked out.
func (p *Pool) Get() ([]byte, int, liberr.Error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.free.NextSet(0)
	if !ok {
		return nil, -1, ErrPoolExhausted.Error()
	}
	p.free.Clear(idx)
	return p.cells[idx][:cap(p.cells[idx])], int(idx), nil
}

// Put returns a cell obtained from Get back to the free list. Put is a
// no-op for an index already free, so double-returns are harmless.
func (p *Pool) Put(idx int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if idx < 0 || idx >= len(p.cells) {
		return
	}
	p.free.Set(uint(idx))
}

// Available reports how many cells are currently free.
func (p *Pool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return int(p.free.Count())
}

// Cap reports the pool's total cell count.
func (p *Pool) Cap() int {
	return len(p.cells)
}

// CellSize reports the configured size of each cell.
func (p *Pool) CellSize() int {
	return p.size
}
