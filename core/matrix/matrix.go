// core/matrix/matrix.go
package matrix

import "fmt"

// Entry is one non-zero value in a cell's column.
type Entry struct {
	Gene  int // row index into Genes
	Count float64
}

// Counts is a sparse gene-by-cell count matrix stored column-major:
// one sorted entry slice per cell. Rows are genes, columns are cells.
// Dimensions are fixed after construction; QC produces a new Counts
// via SubsetCells rather than mutating in place.
type Counts struct {
	Genes []string
	Cells []string
	cols  [][]Entry
}

// New returns an empty Counts with the given labels.
func New(genes, cells []string) *Counts {
	return &Counts{Genes: genes, Cells: cells, cols: make([][]Entry, len(cells))}
}

func (c *Counts) NGenes() int { return len(c.Genes) }
func (c *Counts) NCells() int { return len(c.Cells) }

// Col returns the non-zero entries of cell j. Callers must not mutate it.
func (c *Counts) Col(j int) []Entry { return c.cols[j] }

// Add appends a non-zero entry to cell j. Entries must arrive in
// ascending gene order per column (the MatrixMarket loader sorts).
func (c *Counts) Add(gene, cell int, count float64) error {
	if gene < 0 || gene >= len(c.Genes) {
		return fmt.Errorf("gene index %d out of range [0,%d)", gene, len(c.Genes))
	}
	if cell < 0 || cell >= len(c.Cells) {
		return fmt.Errorf("cell index %d out of range [0,%d)", cell, len(c.Cells))
	}
	c.cols[cell] = append(c.cols[cell], Entry{Gene: gene, Count: count})
	return nil
}

// ColTotal is the sum of counts in cell j.
func (c *Counts) ColTotal(j int) float64 {
	var s float64
	for _, e := range c.cols[j] {
		s += e.Count
	}
	return s
}

// ColNNZ is the number of genes detected in cell j.
func (c *Counts) ColNNZ(j int) int { return len(c.cols[j]) }

// SubsetCells returns a new Counts restricted to the given cell indices,
// in the given order. Column slices are shared with the receiver.
func (c *Counts) SubsetCells(keep []int) (*Counts, error) {
	out := &Counts{
		Genes: c.Genes,
		Cells: make([]string, 0, len(keep)),
		cols:  make([][]Entry, 0, len(keep)),
	}
	for _, j := range keep {
		if j < 0 || j >= len(c.Cells) {
			return nil, fmt.Errorf("cell index %d out of range [0,%d)", j, len(c.Cells))
		}
		out.Cells = append(out.Cells, c.Cells[j])
		out.cols = append(out.cols, c.cols[j])
	}
	return out, nil
}
