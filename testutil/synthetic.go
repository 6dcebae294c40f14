// testutil/synthetic.go
package testutil

import (
	"compress/gzip"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"scell/core/matrix"
)

// Synthetic is a generated dataset with known ground truth, used by
// pipeline and integration tests.
type Synthetic struct {
	Counts *matrix.Counts
	Truth  []int      // true population per cell
	Marker [][]string // true marker gene names per population
}

// SyntheticCounts builds nPops well-separated subpopulations. Every
// population over-expresses its own block of markersPerPop genes on a
// low uniform background, so clustering must recover the populations
// and marker discovery must recover the blocks.
func SyntheticCounts(nGenes, nCells, nPops, markersPerPop int, seed uint64) Synthetic {
	r := rand.New(rand.NewPCG(seed, seed))

	genes := make([]string, nGenes)
	for g := range genes {
		genes[g] = fmt.Sprintf("Gene%03d", g)
	}
	cells := make([]string, nCells)
	truth := make([]int, nCells)
	for j := range cells {
		cells[j] = fmt.Sprintf("CELL%04d", j)
		truth[j] = j % nPops
	}

	m := matrix.New(genes, cells)
	for j := 0; j < nCells; j++ {
		pop := truth[j]
		for g := 0; g < nGenes; g++ {
			count := float64(r.IntN(3)) // background 0..2
			if g >= pop*markersPerPop && g < (pop+1)*markersPerPop {
				count += float64(20 + r.IntN(10))
			}
			if count > 0 {
				// Indices are valid by construction.
				_ = m.Add(g, j, count)
			}
		}
	}

	marker := make([][]string, nPops)
	for p := 0; p < nPops; p++ {
		for g := p * markersPerPop; g < (p+1)*markersPerPop; g++ {
			marker[p] = append(marker[p], genes[g])
		}
	}
	return Synthetic{Counts: m, Truth: truth, Marker: marker}
}

// WriteTenxDir materializes a Counts as a gzipped 10x-style directory
// (matrix.mtx.gz, features.tsv.gz, barcodes.tsv.gz) under dir.
func WriteTenxDir(dir string, c *matrix.Counts) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	var mtx strings.Builder
	var nnz int
	var entries strings.Builder
	for j := 0; j < c.NCells(); j++ {
		for _, e := range c.Col(j) {
			fmt.Fprintf(&entries, "%d %d %.0f\n", e.Gene+1, j+1, e.Count)
			nnz++
		}
	}
	mtx.WriteString("%%MatrixMarket matrix coordinate integer general\n")
	fmt.Fprintf(&mtx, "%d %d %d\n", c.NGenes(), c.NCells(), nnz)
	mtx.WriteString(entries.String())

	var feats strings.Builder
	for _, g := range c.Genes {
		fmt.Fprintf(&feats, "%s\t%s\tGene Expression\n", g, g)
	}
	var bcs strings.Builder
	for _, b := range c.Cells {
		fmt.Fprintf(&bcs, "%s\n", b)
	}

	for _, f := range []struct{ name, data string }{
		{"matrix.mtx.gz", mtx.String()},
		{"features.tsv.gz", feats.String()},
		{"barcodes.tsv.gz", bcs.String()},
	} {
		if err := writeGz(filepath.Join(dir, f.name), f.data); err != nil {
			return err
		}
	}
	return nil
}

func writeGz(path, data string) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(fh)
	if _, err := gw.Write([]byte(data)); err != nil {
		_ = fh.Close()
		return err
	}
	if err := gw.Close(); err != nil {
		_ = fh.Close()
		return err
	}
	return fh.Close()
}

// MatchPartitions maps predicted labels onto true populations by
// majority vote and reports the agreement fraction.
func MatchPartitions(truth, pred []int) float64 {
	if len(truth) != len(pred) {
		return 0
	}
	votes := map[int]map[int]int{}
	for i := range pred {
		if votes[pred[i]] == nil {
			votes[pred[i]] = map[int]int{}
		}
		votes[pred[i]][truth[i]]++
	}
	best := map[int]int{}
	for label, dist := range votes {
		top, n := -1, -1
		for tru, c := range dist {
			if c > n {
				top, n = tru, c
			}
		}
		best[label] = top
	}
	agree := 0
	for i := range pred {
		if best[pred[i]] == truth[i] {
			agree++
		}
	}
	return float64(agree) / float64(len(truth))
}
