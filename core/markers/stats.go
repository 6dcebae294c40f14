// core/markers/stats.go
package markers

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// rankSum computes the Wilcoxon rank-sum z statistic and its two-sided
// p-value (normal approximation with tie correction) for the in-group
// values against the rest. Sparse expression data is dominated by a
// large tie group at zero, so the tie correction matters.
func rankSum(values []float64, inGroup []bool, n1 int) (z, p float64) {
	n := len(values)
	n2 := n - n1
	if n1 == 0 || n2 == 0 {
		return 0, 1
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })

	// Average ranks over tie runs; accumulate the tie term Σ(t³-t).
	ranks := make([]float64, n)
	var tieTerm float64
	for i := 0; i < n; {
		j := i
		for j < n && values[order[j]] == values[order[i]] {
			j++
		}
		t := float64(j - i)
		avg := float64(i+j+1) / 2 // ranks are 1-based
		for k := i; k < j; k++ {
			ranks[order[k]] = avg
		}
		tieTerm += t*t*t - t
		i = j
	}

	var r1 float64
	for i, r := range ranks {
		if inGroup[i] {
			r1 += r
		}
	}

	fn, fn1, fn2 := float64(n), float64(n1), float64(n2)
	mu := fn1 * (fn + 1) / 2
	variance := fn1 * fn2 / 12 * ((fn + 1) - tieTerm/(fn*(fn-1)))
	if variance <= 0 {
		return 0, 1
	}
	z = (r1 - mu) / math.Sqrt(variance)
	p = 2 * distuv.UnitNormal.Survival(math.Abs(z))
	if p > 1 {
		p = 1
	}
	return z, p
}

// benjaminiHochberg converts raw p-values to BH-adjusted q-values.
func benjaminiHochberg(pvals []float64) []float64 {
	n := len(pvals)
	if n == 0 {
		return nil
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return pvals[order[a]] < pvals[order[b]] })

	adj := make([]float64, n)
	min := 1.0
	for i := n - 1; i >= 0; i-- {
		idx := order[i]
		q := pvals[idx] * float64(n) / float64(i+1)
		if q < min {
			min = q
		}
		adj[idx] = min
	}
	return adj
}
