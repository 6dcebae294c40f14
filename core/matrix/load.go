// core/matrix/load.go
package matrix

import (
	"bufio"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// LoadDir reads a 10x-style directory: matrix.mtx (MatrixMarket coordinate),
// features.tsv (or genes.tsv) and barcodes.tsv, each optionally gzipped.
// Fails on missing files or a dimension mismatch between the matrix header
// and the label files.
func LoadDir(dir string) (*Counts, error) {
	mtxPath, ok := findFile(dir, "matrix.mtx")
	if !ok {
		return nil, fmt.Errorf("%s: matrix.mtx not found", dir)
	}
	featPath, ok := findFile(dir, "features.tsv", "genes.tsv")
	if !ok {
		return nil, fmt.Errorf("%s: features.tsv/genes.tsv not found", dir)
	}
	bcPath, ok := findFile(dir, "barcodes.tsv")
	if !ok {
		return nil, fmt.Errorf("%s: barcodes.tsv not found", dir)
	}

	genes, err := readFeatures(featPath)
	if err != nil {
		return nil, err
	}
	cells, err := readBarcodes(bcPath)
	if err != nil {
		return nil, err
	}
	return readMTX(mtxPath, genes, cells)
}

// readFeatures reads feature labels; 10x features.tsv is
// id \t symbol \t type, and the symbol column is preferred when present.
// Duplicate labels are made unique by suffixing -1, -2, ...
func readFeatures(path string) ([]string, error) {
	rc, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	var names []string
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		name := fields[0]
		if len(fields) >= 2 && fields[1] != "" {
			name = fields[1]
		}
		names = append(names, name)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%s: no features", path)
	}
	return makeUnique(names), nil
}

func readBarcodes(path string) ([]string, error) {
	rc, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	var names []string
	sc := bufio.NewScanner(rc)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		names = append(names, strings.Split(line, "\t")[0])
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%s: no barcodes", path)
	}
	return makeUnique(names), nil
}

func makeUnique(names []string) []string {
	seen := make(map[string]int, len(names))
	out := make([]string, len(names))
	for i, n := range names {
		k, dup := seen[n]
		if !dup {
			seen[n] = 1
			out[i] = n
			continue
		}
		// The input may already contain suffixed labels ("A", "A", "A-1"),
		// so probe until the candidate itself is unused.
		cand := fmt.Sprintf("%s-%d", n, k)
		for {
			if _, taken := seen[cand]; !taken {
				break
			}
			k++
			cand = fmt.Sprintf("%s-%d", n, k)
		}
		seen[n] = k + 1
		seen[cand] = 1
		out[i] = cand
	}
	return out
}

// readMTX parses a MatrixMarket coordinate matrix with 1-based indices.
func readMTX(path string, genes, cells []string) (*Counts, error) {
	rc, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	// Banner line.
	if !sc.Scan() {
		return nil, fmt.Errorf("%s: empty file", path)
	}
	banner := sc.Text()
	if !strings.HasPrefix(banner, "%%MatrixMarket") || !strings.Contains(banner, "coordinate") {
		return nil, fmt.Errorf("%s: not a MatrixMarket coordinate file", path)
	}

	// Dimensions line (after % comments).
	var nRows, nCols, nnz int
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}
		if _, err := fmt.Sscanf(line, "%d %d %d", &nRows, &nCols, &nnz); err != nil {
			return nil, fmt.Errorf("%s: bad dimensions line %q", path, line)
		}
		break
	}
	if nRows != len(genes) {
		return nil, fmt.Errorf("%s: matrix has %d rows but %d features listed", path, nRows, len(genes))
	}
	if nCols != len(cells) {
		return nil, fmt.Errorf("%s: matrix has %d columns but %d barcodes listed", path, nCols, len(cells))
	}

	m := New(genes, cells)
	read := 0
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, fmt.Errorf("%s: bad entry %q", path, line)
		}
		r, err1 := strconv.Atoi(fields[0])
		c, err2 := strconv.Atoi(fields[1])
		v, err3 := strconv.ParseFloat(fields[2], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, fmt.Errorf("%s: bad entry %q", path, line)
		}
		if v < 0 {
			return nil, fmt.Errorf("%s: negative count in entry %q", path, line)
		}
		if v == 0 {
			continue
		}
		if err := m.Add(r-1, c-1, v); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		read++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if read != nnz {
		return nil, fmt.Errorf("%s: header declares %d entries, read %d", path, nnz, read)
	}

	// Column entries sorted by gene index; MatrixMarket order is unspecified.
	for j := range m.cols {
		col := m.cols[j]
		sort.Slice(col, func(a, b int) bool { return col[a].Gene < col[b].Gene })
	}
	return m, nil
}
