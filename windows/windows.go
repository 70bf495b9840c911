package windows

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/biogo/biogo/io/seqio/fai"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Window is one contiguous genomic interval used to split variant-calling
// work. Start/End follow BED convention (0-based, half-open).
type Window struct {
	Chrom string
	Start int
	End   int
}

// Region renders the window in the region syntax the variant caller accepts.
func (w Window) Region() string {
	return fmt.Sprintf("%s:%d-%d", w.Chrom, w.Start, w.End)
}

func (w Window) String() string {
	return w.Region()
}

// Load reads a three-column tab-separated interval file. Row order is
// preserved; downstream merge enumerates windows in exactly this order.
func Load(path string) ([]Window, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	df := dataframe.ReadCSV(f, dataframe.WithDelimiter('\t'), dataframe.HasHeader(false), dataframe.WithTypes(map[string]series.Type{
		"X0": series.String,
		"X1": series.Int,
		"X2": series.Int,
	}))
	if df.Err != nil {
		return nil, fmt.Errorf("parsing interval file %s: %w", path, df.Err)
	}
	if df.Ncol() < 3 {
		return nil, fmt.Errorf("interval file %s: expected 3 tab-separated columns, got %d", path, df.Ncol())
	}

	records := df.Records()
	var ws []Window
	for _, rec := range records[1:] {
		start, sErr := strconv.Atoi(strings.TrimSpace(rec[1]))
		if sErr != nil {
			return nil, fmt.Errorf("interval file %s: bad start %q: %w", path, rec[1], sErr)
		}
		end, eErr := strconv.Atoi(strings.TrimSpace(rec[2]))
		if eErr != nil {
			return nil, fmt.Errorf("interval file %s: bad end %q: %w", path, rec[2], eErr)
		}
		ws = append(ws, Window{Chrom: strings.TrimSpace(rec[0]), Start: start, End: end})
	}
	if len(ws) == 0 {
		return nil, fmt.Errorf("interval file %s contains no windows", path)
	}
	return ws, nil
}

// FromBamHeader synthesizes one whole-sequence window per @SQ line of the
// alignment file's embedded sequence dictionary.
func FromBamHeader(samtools string, bam string) ([]Window, error) {
	cmd := exec.Command(samtools, "view", "-H", bam)
	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("reading header of %s: %v: %s", bam, err, strings.TrimSpace(stderr.String()))
	}

	var ws []Window
	for _, line := range strings.Split(out.String(), "\n") {
		if !strings.HasPrefix(line, "@SQ") {
			continue
		}
		var name string
		length := -1
		for _, field := range strings.Split(line, "\t") {
			if strings.HasPrefix(field, "SN:") {
				name = strings.TrimPrefix(field, "SN:")
			} else if strings.HasPrefix(field, "LN:") {
				n, err := strconv.Atoi(strings.TrimPrefix(field, "LN:"))
				if err != nil {
					return nil, fmt.Errorf("bad @SQ length in %s: %q", bam, field)
				}
				length = n
			}
		}
		if name == "" || length < 0 {
			return nil, fmt.Errorf("malformed @SQ line in %s: %q", bam, line)
		}
		ws = append(ws, Window{Chrom: name, Start: 0, End: length})
	}
	if len(ws) == 0 {
		return nil, fmt.Errorf("no @SQ lines in header of %s", bam)
	}
	return ws, nil
}

// FromFai synthesizes whole-sequence windows from a reference .fai index,
// in the order the sequences appear in the fasta.
func FromFai(path string) ([]Window, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	idx, err := fai.ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("parsing fai %s: %w", path, err)
	}

	recs := make([]fai.Record, 0, len(idx))
	for _, r := range idx {
		recs = append(recs, r)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Start < recs[j].Start })

	ws := make([]Window, 0, len(recs))
	for _, r := range recs {
		ws = append(ws, Window{Chrom: r.Name, Start: 0, End: r.Length})
	}
	if len(ws) == 0 {
		return nil, fmt.Errorf("fai index %s contains no sequences", path)
	}
	return ws, nil
}
