package sv

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// InsertStats are the derived parameters the SV caller needs for one paired
// library: insert-size mean and standard deviation plus the maximum observed
// read length.
type InsertStats struct {
	Mean       float64
	Stdev      float64
	ReadLength int
}

// EstimateOpts bounds the sampling. The insert-size sample is drawn from the
// middle of the stream: the first Skip non-secondary records are discarded,
// the next Sample are used.
type EstimateOpts struct {
	ReadLengthSample int
	Skip             int
	Sample           int
}

func (o *EstimateOpts) defaults() {
	if o.ReadLengthSample == 0 {
		o.ReadLengthSample = 10000
	}
	if o.Skip == 0 {
		o.Skip = 5000000
	}
	if o.Sample == 0 {
		o.Sample = 5000000
	}
}

// Histogram counts observed insert sizes; the SV caller consumes it as a
// normalized frequency file.
type Histogram map[int]int

// Write emits the histogram as size<TAB>frequency lines in ascending size
// order, frequencies normalized to sum to one.
func (h Histogram) Write(path string) error {
	total := 0
	sizes := make([]int, 0, len(h))
	for size, n := range h {
		sizes = append(sizes, size)
		total += n
	}
	if total == 0 {
		return fmt.Errorf("histogram is empty")
	}
	sort.Ints(sizes)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, size := range sizes {
		fmt.Fprintf(w, "%d\t%.12f\n", size, float64(h[size])/float64(total))
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

const (
	flagSecondary     = 0x100
	flagSupplementary = 0x800
)

// Estimate streams the alignment file once and derives read length and
// insert-size statistics from a bounded sample. Read length comes from the
// first ReadLengthSample primary records; insert sizes from positive template
// lengths in the middle-of-stream sample window. A stream that ends before
// the skip window is exhausted yields statistics from the most recent
// Sample inserts instead of failing.
func Estimate(samtools, bam string, opts EstimateOpts) (InsertStats, Histogram, error) {
	opts.defaults()

	cmd := exec.Command(samtools, "view", bam)
	cmd.Stderr = os.Stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return InsertStats{}, nil, err
	}
	if err := cmd.Start(); err != nil {
		return InsertStats{}, nil, fmt.Errorf("starting %s view %s: %w", samtools, bam, err)
	}

	var (
		readLength  int
		primarySeen int
		nonSecSeen  int
		inserts     []float64
		head        []float64
		headIdx     int
	)

	sc := bufio.NewScanner(stdout)
	sc.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)
	for sc.Scan() {
		fields := strings.SplitN(sc.Text(), "\t", 11)
		if len(fields) < 10 {
			continue
		}
		flag, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}

		if primarySeen < opts.ReadLengthSample && flag&(flagSecondary|flagSupplementary) == 0 {
			primarySeen++
			if l := len(fields[9]); l > readLength && fields[9] != "*" {
				readLength = l
			}
		}

		if flag&flagSecondary != 0 {
			continue
		}
		nonSecSeen++
		tlen, tlenErr := strconv.Atoi(fields[8])
		if tlenErr == nil && tlen > 0 {
			if nonSecSeen <= opts.Skip {
				// remembered so a stream shorter than the skip window
				// still yields statistics from its tail
				if len(head) < opts.Sample {
					head = append(head, float64(tlen))
				} else {
					head[headIdx] = float64(tlen)
					headIdx = (headIdx + 1) % opts.Sample
				}
			} else if len(inserts) < opts.Sample {
				inserts = append(inserts, float64(tlen))
			}
		}
		if nonSecSeen >= opts.Skip+opts.Sample && primarySeen >= opts.ReadLengthSample {
			break
		}
	}
	if err := sc.Err(); err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return InsertStats{}, nil, fmt.Errorf("reading %s: %w", bam, err)
	}
	// the stream may be abandoned mid-file once the sample is full
	stdout.Close()
	if waitErr := cmd.Wait(); waitErr != nil && nonSecSeen < opts.Skip+opts.Sample {
		return InsertStats{}, nil, fmt.Errorf("%s view %s: %w", samtools, bam, waitErr)
	}

	if readLength == 0 {
		return InsertStats{}, nil, fmt.Errorf("no primary records in %s", bam)
	}
	if len(inserts) == 0 {
		inserts = head
	}
	if len(inserts) == 0 {
		return InsertStats{}, nil, fmt.Errorf("no paired records with positive insert size in %s", bam)
	}

	hist := Histogram{}
	for _, v := range inserts {
		hist[int(v)]++
	}

	stats := InsertStats{
		Mean:       stat.Mean(inserts, nil),
		ReadLength: readLength,
	}
	if len(inserts) > 1 {
		stats.Stdev = stat.StdDev(inserts, nil)
	}
	return stats, hist, nil
}
