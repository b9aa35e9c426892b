// Package stats analyzes dice outcome sequences for distribution fairness.
//
// It computes the frequency table and chi-square goodness-of-fit statistic
// against a uniform distribution over six faces, along with descriptive
// measures useful when eyeballing a suspicious run of rolls.
package stats

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
)

// Faces is the number of die faces analyzed.
const Faces = 6

// ChiSquareCritical is the critical value at 5% significance with 5 degrees
// of freedom. A statistic at or above it rejects the fairness hypothesis.
const ChiSquareCritical = 11.070

// Summary holds the distribution analysis for one outcome sequence.
type Summary struct {
	Total     int
	Counts    [Faces]int // Counts[face-1] occurrences of each face
	ChiSquare float64
	Mean      float64
	Median    float64
	StdDev    float64 // sample standard deviation; 0 when Total < 2
	Min       int
	Max       int
	Low       int // faces 1-2
	Mid       int // faces 3-4
	High      int // faces 5-6
	MaxRun    int // longest run of one repeated face
}

// Fair reports whether the chi-square statistic fails to reject uniformity.
func (s Summary) Fair() bool {
	return s.ChiSquare < ChiSquareCritical
}

// Analyze computes the distribution summary for a sequence of outcomes.
// Every outcome must be in [1, Faces] and the sequence must be non-empty.
func Analyze(outcomes []int) (Summary, error) {
	if len(outcomes) == 0 {
		return Summary{}, fmt.Errorf("no outcomes to analyze")
	}

	summary := Summary{
		Total: len(outcomes),
		Min:   outcomes[0],
		Max:   outcomes[0],
	}

	sum := 0
	run := 1
	for i, outcome := range outcomes {
		if outcome < 1 || outcome > Faces {
			return Summary{}, fmt.Errorf("outcome %d at position %d is outside [1, %d]", outcome, i, Faces)
		}
		summary.Counts[outcome-1]++
		sum += outcome
		if outcome < summary.Min {
			summary.Min = outcome
		}
		if outcome > summary.Max {
			summary.Max = outcome
		}
		switch {
		case outcome <= 2:
			summary.Low++
		case outcome <= 4:
			summary.Mid++
		default:
			summary.High++
		}
		if i > 0 && outcome == outcomes[i-1] {
			run++
		} else {
			run = 1
		}
		if run > summary.MaxRun {
			summary.MaxRun = run
		}
	}

	expected := float64(summary.Total) / Faces
	for _, count := range summary.Counts {
		deviation := float64(count) - expected
		summary.ChiSquare += deviation * deviation / expected
	}

	summary.Mean = float64(sum) / float64(summary.Total)
	summary.Median = median(outcomes)
	summary.StdDev = sampleStdDev(outcomes, summary.Mean)

	return summary, nil
}

// ParseOutcomes extracts dice outcomes from free-form text. Any whitespace
// separated token that parses as an integer in [1, Faces] counts as one
// outcome; everything else (labels, hex checkpoints, punctuation) is skipped,
// so roller output can be piped in directly.
func ParseOutcomes(r io.Reader) ([]int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	var outcomes []int
	for scanner.Scan() {
		value, err := strconv.Atoi(scanner.Text())
		if err != nil || value < 1 || value > Faces {
			continue
		}
		outcomes = append(outcomes, value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan outcomes: %w", err)
	}
	return outcomes, nil
}

// WriteReport renders the summary as a human-readable report.
func WriteReport(w io.Writer, summary Summary) error {
	expected := float64(summary.Total) / Faces

	fmt.Fprintf(w, "Total rolls: %d\n\n", summary.Total)
	fmt.Fprintln(w, "Face | Count | Percentage | Expected | Deviation")
	fmt.Fprintln(w, "--------------------------------------------------")
	for face := 1; face <= Faces; face++ {
		count := summary.Counts[face-1]
		percentage := float64(count) / float64(summary.Total) * 100
		fmt.Fprintf(w, "  %d  | %5d |   %5.1f%%   | %8.1f | %+8.1f\n",
			face, count, percentage, expected, float64(count)-expected)
	}
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Chi-square statistic: %.3f\n", summary.ChiSquare)
	fmt.Fprintf(w, "Critical value (5%% significance, 5 df): %.3f\n", ChiSquareCritical)
	if summary.Fair() {
		fmt.Fprintln(w, "Distribution appears fair (fails to reject uniformity)")
	} else {
		fmt.Fprintln(w, "Distribution may not be fair (rejects uniformity)")
	}

	fmt.Fprintf(w, "\nMean: %.3f (expected 3.500)\n", summary.Mean)
	fmt.Fprintf(w, "Median: %.1f (expected 3.500)\n", summary.Median)
	fmt.Fprintf(w, "Standard deviation: %.3f (expected ~1.708)\n", summary.StdDev)
	fmt.Fprintf(w, "Min: %d, Max: %d\n", summary.Min, summary.Max)

	fmt.Fprintf(w, "\nLow (1-2): %d rolls (%.1f%%)\n", summary.Low, percent(summary.Low, summary.Total))
	fmt.Fprintf(w, "Mid (3-4): %d rolls (%.1f%%)\n", summary.Mid, percent(summary.Mid, summary.Total))
	fmt.Fprintf(w, "High (5-6): %d rolls (%.1f%%)\n", summary.High, percent(summary.High, summary.Total))
	if _, err := fmt.Fprintf(w, "\nLongest run of one face: %d\n", summary.MaxRun); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func percent(part, total int) float64 {
	return float64(part) / float64(total) * 100
}

func median(outcomes []int) float64 {
	sorted := append([]int{}, outcomes...)
	sort.Ints(sorted)
	middle := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[middle])
	}
	return float64(sorted[middle-1]+sorted[middle]) / 2
}

func sampleStdDev(outcomes []int, mean float64) float64 {
	if len(outcomes) < 2 {
		return 0
	}
	var sum float64
	for _, outcome := range outcomes {
		deviation := float64(outcome) - mean
		sum += deviation * deviation
	}
	return math.Sqrt(sum / float64(len(outcomes)-1))
}
