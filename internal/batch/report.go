package batch

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ironsheep/particle-tracker-mcp/internal/imaging"
	"github.com/ironsheep/particle-tracker-mcp/internal/tracker"
)

// Metadata describes a batch run.
type Metadata struct {
	RunID        string         `json:"run_id"`
	Started      time.Time      `json:"started"`
	Detector     tracker.Kind   `json:"detector"`
	Config       tracker.Config `json:"config"`
	Width        int            `json:"width"`
	Height       int            `json:"height"`
	Frames       int            `json:"frames"`
	Binning      int            `json:"software_binning"`
	Median       int            `json:"median,omitempty"`
	SubtractMean bool           `json:"subtract_mean,omitempty"`
	ROI          *imaging.ROI   `json:"roi,omitempty"`
	Protocol     []string       `json:"protocol,omitempty"`
}

// FrameError records a frame that could not be processed.
type FrameError struct {
	Frame  int    `json:"frame"`
	Source string `json:"source"`
	Err    string `json:"error"`
}

// Report is the outcome of a batch run.
type Report struct {
	Metadata  Metadata          `json:"metadata"`
	Columns   []tracker.Column  `json:"columns"`
	Features  []tracker.Feature `json:"-"`
	Processed int               `json:"processed"`
	Failed    []FrameError      `json:"failed,omitempty"`
}

// Table returns the features as a column table.
func (r *Report) Table() tracker.Table { return tracker.NewTable(r.Columns, r.Features) }

// field is one metadata key/value pair.
type field struct {
	key, value string
}

// fields lists the metadata in export order. Detector options follow the
// fixed keys in alphabetical order.
func (m *Metadata) fields() ([]field, error) {
	out := []field{
		{"run_id", m.RunID},
		{"started", m.Started.Format(time.RFC3339)},
		{"dimx", strconv.Itoa(m.Width)},
		{"dimy", strconv.Itoa(m.Height)},
		{"frames", strconv.Itoa(m.Frames)},
		{"software_binning", strconv.Itoa(m.Binning)},
	}
	if m.Median > 1 {
		out = append(out, field{"median", strconv.Itoa(m.Median)})
	}
	if m.SubtractMean {
		out = append(out, field{"subtract_mean", "true"})
	}
	if m.ROI != nil {
		out = append(out,
			field{"roi_x", strconv.Itoa(m.ROI.X)},
			field{"roi_y", strconv.Itoa(m.ROI.Y)},
			field{"roi_w", strconv.Itoa(m.ROI.W)},
			field{"roi_h", strconv.Itoa(m.ROI.H)},
		)
	}
	out = append(out, field{"detector", m.Detector.String()})

	if m.Config != nil {
		raw, err := json.Marshal(m.Config)
		if err != nil {
			return nil, errors.Wrap(err, "encode detector options")
		}
		var opts map[string]any
		if err := json.Unmarshal(raw, &opts); err != nil {
			return nil, errors.Wrap(err, "decode detector options")
		}
		keys := make([]string, 0, len(opts))
		for k := range opts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, field{k, fmt.Sprint(opts[k])})
		}
	}
	return out, nil
}

// WriteCSV writes the protocol and metadata as '#' lines, then the header and
// feature rows.
func WriteCSV(w io.Writer, r *Report) error {
	bw := bufio.NewWriter(w)
	for _, line := range r.Metadata.Protocol {
		fmt.Fprintf(bw, "# %s\n", line)
	}
	fields, err := r.Metadata.fields()
	if err != nil {
		return err
	}
	for _, f := range fields {
		fmt.Fprintf(bw, "# %s: %s\n", f.key, f.value)
	}

	cw := csv.NewWriter(bw)
	header := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		header[i] = string(c)
	}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "write header")
	}
	row := make([]string, len(r.Columns))
	for i := range r.Features {
		for j, c := range r.Columns {
			row[j] = r.Features[i].Format(c)
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "write row %d", i)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, "flush csv")
	}
	return errors.Wrap(bw.Flush(), "flush csv")
}

// WriteCSVFile writes the report to path.
func WriteCSVFile(path string, r *Report) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create csv")
	}
	if err := WriteCSV(f, r); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "close csv")
}

// readProtocol returns the lines of a protocol file without line endings.
func readProtocol(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read protocol")
	}
	text := strings.TrimRight(strings.ReplaceAll(string(raw), "\r\n", "\n"), "\n")
	if text == "" {
		return nil, nil
	}
	return strings.Split(text, "\n"), nil
}
