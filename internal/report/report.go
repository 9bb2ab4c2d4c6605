package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"sensor-analytics/internal/data"
	"sensor-analytics/pkg/models"
)

// DefaultHead is how many rows the previews show.
const DefaultHead = 5

// Writer prints table previews and summaries.
type Writer struct {
	out  io.Writer
	head int
}

func NewWriter(out io.Writer, head int) *Writer {
	if head <= 0 {
		head = DefaultHead
	}
	return &Writer{out: out, head: head}
}

func (w *Writer) table(title string, fn func(tw *tabwriter.Writer)) error {
	if _, err := fmt.Fprintf(w.out, "\n== %s ==\n", title); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fn(tw)
	return tw.Flush()
}

func row(tw *tabwriter.Writer, cells ...any) {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(tw, strings.Join(parts, "\t")+"\t")
}

func f2(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.2f", v)
}

// Sensors previews the first rows of the sensor table: the timestamp, then
// the numeric columns as the frame holds them.
func (w *Writer) Sensors(title string, records []models.SensorRecord) error {
	f := data.SensorFrame(records)
	return w.table(title, func(tw *tabwriter.Writer) {
		header := []any{"", "timestamp"}
		for _, c := range f.Columns() {
			header = append(header, c)
		}
		row(tw, header...)
		for i, vals := range f.Head(w.head) {
			cells := []any{i, records[i].Timestamp.Format(models.TimestampLayout)}
			for _, v := range vals {
				cells = append(cells, v)
			}
			row(tw, cells...)
		}
	})
}

// Users previews the first user profiles with the size of their batch.
func (w *Writer) Users(users []models.UserRecord) error {
	return w.table("users", func(tw *tabwriter.Writer) {
		row(tw, "", "first_name", "last_name", data.ColAge, "gender", "username", "email", "sensor_data")
		for i, u := range users {
			if i == w.head {
				break
			}
			row(tw, i, u.FirstName, u.LastName, u.Age, u.Gender, u.Username, u.Email, fmt.Sprintf("[%d records]", len(u.SensorData)))
		}
	})
}

// Devices lists the registered devices.
func (w *Writer) Devices(devices []models.Device) error {
	return w.table("devices", func(tw *tabwriter.Writer) {
		row(tw, "id", "type", "owner")
		for i, d := range devices {
			if i == w.head {
				break
			}
			row(tw, d.ID, d.Type, d.Owner)
		}
	})
}

// Describe prints a summary transposed the usual way: statistics down, columns across.
func (w *Writer) Describe(title string, s data.Summary) error {
	return w.table(title, func(tw *tabwriter.Writer) {
		header := []any{""}
		for _, c := range s.Columns {
			header = append(header, c.Name)
		}
		row(tw, header...)
		stats := []struct {
			name string
			get  func(data.ColumnSummary) string
		}{
			{"count", func(c data.ColumnSummary) string { return fmt.Sprintf("%d", c.Count) }},
			{"mean", func(c data.ColumnSummary) string { return f2(c.Mean) }},
			{"std", func(c data.ColumnSummary) string { return f2(c.Std) }},
			{"min", func(c data.ColumnSummary) string { return f2(c.Min) }},
			{"25%", func(c data.ColumnSummary) string { return f2(c.Q25) }},
			{"50%", func(c data.ColumnSummary) string { return f2(c.Q50) }},
			{"75%", func(c data.ColumnSummary) string { return f2(c.Q75) }},
			{"max", func(c data.ColumnSummary) string { return f2(c.Max) }},
		}
		for _, st := range stats {
			cells := []any{st.name}
			for _, c := range s.Columns {
				cells = append(cells, st.get(c))
			}
			row(tw, cells...)
		}
	})
}

// Correlation prints the matrix to two decimals.
func (w *Writer) Correlation(c data.Correlation) error {
	return w.table("correlation", func(tw *tabwriter.Writer) {
		header := []any{""}
		for _, n := range c.Names {
			header = append(header, n)
		}
		row(tw, header...)
		if c.Matrix == nil {
			return
		}
		for i, n := range c.Names {
			cells := []any{n}
			for j := range c.Names {
				cells = append(cells, f2(c.Matrix.At(i, j)))
			}
			row(tw, cells...)
		}
	})
}

// Counts prints a value count table.
func (w *Writer) Counts(title string, counts []data.Count) error {
	return w.table(title, func(tw *tabwriter.Writer) {
		for _, c := range counts {
			row(tw, c.Value, c.Count)
		}
	})
}

// All prints every preview in the order a reader walks through a run.
func (w *Writer) All(ds *models.Dataset, a *data.Analysis) error {
	steps := []func() error{
		func() error { return w.Sensors("sensors", ds.Sensors) },
		func() error { return w.Users(ds.Users) },
		func() error { return w.Describe("sensor summary", a.SensorSummary) },
		func() error { return w.Describe("user summary", a.UserSummary) },
		func() error { return w.Correlation(a.Correlation) },
		func() error { return w.Counts("gender", a.GenderCounts) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}
