package output

import "io"

// GenerateReport writes the report in the named format to a timestamped file
// in dir and returns its path.
func GenerateReport(report *Report, format, dir string) (string, error) {
	f, err := Lookup(format)
	if err != nil {
		return "", err
	}
	return WriteFormatted(f, report, dir, Extension(f))
}

// Render writes the report in the named format to w.
func Render(w io.Writer, report *Report, format string) error {
	f, err := Lookup(format)
	if err != nil {
		return err
	}
	data, err := f.Format(report)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
