package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/patient-summaries/internal/domain"
)

// AllSummariesName is the base name of the unrestricted summary file.
const AllSummariesName = "All_patient_summaries"

// FileExporter writes summary tables into an output directory
type FileExporter struct {
	logger *logrus.Logger
	dir    string
	format string
}

// NewFileExporter creates an exporter writing format files under dir
func NewFileExporter(logger *logrus.Logger, dir, format string) *FileExporter {
	format = strings.ToLower(format)
	if format == "" {
		format = FormatTSV
	}
	return &FileExporter{logger: logger, dir: dir, format: format}
}

// Export writes the full summary, one file per configured study and the
// single-patient file when reports.Single is set. It returns the paths
// written, in that order.
func (e *FileExporter) Export(summary *domain.WideTable, reports domain.ReportsConfig) ([]string, error) {
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var written []string
	write := func(name string, t *domain.WideTable) error {
		path, err := e.writeFile(name, t)
		if err != nil {
			return err
		}
		written = append(written, path)
		return nil
	}

	if err := write(AllSummariesName, summary); err != nil {
		return written, err
	}

	studies := make([]string, 0, len(reports.Studies))
	for s := range reports.Studies {
		studies = append(studies, s)
	}
	sort.Strings(studies)
	for _, study := range studies {
		ids := make(map[int64]bool, len(reports.Studies[study]))
		for _, id := range reports.Studies[study] {
			ids[id] = true
		}
		if err := write(strings.ToUpper(study)+"_summaries", summary.Filter(ids)); err != nil {
			return written, err
		}
	}

	if reports.Single > 0 {
		single := summary.Filter(map[int64]bool{reports.Single: true})
		if single.Len() == 0 {
			e.logger.WithField("participant_id", reports.Single).Warn("Single patient report has no visits")
		}
		if err := write(strconv.FormatInt(reports.Single, 10)+"_summary", single); err != nil {
			return written, err
		}
	}

	return written, nil
}

func (e *FileExporter) writeFile(name string, t *domain.WideTable) (string, error) {
	path := filepath.Join(e.dir, name+"."+e.format)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := WriteDelimited(f, t, Comma(e.format)); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}

	e.logger.WithFields(logrus.Fields{
		"path": path,
		"rows": t.Len(),
	}).Info("Wrote patient summary file")
	return path, nil
}
