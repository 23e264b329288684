// Package results persists batch translation reports so earlier runs can be
// reviewed after the console output is gone.
package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"pdf-translator/internal/types"
)

// reportPrefix and reportExt name the on-disk report files.
const (
	reportPrefix = "batch-report-"
	reportExt    = ".json"
)

// ReportInfo identifies one stored batch report.
type ReportInfo struct {
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

// ReportManager stores batch summaries as JSON files in a base directory.
type ReportManager struct {
	baseDir string
}

// NewReportManager creates a manager rooted at baseDir. An empty baseDir
// defaults to pdf-translator-reports in the user's home directory.
func NewReportManager(baseDir string) (*ReportManager, error) {
	if baseDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		baseDir = filepath.Join(homeDir, "pdf-translator-reports")
	}

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	return &ReportManager{baseDir: baseDir}, nil
}

// GetBaseDir returns the directory reports are stored in.
func (m *ReportManager) GetBaseDir() string {
	return m.baseDir
}

// SaveSummary writes a batch summary as a timestamped report file and returns
// its path. Multiple reports within one second get a numeric suffix.
func (m *ReportManager) SaveSummary(summary *types.BatchSummary) (string, error) {
	if summary == nil {
		return "", types.NewAppError(types.ErrIO, "批处理汇总为空", nil)
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", types.NewAppError(types.ErrIO, "序列化批处理报告失败", err)
	}

	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(m.baseDir, reportPrefix+stamp+reportExt)
	for n := 1; ; n++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			break
		}
		path = filepath.Join(m.baseDir, fmt.Sprintf("%s%s-%d%s", reportPrefix, stamp, n, reportExt))
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", types.NewAppError(types.ErrIO, "写入批处理报告失败", err)
	}
	return path, nil
}

// LoadSummary reads a previously saved report.
func (m *ReportManager) LoadSummary(path string) (*types.BatchSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewAppError(types.ErrIO, "读取批处理报告失败", err)
	}

	var summary types.BatchSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrIO, "批处理报告格式无效", path, err)
	}
	return &summary, nil
}

// ListReports returns the stored reports, newest first.
func (m *ReportManager) ListReports() ([]ReportInfo, error) {
	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		return nil, err
	}

	var reports []ReportInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, reportPrefix) || !strings.HasSuffix(name, reportExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		reports = append(reports, ReportInfo{
			Path:      filepath.Join(m.baseDir, name),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(reports, func(i, j int) bool {
		if reports[i].CreatedAt.Equal(reports[j].CreatedAt) {
			return reports[i].Path > reports[j].Path
		}
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	return reports, nil
}

// Prune deletes all but the newest keep reports.
func (m *ReportManager) Prune(keep int) error {
	if keep < 0 {
		keep = 0
	}

	reports, err := m.ListReports()
	if err != nil {
		return err
	}

	for _, report := range reports[min(keep, len(reports)):] {
		if err := os.Remove(report.Path); err != nil {
			return err
		}
	}
	return nil
}
