package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"pothole-scan/internal/domain/entity"
	"pothole-scan/internal/domain/port"
)

// JSONWriter пишет отчёт одним JSON-массивом
type JSONWriter struct {
	logger *zap.Logger
}

// NewJSONWriter создаёт writer отчётов
func NewJSONWriter(logger *zap.Logger) *JSONWriter {
	return &JSONWriter{logger: logger.Named("report")}
}

// Write перезаписывает destination целиком через временный файл в том же каталоге.
// Пустой список пишется как [].
func (w *JSONWriter) Write(ctx context.Context, records []entity.DetectionRecord, destination string) (err error) {
	_ = ctx
	if records == nil {
		records = []entity.DetectionRecord{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}

	dir := filepath.Dir(destination)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}

	// старый отчёт заменяется только готовым файлом
	tmp, err := os.CreateTemp(dir, ".report-*.json")
	if err != nil {
		return fmt.Errorf("create temp report: %w", err)
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, os.Remove(tmp.Name()))
		}
	}()

	_, err = tmp.Write(append(data, '\n'))
	err = multierr.Append(err, tmp.Close())
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod report: %w", err)
	}
	if err = os.Rename(tmp.Name(), destination); err != nil {
		return fmt.Errorf("replace report: %w", err)
	}

	w.logger.Info("report written", zap.String("path", destination), zap.Int("records", len(records)))
	return nil
}

// Проверка реализации интерфейса
var _ port.ReportWriter = (*JSONWriter)(nil)
