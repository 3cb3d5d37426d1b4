// Package extract unpacks monthly kline archives into row batches.
package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"binanceDataCollector/internal/domain"
	"binanceDataCollector/internal/ports"
)

const payloadSuffix = ".csv"

// Extractor decodes archives in memory and mirrors each extracted payload to
// a scratch directory owned by the collection run.
type Extractor struct {
	scratchDir string
	logger     ports.Logger
}

// New creates an Extractor writing payloads under scratchDir. The directory
// is created if missing; its removal is the caller's responsibility.
func New(scratchDir string, logger ports.Logger) (*Extractor, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for extractor")
	}
	if err := os.MkdirAll(scratchDir, 0755); err != nil {
		return nil, fmt.Errorf("creating scratch directory %s: %w", scratchDir, err)
	}
	return &Extractor{scratchDir: scratchDir, logger: logger}, nil
}

// Extract decodes one archive and returns its rows as a batch. An archive
// with no tabular payload inside is an expected miss and returns (nil, nil).
func (e *Extractor) Extract(ctx context.Context, raw []byte, ref domain.ArchiveRef) (*domain.Batch, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", ref.FileName(), err)
	}

	for _, f := range zr.File {
		if !strings.HasSuffix(f.Name, payloadSuffix) {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening payload %s in %s: %w", f.Name, ref.FileName(), err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading payload %s in %s: %w", f.Name, ref.FileName(), err)
		}

		// Mirror the payload so the merge stage can be re-run against it.
		scratchPath := filepath.Join(e.scratchDir, filepath.Base(f.Name))
		if err := os.WriteFile(scratchPath, data, 0644); err != nil {
			return nil, fmt.Errorf("writing scratch payload %s: %w", scratchPath, err)
		}

		rows, err := parseRows(data)
		if err != nil {
			return nil, fmt.Errorf("parsing payload %s in %s: %w", f.Name, ref.FileName(), err)
		}

		e.logger.Debug(ctx, "Archive extracted", map[string]interface{}{
			"archive": ref.FileName(),
			"payload": f.Name,
			"rows":    len(rows),
		})
		return &domain.Batch{Source: ref.FileName(), Rows: rows}, nil
	}

	e.logger.Warn(ctx, "Archive contains no tabular payload", map[string]interface{}{
		"archive": ref.FileName(),
	})
	return nil, nil
}

// parseRows reads the delimited payload without imposing a field count;
// schema validation happens at merge time.
func parseRows(data []byte) ([]domain.Row, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	var rows []domain.Row
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, domain.Row(rec))
	}
	return rows, nil
}
