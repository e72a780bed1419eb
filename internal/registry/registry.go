// Package registry deduplicates term records, assigns output identifiers,
// and serializes the final glossary to CSV.
package registry

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/wilsonlichina/pdf-term-extractor/internal/domain"
)

// utf8BOM keeps the CSV openable in spreadsheet tools that guess encodings.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// csvHeader is the fixed output schema.
var csvHeader = []string{"name", "ZH_CN", "EN_US"}

// Registry performs per-run deduplication and ID assignment. It holds no
// state across runs except the output file it writes.
type Registry struct {
	logger zerolog.Logger
}

// New creates a registry.
func New(logger zerolog.Logger) *Registry {
	return &Registry{
		logger: logger.With().Str("component", "registry").Logger(),
	}
}

// Register performs order-preserving deduplication on (source, target)
// pairs: later duplicates are dropped, the first occurrence kept. Records
// with an empty side are discarded.
func (r *Registry) Register(candidates []domain.TermRecord) domain.TermSet {
	seen := make(map[string]struct{}, len(candidates))
	set := make(domain.TermSet, 0, len(candidates))

	for _, rec := range candidates {
		if !rec.Valid() {
			continue
		}
		key := rec.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		set = append(set, rec)
	}

	if dropped := len(candidates) - len(set); dropped > 0 {
		r.logger.Debug().Int("dropped", dropped).Int("kept", len(set)).
			Msg("deduplicated term records")
	}
	return set
}

// AssignIDs produces output rows for the set. Sequential mode assigns 1..N
// in first-seen order; random-token mode assigns a fixed-length alphanumeric
// token per row, regenerated on collision within the batch. Token uniqueness
// is batch-local only.
func (r *Registry) AssignIDs(set domain.TermSet, mode domain.IDMode) ([]domain.OutputRow, error) {
	rows := make([]domain.OutputRow, 0, len(set))

	switch mode {
	case domain.IDModeSequential:
		for i, rec := range set {
			rows = append(rows, domain.OutputRow{
				ID: strconv.Itoa(i + 1),
				ZH: rec.Source,
				EN: rec.Target,
			})
		}
	case domain.IDModeRandomToken:
		used := make(map[string]struct{}, len(set))
		for _, rec := range set {
			token, err := uniqueToken(used)
			if err != nil {
				return nil, domain.ValidationError("failed to generate row token", err)
			}
			rows = append(rows, domain.OutputRow{
				ID: token,
				ZH: rec.Source,
				EN: rec.Target,
			})
		}
	default:
		return nil, domain.ValidationError(fmt.Sprintf("unknown id mode %q", mode), nil)
	}

	return rows, nil
}

// WriteCSV serializes the rows to path as UTF-8 with a byte-order mark,
// comma-delimited, fields quoted by encoding/csv when they carry the
// delimiter or a newline.
func (r *Registry) WriteCSV(rows []domain.OutputRow, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return domain.OutputWriteError(fmt.Sprintf("cannot create output file %s", path), err)
	}

	if _, err := f.Write(utf8BOM); err != nil {
		f.Close()
		return domain.OutputWriteError("cannot write byte-order mark", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		f.Close()
		return domain.OutputWriteError("cannot write CSV header", err)
	}
	for _, row := range rows {
		if err := w.Write([]string{row.ID, row.ZH, row.EN}); err != nil {
			f.Close()
			return domain.OutputWriteError("cannot write CSV row", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return domain.OutputWriteError("cannot flush CSV output", err)
	}
	if err := f.Close(); err != nil {
		return domain.OutputWriteError("cannot close output file", err)
	}

	r.logger.Info().Str("path", path).Int("rows", len(rows)).Msg("wrote glossary CSV")
	return nil
}
