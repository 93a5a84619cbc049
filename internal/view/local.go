package view

import (
	"context"

	"github.com/JonMunkholm/csvview/internal/core"
	"golang.org/x/text/language"
)

// LocalSource evaluates queries in process against a parsed table.
type LocalSource struct {
	table     *core.Table
	evaluator *core.Evaluator
}

// NewLocalSource returns a source over t collating for lang.
func NewLocalSource(t *core.Table, lang language.Tag) *LocalSource {
	return &LocalSource{table: t, evaluator: core.NewEvaluator(lang, 0)}
}

// Load implements Source.
func (s *LocalSource) Load(_ context.Context, q core.Query) (core.Result, error) {
	return s.evaluator.Evaluate(s.table, q), nil
}

// Summary describes the table the way an upload response would.
func (s *LocalSource) Summary(fileName string) core.UploadSummary {
	return core.UploadSummary{
		FileName:    fileName,
		Columns:     s.table.Columns,
		TotalRows:   s.table.TotalRows,
		InvalidRows: s.table.InvalidRows,
		Delimiter:   s.table.Delimiter,
		Errors:      s.table.ErrorPreview(core.ErrorPreviewLimit),
	}
}
