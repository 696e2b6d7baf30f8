package storage

import (
	"context"
	"fmt"

	"corpuscrawler/pkg/types"
)

// RecordStore persists per-page audit rows. Records are write-only
// within a run; the crawler never reads them back to resume.
type RecordStore interface {
	SavePage(ctx context.Context, rec types.PageRecord) error
	Close() error
}

// Pipeline fans out processed pages to the corpus sink and, when
// configured, the record store. The corpus write comes first: the
// audit row is secondary and must not gate corpus output.
type Pipeline struct {
	corpus  *CorpusWriter
	records RecordStore
}

// NewPipeline constructs a storage pipeline. records may be nil.
func NewPipeline(corpus *CorpusWriter, records RecordStore) *Pipeline {
	return &Pipeline{corpus: corpus, records: records}
}

// Persist writes the page text to the corpus (skipped when empty) and
// the audit row to the record store if one is configured.
func (p *Pipeline) Persist(ctx context.Context, rec types.PageRecord) error {
	if p == nil {
		return nil
	}
	if rec.Text != "" && p.corpus != nil {
		if err := p.corpus.Append(rec.Text); err != nil {
			return fmt.Errorf("corpus sink: %w", err)
		}
	}
	if p.records != nil {
		if err := p.records.SavePage(ctx, rec); err != nil {
			return fmt.Errorf("record store: %w", err)
		}
	}
	return nil
}

// Close releases the pipeline's sinks.
func (p *Pipeline) Close() error {
	if p == nil {
		return nil
	}
	var err error
	if p.corpus != nil {
		err = p.corpus.Close()
	}
	if p.records != nil {
		if cerr := p.records.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
