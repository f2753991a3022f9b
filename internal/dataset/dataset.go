package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/williampepple1/openvc-scraper/pkg/models"
)

// Sink receives records as they are scraped. Each Append is durable on return.
type Sink interface {
	Append(ctx context.Context, rec models.InvestorRecord) error
}

// Dataset is an append-only ordered collection of investor records
type Dataset struct {
	store *Store
	id    string
	name  string

	mu      sync.Mutex
	seq     int64
	seqRead bool
}

// ID returns the dataset id
func (d *Dataset) ID() string { return d.id }

// Name returns the dataset name
func (d *Dataset) Name() string { return d.name }

// Append stores rec after every previously appended item
func (d *Dataset) Append(ctx context.Context, rec models.InvestorRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.seqRead {
		if err := d.loadSeq(ctx); err != nil {
			return err
		}
	}

	db := d.store.db
	_, err = db.ExecContext(ctx,
		db.Rebind(`INSERT INTO dataset_items (dataset_id, seq, data, created_at) VALUES (?, ?, ?, ?)`),
		d.id, d.seq+1, string(data), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to append to dataset %s: %w", d.name, err)
	}
	d.seq++
	return nil
}

func (d *Dataset) loadSeq(ctx context.Context) error {
	db := d.store.db
	var seq int64
	err := db.GetContext(ctx, &seq,
		db.Rebind(`SELECT COALESCE(MAX(seq), 0) FROM dataset_items WHERE dataset_id = ?`), d.id)
	if err != nil {
		return fmt.Errorf("failed to read dataset sequence: %w", err)
	}
	d.seq = seq
	d.seqRead = true
	return nil
}

// Items returns up to limit records starting at offset, in insertion order.
// A limit of zero or less returns everything after offset.
func (d *Dataset) Items(ctx context.Context, offset, limit int) ([]models.InvestorRecord, error) {
	if offset < 0 {
		offset = 0
	}
	db := d.store.db
	q := `SELECT data FROM dataset_items WHERE dataset_id = ? ORDER BY seq`
	args := []any{d.id}
	if limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	} else if offset > 0 {
		q += ` LIMIT -1 OFFSET ?`
		if db.DriverName() == "postgres" {
			q = `SELECT data FROM dataset_items WHERE dataset_id = ? ORDER BY seq OFFSET ?`
		}
		args = append(args, offset)
	}

	var rows []string
	if err := db.SelectContext(ctx, &rows, db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("failed to read dataset %s: %w", d.name, err)
	}

	records := make([]models.InvestorRecord, 0, len(rows))
	for _, raw := range rows {
		var rec models.InvestorRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode dataset item: %w", err)
		}
		records = append(records, rec.Normalize())
	}
	return records, nil
}

// GetAll returns every record in insertion order
func (d *Dataset) GetAll(ctx context.Context) ([]models.InvestorRecord, error) {
	return d.Items(ctx, 0, 0)
}

// Count returns the number of stored records
func (d *Dataset) Count(ctx context.Context) (int, error) {
	db := d.store.db
	var n int
	if err := db.GetContext(ctx, &n,
		db.Rebind(`SELECT COUNT(*) FROM dataset_items WHERE dataset_id = ?`), d.id); err != nil {
		return 0, fmt.Errorf("failed to count dataset %s: %w", d.name, err)
	}
	return n, nil
}

// Purge removes every record from the dataset
func (d *Dataset) Purge(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	db := d.store.db
	if _, err := db.ExecContext(ctx,
		db.Rebind(`DELETE FROM dataset_items WHERE dataset_id = ?`), d.id); err != nil {
		return fmt.Errorf("failed to purge dataset %s: %w", d.name, err)
	}
	d.seq = 0
	d.seqRead = true
	return nil
}
