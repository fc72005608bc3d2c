// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/Ruineo-Z/Spec2Test/services/datatypes"
	"github.com/Ruineo-Z/Spec2Test/services/report"
	"github.com/Ruineo-Z/Spec2Test/services/spec"
)

const (
	prefixDocument = "doc:"
	prefixAnalysis = "analysis:"
	prefixSuite    = "suite:"
	prefixRun      = "run:"
	prefixReport   = "report:"
)

// DocumentFormat records how an uploaded document was interpreted.
type DocumentFormat string

const (
	FormatOpenAPI  DocumentFormat = "openapi"
	FormatMarkdown DocumentFormat = "markdown"
)

// DocumentRecord is an uploaded API document plus its parse result.
// For Markdown documents Parsed is nil and Chunks holds the split
// sections instead.
type DocumentRecord struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Format  DocumentFormat `json:"format"`
	Content []byte         `json:"content"`

	Parsed *spec.Document `json:"parsed,omitempty"`
	Chunks []string       `json:"chunks,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Store is the typed persistence layer. Safe for concurrent use.
type Store struct {
	db *badger.DB

	closeOnce sync.Once
	stopGC    chan struct{}
	gcDone    chan struct{}
}

// Close stops background GC and closes the database.
// Safe to call multiple times.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopGC)
		<-s.gcDone
		err = s.db.Close()
	})
	return err
}

// ===== Documents =====

func (s *Store) PutDocument(rec *DocumentRecord) error {
	return s.put(prefixDocument+rec.ID, rec)
}

func (s *Store) GetDocument(id string) (*DocumentRecord, error) {
	return get[DocumentRecord](s, prefixDocument+id)
}

func (s *Store) ListDocuments() ([]*DocumentRecord, error) {
	return list[DocumentRecord](s, prefixDocument)
}

// DeleteDocument removes a document and its analysis. Suites generated
// from the document are kept; they reference it only by ID.
func (s *Store) DeleteDocument(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(prefixDocument + id)); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err := txn.Delete([]byte(prefixDocument + id)); err != nil {
			return err
		}
		err := txn.Delete([]byte(prefixAnalysis + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// ===== Analyses (keyed by document ID) =====

func (s *Store) PutAnalysis(documentID string, analysis *spec.Analysis) error {
	return s.put(prefixAnalysis+documentID, analysis)
}

func (s *Store) GetAnalysis(documentID string) (*spec.Analysis, error) {
	return get[spec.Analysis](s, prefixAnalysis+documentID)
}

// ===== Suites =====

func (s *Store) PutSuite(suite *datatypes.TestSuite) error {
	return s.put(prefixSuite+suite.ID, suite)
}

func (s *Store) GetSuite(id string) (*datatypes.TestSuite, error) {
	return get[datatypes.TestSuite](s, prefixSuite+id)
}

func (s *Store) ListSuites() ([]*datatypes.TestSuite, error) {
	return list[datatypes.TestSuite](s, prefixSuite)
}

func (s *Store) DeleteSuite(id string) error {
	return s.delete(prefixSuite + id)
}

// ===== Runs =====

func (s *Store) PutRun(run *datatypes.SuiteRun) error {
	return s.put(prefixRun+run.ID, run)
}

func (s *Store) GetRun(id string) (*datatypes.SuiteRun, error) {
	return get[datatypes.SuiteRun](s, prefixRun+id)
}

// ===== Reports =====

// PutReport stores a report keyed by its run ID, so callers holding a
// task's run_id can fetch the report directly.
func (s *Store) PutReport(rep *report.Report) error {
	return s.put(prefixReport+rep.RunID, rep)
}

// GetReport looks up the report of the given run.
func (s *Store) GetReport(runID string) (*report.Report, error) {
	return get[report.Report](s, prefixReport+runID)
}

// ===== Shared plumbing =====

func (s *Store) put(key string, v any) error {
	encoded, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), encoded)
	})
	if err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

func (s *Store) delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(key)); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		return txn.Delete([]byte(key))
	})
}

func get[T any](s *Store, key string) (*T, error) {
	var out T
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		})
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return &out, nil
}

func list[T any](s *Store, prefix string) ([]*T, error) {
	var out []*T
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var rec T
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			out = append(out, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	return out, nil
}
