package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	logx "announcer/pkg/logx"
)

// fileStore appends JSON Lines:
//   - <prefix>.audit.jsonl
//   - <prefix>.deliveries.jsonl
type fileStore struct {
	log logx.Logger

	mu         sync.Mutex
	auditFile  *os.File
	deliveries *os.File
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	prefix := filepath.Join(dir, base)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	af, err := openAppend(prefix + ".audit.jsonl")
	if err != nil {
		return nil, err
	}
	df, err := openAppend(prefix + ".deliveries.jsonl")
	if err != nil {
		_ = af.Close()
		return nil, err
	}
	log.Debug("file store opened", logx.String("prefix", prefix))
	return &fileStore{log: log, auditFile: af, deliveries: df}, nil
}

func openAppend(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	if s.auditFile != nil {
		errs = append(errs, s.auditFile.Close())
		s.auditFile = nil
	}
	if s.deliveries != nil {
		errs = append(errs, s.deliveries.Close())
		s.deliveries = nil
	}
	return errors.Join(errs...)
}

func (s *fileStore) AppendAudit(_ context.Context, e AuditEntry) error {
	stamp(&e.ID, &e.At)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.auditFile == nil {
		return errors.New("audit file closed")
	}
	return json.NewEncoder(s.auditFile).Encode(e)
}

func (s *fileStore) AppendDelivery(_ context.Context, r DeliveryRecord) error {
	stamp(&r.ID, &r.At)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deliveries == nil {
		return errors.New("delivery file closed")
	}
	return json.NewEncoder(s.deliveries).Encode(r)
}
