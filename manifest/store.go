package manifest

import (
	"context"
	"os"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/wasset/assetid"
	"github.com/wippyai/wasset/errors"
)

// DefaultLockTimeout bounds how long Open waits for a contended lock.
const DefaultLockTimeout = 30 * time.Second

// OpenOptions configures Open.
type OpenOptions struct {
	// Generator mints identifiers for new paths. Defaults to assetid.Random.
	Generator assetid.Generator
	// LockTimeout bounds lock acquisition. Zero means DefaultLockTimeout;
	// a negative value fails immediately when the lock is held.
	LockTimeout time.Duration
	// ReadOnly takes a shared lock and makes Save fail.
	ReadOnly bool
}

// Store is a manifest file held under an advisory lock.
type Store struct {
	manifest *Manifest
	lock     *os.File
	path     string
	readOnly bool
}

// Open locks <path>.lock and loads the manifest at path.
func Open(ctx context.Context, path string, opts OpenOptions) (*Store, error) {
	timeout := opts.LockTimeout
	if timeout == 0 {
		timeout = DefaultLockTimeout
	}

	lockPath := path + ".lock"
	lf, err := acquire(ctx, lockPath, !opts.ReadOnly, timeout)
	if err != nil {
		return nil, err
	}

	m, err := Load(path, opts.Generator)
	if err != nil {
		return nil, multierr.Append(err, release(lf))
	}

	Logger().Debug("manifest opened",
		zap.String("path", path),
		zap.Int("entries", m.Len()),
		zap.Bool("read_only", opts.ReadOnly))

	return &Store{
		manifest: m,
		lock:     lf,
		path:     path,
		readOnly: opts.ReadOnly,
	}, nil
}

// Manifest returns the loaded manifest.
func (s *Store) Manifest() *Manifest {
	return s.manifest
}

// Path returns the manifest file path.
func (s *Store) Path() string {
	return s.path
}

// Save writes the manifest if it changed since loading.
func (s *Store) Save() error {
	if s.lock == nil {
		return errors.InvalidInput(errors.PhaseManifest, s.path, "store is closed", nil)
	}
	if s.readOnly {
		return errors.InvalidInput(errors.PhaseManifest, s.path, "store is read-only", nil)
	}
	if !s.manifest.Dirty() {
		return nil
	}
	if err := WriteFile(s.path, s.manifest); err != nil {
		return errors.New(errors.PhaseManifest, errors.KindManifestUnreadable).
			Path(s.path).
			Detail("save manifest").
			Cause(err).
			Build()
	}
	s.manifest.MarkClean()
	Logger().Info("manifest saved", zap.String("path", s.path), zap.Int("entries", s.manifest.Len()))
	return nil
}

// Close releases the lock. It does not save.
func (s *Store) Close() error {
	if s.lock == nil {
		return nil
	}
	err := release(s.lock)
	s.lock = nil
	return err
}

func acquire(ctx context.Context, lockPath string, exclusive bool, timeout time.Duration) (*os.File, error) {
	f, err := os.OpenFile(lockPath, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.Locked(lockPath, err)
	}

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	backoff := 5 * time.Millisecond
	for {
		ok, err := tryLock(f, exclusive)
		if err != nil {
			return nil, multierr.Append(errors.Locked(lockPath, err), f.Close())
		}
		if ok {
			return f, nil
		}
		if timeout < 0 || (!deadline.IsZero() && time.Now().After(deadline)) {
			return nil, multierr.Append(errors.Locked(lockPath, nil), f.Close())
		}

		Logger().Debug("waiting for manifest lock", zap.String("path", lockPath), zap.Duration("backoff", backoff))
		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, multierr.Append(errors.Locked(lockPath, ctx.Err()), f.Close())
		case <-t.C:
		}
		if backoff < 200*time.Millisecond {
			backoff *= 2
		}
	}
}

func release(f *os.File) error {
	return multierr.Append(unlock(f), f.Close())
}
