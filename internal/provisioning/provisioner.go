package provisioning

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// dirPermissions is the permission mode for the credentials directory.
const dirPermissions = 0700

// Logger defines the logging interface used by the provisioner.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// FileProvisioner reads broker credentials from a YAML file written by an
// external provisioning tool.
type FileProvisioner struct {
	path   string
	logger Logger
}

// NewFileProvisioner watches path for credentials.
func NewFileProvisioner(path string) *FileProvisioner {
	return &FileProvisioner{path: path, logger: noopLogger{}}
}

// SetLogger sets the logger for the provisioner.
func (p *FileProvisioner) SetLogger(logger Logger) {
	p.logger = logger
}

// Path returns the credentials file path.
func (p *FileProvisioner) Path() string {
	return p.path
}

// Load reads and validates the credentials file.
func (p *FileProvisioner) Load() (*Credentials, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotProvisioned
		}
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	return &creds, nil
}

// Wait blocks until valid credentials exist, then returns them. It returns
// immediately if the file is already in place, and otherwise watches the
// file's directory. An invalid file is logged and waited past.
func (p *FileProvisioner) Wait(ctx context.Context) (*Credentials, error) {
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("creating credentials directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Watch before the first check so a file written in between is seen.
	if err := watcher.Add(dir); err != nil {
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	if creds, ok := p.tryLoad(); ok {
		return creds, nil
	}
	p.logger.Info("waiting for provisioning", "path", p.path)

	target := filepath.Clean(p.path)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil, errors.New("provisioning: watcher closed")
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			if creds, ok := p.tryLoad(); ok {
				return creds, nil
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil, errors.New("provisioning: watcher closed")
			}
			p.logger.Warn("credentials watcher error", "error", err)
		}
	}
}

func (p *FileProvisioner) tryLoad() (*Credentials, bool) {
	creds, err := p.Load()
	switch {
	case err == nil:
		p.logger.Info("provisioning credentials found", "broker", creds.Broker.Host)
		return creds, true
	case errors.Is(err, ErrNotProvisioned):
	default:
		p.logger.Warn("credentials file unusable", "path", p.path, "error", err)
	}
	return nil, false
}

// Reset deletes the credentials file. A missing file is not an error.
func (p *FileProvisioner) Reset(_ context.Context) error {
	if err := os.Remove(p.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing credentials: %w", err)
	}
	return nil
}
