package repository

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/ghaggin/smartsplit/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	errTableFileIsDir = errors.New("table file is dir")
)

type Data struct {
	Values map[string]string `json:"values"`
}

type jsonRepo struct {
	path string
	log  *zap.Logger

	mu   sync.Mutex
	data *Data
}

type jsonParams struct {
	fx.In

	LC     fx.Lifecycle
	Config *config.Config
	Log    *zap.Logger
}

func NewJSON(p jsonParams) (Store, error) {
	r := newJSONRepo(p.Config.Store.Path, p.Log)

	p.LC.Append(fx.Hook{
		OnStop: r.stop,
	})

	return r, nil
}

func newJSONRepo(path string, log *zap.Logger) *jsonRepo {
	r := &jsonRepo{
		path: path,
		log:  log,
		data: &Data{Values: map[string]string{}},
	}

	err := r.readfile()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		// only log, the store starts empty and the file is rewritten on
		// the next write
		r.log.Warn("failed reading json store data file", zap.String("path", path), zap.Error(err))
	}
	if r.data.Values == nil {
		r.data.Values = map[string]string{}
	}

	return r
}

func (r *jsonRepo) stop(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writefile()
}

func (r *jsonRepo) readfile() error {
	finfo, err := os.Stat(r.path)
	if err != nil {
		return err
	}

	if finfo.IsDir() {
		return errTableFileIsDir
	}

	f, err := os.Open(r.path)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewDecoder(f).Decode(&r.data)
}

// writefile replaces the data file through a rename so a crash never leaves
// a half written credential behind.
func (r *jsonRepo) writefile() error {
	b, err := json.MarshalIndent(r.data, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), r.path)
}

func (r *jsonRepo) Get(_ context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.data.Values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (r *jsonRepo) Set(_ context.Context, key string, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, had := r.data.Values[key]
	r.data.Values[key] = value
	if err := r.writefile(); err != nil {
		if had {
			r.data.Values[key] = prev
		} else {
			delete(r.data.Values, key)
		}
		return err
	}
	return nil
}

func (r *jsonRepo) Remove(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, had := r.data.Values[key]
	if !had {
		return nil
	}
	delete(r.data.Values, key)
	if err := r.writefile(); err != nil {
		r.data.Values[key] = prev
		return err
	}
	return nil
}
