package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"storefront/internal/domain"
)

type fileRepo struct {
	dir string
}

// NewFile stores each cart as <dir>/<id>.json.
func NewFile(dir string) (Repository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cart dir: %w", err)
	}
	return &fileRepo{dir: dir}, nil
}

func (r *fileRepo) path(id string) (string, error) {
	if !ValidID(id) {
		return "", domain.ErrInvalidCartID
	}
	return filepath.Join(r.dir, id+".json"), nil
}

func (r *fileRepo) Get(_ context.Context, id string) (*domain.Cart, error) {
	p, err := r.path(id)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read cart %s: %w", id, err)
	}
	var cart domain.Cart
	if err := json.Unmarshal(b, &cart); err != nil {
		return nil, fmt.Errorf("decode cart %s: %w", id, err)
	}
	return &cart, nil
}

// Save writes through a temp file in the same directory and renames it over
// the target, so readers see either the old or the new document.
func (r *fileRepo) Save(_ context.Context, cart domain.Cart) error {
	p, err := r.path(cart.ID)
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(cart, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cart %s: %w", cart.ID, err)
	}

	tmp, err := os.CreateTemp(r.dir, "."+cart.ID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write cart %s: %w", cart.ID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close cart %s: %w", cart.ID, err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace cart %s: %w", cart.ID, err)
	}
	return nil
}

func (r *fileRepo) Delete(_ context.Context, id string) error {
	p, err := r.path(id)
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("remove cart %s: %w", id, err)
	}
	return nil
}
