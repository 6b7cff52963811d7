// Package storage guarda los archivos subidos en disco local.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/climatecoin/carbon-api/internal/application/carbon"
	"github.com/climatecoin/carbon-api/internal/domain"
	"github.com/climatecoin/carbon-api/internal/domain/entity"
)

var _ carbon.FileStorage = (*LocalStorage)(nil)

// allowedMimes tipos aceptados para documentos de carbono.
var allowedMimes = []string{"application/pdf", "image/png", "image/jpeg"}

// LocalStorage escribe bajo dir con nombre <uuid><ext>; el nombre original queda en entity.File.
type LocalStorage struct {
	dir      string
	maxBytes int64
}

// NewLocalStorage crea el directorio si no existe. maxMB <= 0 desactiva el límite.
func NewLocalStorage(dir string, maxMB int) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: crear %s: %w", dir, err)
	}
	return &LocalStorage{dir: dir, maxBytes: int64(maxMB) << 20}, nil
}

// Save valida tamaño y tipo real del contenido y lo escribe en disco.
func (s *LocalStorage) Save(_ context.Context, name string, data []byte) (*entity.File, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: archivo %q vacío", domain.ErrInvalidInput, name)
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: archivo %q supera %d bytes", domain.ErrInvalidInput, name, s.maxBytes)
	}
	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), allowedMimes...) {
		return nil, fmt.Errorf("%w: tipo %s no permitido", domain.ErrInvalidInput, mt.String())
	}

	id := uuid.New().String()
	rel := id + mt.Extension()
	if err := os.WriteFile(filepath.Join(s.dir, rel), data, 0o644); err != nil {
		return nil, fmt.Errorf("storage: escribir %s: %w", rel, err)
	}
	return &entity.File{
		ID:        id,
		Name:      filepath.Base(name),
		Mime:      mt.String(),
		Size:      int64(len(data)),
		Path:      rel,
		CreatedAt: time.Now(),
	}, nil
}

// Open abre el archivo; rechaza rutas que escapen del directorio de uploads.
func (s *LocalStorage) Open(_ context.Context, f *entity.File) (io.ReadCloser, error) {
	rel, err := s.resolve(f)
	if err != nil {
		return nil, err
	}
	fh, err := os.Open(filepath.Join(s.dir, rel))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("storage: abrir %s: %w", rel, err)
	}
	return fh, nil
}

// Remove borra el archivo del disco. Un archivo inexistente no es error.
func (s *LocalStorage) Remove(_ context.Context, f *entity.File) error {
	rel, err := s.resolve(f)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, rel)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: borrar %s: %w", rel, err)
	}
	return nil
}

func (s *LocalStorage) resolve(f *entity.File) (string, error) {
	rel := filepath.Clean(f.Path)
	if filepath.IsAbs(rel) || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: ruta inválida", domain.ErrInvalidInput)
	}
	return rel, nil
}
