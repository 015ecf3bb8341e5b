// Package whisper loads whisper.cpp ggml models and transcribes WAV
// files with the whisper.cpp command line tool.
package whisper

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"astronaut-companion/internal/infra"
)

// ggmlMagic is the little-endian header word of every ggml weight file.
const ggmlMagic = 0x67676d6c

// Model is a whisper weight file that is present on disk and whose header
// has been verified.
type Model struct {
	Name string
	Path string
}

// ModelFileName maps a model name such as "tiny" or "base.en" to the
// file name published by whisper.cpp.
func ModelFileName(name string) string {
	return "ggml-" + name + ".bin"
}

// ModelStore caches models in a directory and downloads missing ones.
type ModelStore struct {
	dir        string
	baseURL    string
	retry      infra.RetryConfig
	httpClient *http.Client
	logger     *slog.Logger
}

func NewModelStore(dir, baseURL string, retry infra.RetryConfig, logger *slog.Logger) *ModelStore {
	return &ModelStore{
		dir:        dir,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		retry:      retry,
		httpClient: &http.Client{Timeout: 15 * time.Minute},
		logger:     logger,
	}
}

// Load returns the named model, fetching it on first use.
func (s *ModelStore) Load(ctx context.Context, name string) (*Model, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("invalid model name %q", name)
	}

	path := filepath.Join(s.dir, ModelFileName(name))

	_, err := os.Stat(path)
	switch {
	case err == nil:
		s.logger.Debug("using cached model", "model", name, "path", path)
	case errors.Is(err, fs.ErrNotExist):
		if err := s.download(ctx, name, path); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("checking model file: %w", err)
	}

	if err := verifyModel(path); err != nil {
		return nil, err
	}

	return &Model{Name: name, Path: path}, nil
}

func (s *ModelStore) download(ctx context.Context, name, path string) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating model dir: %w", err)
	}

	url := s.baseURL + "/" + ModelFileName(name)
	s.logger.Info("downloading whisper model", "model", name, "url", url)

	partial := path + ".part-" + uuid.NewString()
	defer os.Remove(partial)

	var written int64
	err := infra.WithRetry(ctx, s.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return infra.Permanent(fmt.Errorf("creating request: %w", err))
		}

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			statusErr := fmt.Errorf("model download error %d for %s", resp.StatusCode, url)
			if infra.IsRetryableHTTPStatus(resp.StatusCode) {
				return statusErr
			}
			return infra.Permanent(statusErr)
		}

		f, err := os.Create(partial)
		if err != nil {
			return infra.Permanent(fmt.Errorf("creating model file: %w", err))
		}

		written, err = io.Copy(f, resp.Body)
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return fmt.Errorf("writing model file: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("downloading model %s: %w", name, err)
	}

	if err := verifyModel(partial); err != nil {
		return err
	}

	if err := os.Rename(partial, path); err != nil {
		return fmt.Errorf("installing model file: %w", err)
	}

	s.logger.Info("model downloaded", "model", name, "bytes", written)
	return nil
}

// hparams is the fixed block of int32 values that follows the magic in a
// whisper ggml file.
type hparams struct {
	NVocab      int32
	NAudioCtx   int32
	NAudioState int32
	NAudioHead  int32
	NAudioLayer int32
	NTextCtx    int32
	NTextState  int32
	NTextHead   int32
	NTextLayer  int32
	NMels       int32
	FType       int32
}

// verifyModel reads the header, hyperparameters and mel filter bank and
// checks that the file continues past them. It does not validate tensor
// data; Transcriber.Check does that by running the model once.
func verifyModel(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening model file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("checking model file: %w", err)
	}

	var magic uint32
	if err := binary.Read(f, binary.LittleEndian, &magic); err != nil {
		return fmt.Errorf("reading model header %s: %w", path, err)
	}
	if magic != ggmlMagic {
		return fmt.Errorf("%s is not a ggml model (magic %#x)", path, magic)
	}

	var hp hparams
	if err := binary.Read(f, binary.LittleEndian, &hp); err != nil {
		return fmt.Errorf("model %s is truncated in hyperparameters: %w", path, err)
	}
	if hp.NVocab <= 0 || hp.NAudioState <= 0 || hp.NAudioLayer <= 0 ||
		hp.NTextState <= 0 || hp.NTextLayer <= 0 || hp.NMels <= 0 || hp.FType < 0 {
		return fmt.Errorf("model %s has invalid hyperparameters %+v", path, hp)
	}

	var filters struct {
		NMel int32
		NFFT int32
	}
	if err := binary.Read(f, binary.LittleEndian, &filters); err != nil {
		return fmt.Errorf("model %s is truncated in mel filters: %w", path, err)
	}
	if filters.NMel != hp.NMels || filters.NFFT <= 0 {
		return fmt.Errorf("model %s has a mel filter bank of %dx%d for %d mels", path, filters.NMel, filters.NFFT, hp.NMels)
	}

	headerSize := int64(4 + binary.Size(hp) + binary.Size(filters))
	filterSize := int64(filters.NMel) * int64(filters.NFFT) * 4
	if info.Size() <= headerSize+filterSize {
		return fmt.Errorf("model %s ends after %d bytes, before its vocabulary and weights", path, info.Size())
	}

	return nil
}
