package service

import (
	"errors"
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"marketplace-api/internal/core/upload"
	"marketplace-api/internal/domain"
)

// FileStore persists uploaded files and addresses them by public URL.
type FileStore interface {
	Save(r io.Reader, o upload.SaveOpts) (string, error)
	Remove(publicURL string) error
}

// FileInput is one uploaded file, opened lazily.
type FileInput struct {
	Name string
	Open func() (io.ReadCloser, error)
}

func saveFile(fs FileStore, f FileInput, o upload.SaveOpts) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	o.Name = f.Name
	url, err := fs.Save(rc, o)
	switch {
	case errors.Is(err, upload.ErrTooLarge), errors.Is(err, upload.ErrType), errors.Is(err, upload.ErrCorrupt):
		return "", domain.Invalid(f.Name + ": " + err.Error())
	case err != nil:
		return "", err
	}
	return url, nil
}

var (
	listingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "listing_transitions_total", Help: "Listing moderation and status transitions"},
		[]string{"action", "result"},
	)
	featuredConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "listing_featured_conflicts_total", Help: "Feature requests refused because every slot was taken"},
	)
)

func init() { prometheus.MustRegister(listingTransitions, featuredConflicts) }

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrPrecondition), errors.Is(err, domain.ErrInvalidInput):
		return "rejected"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
