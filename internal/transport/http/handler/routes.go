package handler

import (
	"io"
	"mime/multipart"

	"github.com/gin-gonic/gin"

	"marketplace-api/internal/domain"
	"marketplace-api/internal/service"
	"marketplace-api/internal/transport/http/ez"
)

// Routes is what a handler needs to mount itself under /api.
type Routes struct {
	API       ez.EZ
	Auth      gin.HandlerFunc // valid bearer token
	Optional  gin.HandlerFunc // bearer token when present
	Admin     gin.HandlerFunc // admin role, after Auth
	AuthLimit gin.HandlerFunc // per ip limiter for credential endpoints
}

// User returns a group that requires authentication.
func (r Routes) User(path string) ez.EZ { return r.API.Group(path, r.Auth) }

// AdminGroup returns a group that requires the admin role.
func (r Routes) AdminGroup(path string) ez.EZ { return r.API.Group(path, r.Auth, r.Admin) }

type message struct {
	Message string `json:"message"`
}

type empty struct{}

// formFiles reads the multipart files sent under field.
func formFiles(c *gin.Context, field string) ([]service.FileInput, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, domain.Invalid("invalid multipart form")
	}
	return fileInputs(form.File[field]), nil
}

func fileInputs(fhs []*multipart.FileHeader) []service.FileInput {
	out := make([]service.FileInput, 0, len(fhs))
	for _, fh := range fhs {
		fh := fh
		out = append(out, service.FileInput{
			Name: fh.Filename,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		})
	}
	return out
}
