// internal/app/features/tenders/upload.go
package tenders

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/dalemusser/tenderhub/internal/app/system/docstore"
)

// File field names accepted for uploads.
var fileFields = map[string]bool{"documents": true, "documents[]": true}

// maxFieldBytes bounds the text fields of one multipart body together.
const maxFieldBytes = 1 << 20

// errSpool marks failures writing an upload to its local temp file, as
// opposed to a malformed or oversized request body.
var errSpool = errors.New("spool upload")

var errFieldsTooLarge = errors.New("multipart text fields too large")

// uploadForm is a multipart body read part by part. files keeps the order
// in which the parts arrived, whichever file field carried them.
type uploadForm struct {
	values url.Values
	files  []docstore.File
}

// value returns the first value of key, or "".
func (f *uploadForm) value(key string) string { return f.values.Get(key) }

// lookup returns the first value of key and whether it was sent.
func (f *uploadForm) lookup(key string) (string, bool) {
	vs, ok := f.values[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// discard removes the temp copies of files that never reached the store.
func (f *uploadForm) discard() { docstore.Discard(f.files...) }

// maxBody bounds a request body to what the upload limits allow plus room
// for the text fields.
func (h *Handler) maxBody() int64 {
	return h.Limits.MaxFileSize*int64(h.Limits.MaxFiles) + maxFieldBytes
}

// readUpload reads the multipart body of r and writes the error response
// itself when that fails. Callers defer form.discard().
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (*uploadForm, bool) {
	form, err := h.readForm(w, r)
	switch {
	case err == nil:
		return form, true
	case errors.Is(err, errSpool):
		h.ErrLog.LogServerError(w, r, "spool uploads failed", err, msgUploadFailed)
	default:
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, msgInvalidForm)
	}
	return nil, false
}

// readForm streams the multipart body, keeping text fields in memory and
// copying every file part to its own temp file. On error the files spooled
// so far are discarded.
func (h *Handler) readForm(w http.ResponseWriter, r *http.Request) (*uploadForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody())
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}

	form := &uploadForm{values: url.Values{}}
	textLeft := int64(maxFieldBytes)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return form, nil
		}
		if err != nil {
			form.discard()
			return nil, err
		}

		name := part.FormName()
		switch {
		case name == "":
		case part.FileName() == "":
			b, err := io.ReadAll(io.LimitReader(part, textLeft+1))
			if err != nil {
				form.discard()
				return nil, err
			}
			textLeft -= int64(len(b))
			if textLeft < 0 {
				form.discard()
				return nil, errFieldsTooLarge
			}
			form.values.Add(name, string(b))
		case fileFields[name]:
			f, err := h.spool(part)
			if err != nil {
				form.discard()
				return nil, err
			}
			form.files = append(form.files, f)
		}
		// NextPart skips whatever is left of an ignored part.
	}
}

// bodyReader remembers a read failure so a broken request body is not
// reported as a local disk problem.
type bodyReader struct {
	r   io.Reader
	err error
}

func (b *bodyReader) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		b.err = err
	}
	return n, err
}

func (h *Handler) spool(part *multipart.Part) (docstore.File, error) {
	name := filepath.Base(part.FileName())

	tmp, err := os.CreateTemp("", "tenderhub-upload-*")
	if err != nil {
		return docstore.File{}, fmt.Errorf("%w: create temp file: %v", errSpool, err)
	}

	body := &bodyReader{r: part}
	br := bufio.NewReader(body)
	mimeType := part.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = sniff(br)
	}

	// One byte past the limit is enough for the orchestrator to reject it.
	n, err := io.Copy(tmp, io.LimitReader(br, h.Limits.MaxFileSize+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		if body.err != nil {
			return docstore.File{}, fmt.Errorf("read part %q: %w", name, body.err)
		}
		return docstore.File{}, fmt.Errorf("%w %q: %v", errSpool, name, err)
	}

	return docstore.File{
		Name:     name,
		MIMEType: mimeType,
		Size:     n,
		Path:     tmp.Name(),
	}, nil
}

// sniff guesses a content type from the first bytes without consuming them.
func sniff(br *bufio.Reader) string {
	head, _ := br.Peek(512)
	return http.DetectContentType(head)
}
