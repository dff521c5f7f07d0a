// Package file reads objective records from a JSON export.
//
// Two shapes are accepted:
//
//	[{"okr_id": 1, "parent_okr": null, "name": "Grow Revenue"}, ...]
//
//	{"okrs": [...], "users": [...], "business_units": [...], "forms": [...]}
//
// The file is re-read on every call so that a live board picks up edits.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"os"

	"github.com/matzehuels/okrtree/pkg/discussion"
	"github.com/matzehuels/okrtree/pkg/errors"
	"github.com/matzehuels/okrtree/pkg/okr"
	"github.com/matzehuels/okrtree/pkg/source"
)

// Source is a JSON file on disk.
type Source struct {
	path string
}

// New returns a source for path. The file is not opened until first use.
func New(path string) (*Source, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	return &Source{path: path}, nil
}

// Name returns "file:" followed by the path.
func (s *Source) Name() string { return "file:" + s.path }

// Path returns the file path.
func (s *Source) Path() string { return s.path }

func (s *Source) Records(ctx context.Context) ([]okr.Record, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.OKRs, nil
}

func (s *Source) Users(ctx context.Context) ([]okr.User, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.People, nil
}

func (s *Source) BusinessUnits(ctx context.Context) ([]okr.Unit, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Units, nil
}

func (s *Source) Forms(ctx context.Context) ([]discussion.Form, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Discussions, nil
}

func (s *Source) load(ctx context.Context) (*source.Static, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "%s", s.path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", s.path)
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", s.path)
	}
	doc.Label = s.Name()
	return doc, nil
}

// Decode parses either accepted file shape.
func Decode(data []byte) (*source.Static, error) {
	data = bytes.TrimSpace(data)
	doc := &source.Static{}
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &doc.OKRs); err != nil {
			return nil, err
		}
		return doc, nil
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, err
	}
	return doc, nil
}
