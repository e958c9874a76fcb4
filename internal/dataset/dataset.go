// Package dataset reads and writes catalog exports in JSON form, optionally
// compressed with zstd (.zst) or gzip (.gz).
//
// The document shape is
//
//	{"regions":[{"id","name"}],
//	 "tours":[{"id","region_id","name","description","duration_days","cost"}],
//	 "attractions":[{"id","name","description","cultural_value"}],
//	 "tour_attractions":[{"tour_id","attraction_id"}]}
package dataset

import (
	"bufio"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"

	"tour-planner/internal/catalog"
)

// ErrInvalidDataset is returned for malformed JSON or schema violations.
var ErrInvalidDataset = errors.New("dataset: invalid document")

//go:embed schema.json
var schemaJSON string

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("dataset.schema.json", schemaJSON)
	})
	return schema, schemaErr
}

// Read parses and validates a JSON document and builds a catalog from it.
// Records keep document order.
func Read(r io.Reader) (*catalog.Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrInvalidDataset)
	}

	s, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}
	if err := s.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}

	b := catalog.NewBuilder()
	gjson.GetBytes(data, "regions").ForEach(func(_, v gjson.Result) bool {
		b.AddRegion(catalog.Region{
			ID:   v.Get("id").String(),
			Name: v.Get("name").String(),
		})
		return true
	})
	gjson.GetBytes(data, "tours").ForEach(func(_, v gjson.Result) bool {
		b.AddTour(catalog.Tour{
			ID:           int(v.Get("id").Int()),
			RegionID:     v.Get("region_id").String(),
			Name:         v.Get("name").String(),
			Description:  v.Get("description").String(),
			DurationDays: int(v.Get("duration_days").Int()),
			Cost:         v.Get("cost").Float(),
		})
		return true
	})
	gjson.GetBytes(data, "attractions").ForEach(func(_, v gjson.Result) bool {
		b.AddAttraction(catalog.Attraction{
			ID:            int(v.Get("id").Int()),
			Name:          v.Get("name").String(),
			Description:   v.Get("description").String(),
			CulturalValue: int(v.Get("cultural_value").Int()),
		})
		return true
	})
	gjson.GetBytes(data, "tour_attractions").ForEach(func(_, v gjson.Result) bool {
		b.Link(int(v.Get("tour_id").Int()), int(v.Get("attraction_id").Int()))
		return true
	})

	return b.Build()
}

// Load reads the dataset at path, decompressing by extension.
func Load(path string) (*catalog.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = bufio.NewReaderSize(f, 256*1024)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst":
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		r = dec
	case ".gz":
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	}

	cat, err := Read(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

type document struct {
	Regions         []catalog.Region      `json:"regions"`
	Tours           []*catalog.Tour       `json:"tours"`
	Attractions     []*catalog.Attraction `json:"attractions"`
	TourAttractions []catalog.Grant       `json:"tour_attractions"`
}

// Write encodes cat in the document shape Read accepts.
func Write(w io.Writer, cat *catalog.Catalog) error {
	doc := document{
		Regions:         cat.Regions(),
		Tours:           cat.Tours(),
		Attractions:     cat.Attractions(),
		TourAttractions: cat.Grants(),
	}
	// Empty sections must encode as [] to pass the schema on re-read.
	if doc.Tours == nil {
		doc.Tours = []*catalog.Tour{}
	}
	if doc.Attractions == nil {
		doc.Attractions = []*catalog.Attraction{}
	}
	if doc.TourAttractions == nil {
		doc.TourAttractions = []catalog.Grant{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteFile writes cat to path, compressing by extension like Load.
func WriteFile(path string, cat *catalog.Catalog) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriterSize(f, 256*1024)
	var w io.Writer = bw
	var closer io.Closer
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst":
		enc, err := zstd.NewWriter(bw, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return err
		}
		w, closer = enc, enc
	case ".gz":
		gz := gzip.NewWriter(bw)
		w, closer = gz, gz
	}

	if err := Write(w, cat); err != nil {
		return err
	}
	if closer != nil {
		if err := closer.Close(); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return f.Close()
}
