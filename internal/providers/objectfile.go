package providers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/docportal/repocli/internal/atomicfile"
	"github.com/docportal/repocli/internal/slugs"
	"github.com/docportal/repocli/internal/store"
)

// ExportFormat selects how an object is written.
type ExportFormat string

const (
	// FormatSave writes YAML, the format objects are loaded from.
	FormatSave ExportFormat = "save"
	FormatJSON ExportFormat = "json"
)

// ParseExportFormat accepts the style argument of export commands.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(s)) {
	case FormatSave, "yaml":
		return FormatSave, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown export style %q (want save or json)", s)
}

func (f ExportFormat) ext() string {
	if f == FormatJSON {
		return "json"
	}
	return "yaml"
}

func isObjectFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// ReadObjectFile decodes an object from a YAML or JSON file.
func ReadObjectFile(path string) (*store.Object, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read object file: %w", err)
	}
	var obj store.Object
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &obj)
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&obj)
	}
	if err != nil {
		return nil, fmt.Errorf("parse object file %s: %w", path, err)
	}
	if obj.ID == "" {
		return nil, fmt.Errorf("object file %s has no id", path)
	}
	if _, err := store.ParseObjectID(obj.ID); err != nil {
		return nil, fmt.Errorf("object file %s: %w", path, err)
	}
	return &obj, nil
}

// WriteObjectFile exports obj into dir and returns the written path.
func WriteObjectFile(dir string, obj *store.Object, format ExportFormat) (string, error) {
	path := filepath.Join(dir, slugs.ExportFileName(obj.ID, format.ext()))
	err := atomicfile.Write(path, 0, func(w io.Writer) error {
		if format == FormatJSON {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(obj)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(obj); err != nil {
			return err
		}
		return enc.Close()
	})
	if err != nil {
		return "", fmt.Errorf("export %s: %w", obj.ID, err)
	}
	return path, nil
}

type objectFile struct {
	path string
	obj  *store.Object
}

// LoadOrder reads every object file in dir and returns the paths ordered so
// that each object comes after the objects of the same directory it links
// to. Ties keep file name order.
func LoadOrder(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read object directory: %w", err)
	}
	var files []objectFile
	for _, e := range entries {
		if e.IsDir() || !isObjectFile(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		obj, err := ReadObjectFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, objectFile{path: path, obj: obj})
	}
	return topoSort(files)
}

func topoSort(files []objectFile) ([]string, error) {
	byID := make(map[string]int, len(files))
	for i, f := range files {
		if prev, dup := byID[f.obj.ID]; dup {
			return nil, fmt.Errorf("object %s is defined in both %s and %s", f.obj.ID, files[prev].path, f.path)
		}
		byID[f.obj.ID] = i
	}

	indegree := make([]int, len(files))
	dependents := make([][]int, len(files))
	for i, f := range files {
		for _, target := range f.obj.Links {
			j, ok := byID[target]
			if !ok || j == i {
				continue
			}
			indegree[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	var ready []int
	for i := range files {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}
	order := make([]string, 0, len(files))
	for len(ready) > 0 {
		sort.Ints(ready)
		i := ready[0]
		ready = ready[1:]
		order = append(order, files[i].path)
		for _, k := range dependents[i] {
			indegree[k]--
			if indegree[k] == 0 {
				ready = append(ready, k)
			}
		}
	}
	if len(order) != len(files) {
		var cyclic []string
		for i, n := range indegree {
			if n > 0 {
				cyclic = append(cyclic, files[i].obj.ID)
			}
		}
		return nil, fmt.Errorf("link cycle between objects %s", strings.Join(cyclic, ", "))
	}
	return order, nil
}
