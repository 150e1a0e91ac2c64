package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/muroom-studio/muroom-admin/model"
	"github.com/muroom-studio/muroom-admin/service"
)

// manifest describes one studio to create: its form plus image files per
// category. Relative image paths resolve against the manifest's directory.
type manifest struct {
	Form   model.StudioForm    `yaml:"form"`
	Images map[string][]string `yaml:"images"`

	dir string
}

func loadManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	m.dir = filepath.Dir(path)
	return &m, nil
}

// items reads every listed image. Categories are visited in display order so
// the output is stable.
func (m *manifest) items() ([]*model.UploadItem, error) {
	names := make([]string, 0, len(m.Images))
	for name := range m.Images {
		names = append(names, name)
	}
	sort.Strings(names)

	grouped := make(map[model.Category][]string, len(m.Images))
	seen := make(map[model.Category]string, len(m.Images))
	for _, name := range names {
		cat, ok := model.ParseCategory(name)
		if !ok {
			return nil, fmt.Errorf("images: unknown category %q", name)
		}
		if prev, dup := seen[cat]; dup {
			return nil, fmt.Errorf("images: %q and %q both name %s, list them under one key", prev, name, cat)
		}
		seen[cat] = name
		grouped[cat] = m.Images[name]
	}

	var out []*model.UploadItem
	for _, cat := range model.Categories {
		for _, p := range grouped[cat] {
			item, err := m.readItem(cat, p)
			if err != nil {
				return nil, err
			}
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *manifest) readItem(cat model.Category, p string) (*model.UploadItem, error) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(m.dir, p)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("images.%s: %w", cat, err)
	}
	contentType := service.SniffContentType(data, "")
	if !service.IsImage(contentType) {
		return nil, fmt.Errorf("images.%s: %s is %s, not an image", cat, filepath.Base(p), contentType)
	}
	return &model.UploadItem{
		Category:    cat,
		FileName:    filepath.Base(p),
		ContentType: contentType,
		Size:        int64(len(data)),
		Content:     data,
	}, nil
}
