/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package bundle

import (
	"archive/zip"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"
)

const contentsSchema = `{
  "type": "object",
  "required": ["images", "info"],
  "additionalProperties": false,
  "properties": {
    "images": {
      "type": "array", "minItems": 1, "maxItems": 1,
      "items": {
        "type": "object",
        "required": ["idiom", "filename"],
        "additionalProperties": false,
        "properties": {"idiom": {"const": "universal"}, "filename": {"type": "string", "minLength": 1}}
      }
    },
    "info": {
      "type": "object",
      "required": ["author", "version"],
      "properties": {"author": {"const": "xcode"}, "version": {"const": 1}}
    },
    "properties": {
      "type": "object",
      "required": ["preserves-vector-representation"],
      "properties": {"preserves-vector-representation": {"const": true}}
    }
  }
}`

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("data:"+n), 0o644))
	}
}

func readContents(t *testing.T, dir string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, ContentsFile))
	require.NoError(t, err)
	res, err := gojsonschema.Validate(gojsonschema.NewStringLoader(contentsSchema), gojsonschema.NewBytesLoader(data))
	require.NoError(t, err)
	for _, e := range res.Errors() {
		t.Errorf("%s: %s", dir, e)
	}
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func TestIsLanguagePair(t *testing.T) {
	assert.True(t, IsLanguagePair("en-pl"))
	assert.True(t, IsLanguagePair("deu-fra"))
	assert.False(t, IsLanguagePair("EN-PL"))
	assert.False(t, IsLanguagePair("e-pl"))
	assert.False(t, IsLanguagePair("en-pl-raster"))
	assert.False(t, IsLanguagePair("logo"))
}

func TestBuildImagesets(t *testing.T) {
	src, out := t.TempDir(), filepath.Join(t.TempDir(), "Assets.xcassets")
	writeFiles(t, src,
		"en-pl.svg", "en-pl.pdf", "en-pl.png", // svg wins, png gets suffix
		"it-en.pdf",          // pdf only
		"fr-de.png",          // png only, no suffix
		"readme.txt", "logo.svg", "en-pl.txt",
	)
	rep, err := Build(Options{Source: src, Output: out, Logger: quiet()})
	require.NoError(t, err)

	var names []string
	for _, s := range rep.Imagesets {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"en-pl", "en-pl-raster", "fr-de", "it-en"}, names)
	sort.Strings(rep.Skipped)
	assert.Equal(t, []string{"en-pl.txt", "logo.svg", "readme.txt"}, rep.Skipped)

	doc := readContents(t, filepath.Join(out, "en-pl.imageset"))
	assert.Equal(t, "en-pl.svg", doc["images"].([]any)[0].(map[string]any)["filename"])
	assert.Contains(t, doc, "properties")
	assert.FileExists(t, filepath.Join(out, "en-pl.imageset", "en-pl.svg"))
	assert.NoFileExists(t, filepath.Join(out, "en-pl.imageset", "en-pl.pdf"))

	doc = readContents(t, filepath.Join(out, "en-pl-raster.imageset"))
	assert.Equal(t, "en-pl.png", doc["images"].([]any)[0].(map[string]any)["filename"])
	assert.NotContains(t, doc, "properties")

	doc = readContents(t, filepath.Join(out, "it-en.imageset"))
	assert.Equal(t, "it-en.pdf", doc["images"].([]any)[0].(map[string]any)["filename"])

	doc = readContents(t, filepath.Join(out, "fr-de.imageset"))
	assert.NotContains(t, doc, "properties")
	assert.NoDirExists(t, filepath.Join(out, "fr-de-raster.imageset"))
}

func TestBuildCustomSuffixAndClean(t *testing.T) {
	src, out := t.TempDir(), t.TempDir()
	writeFiles(t, src, "en-pl.svg", "en-pl.png")
	stale := filepath.Join(out, "old.imageset")
	require.NoError(t, os.MkdirAll(stale, 0o755))

	_, err := Build(Options{Source: src, Output: out, RasterSuffix: "_png", Logger: quiet()})
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(out, "en-pl_png.imageset"))
	assert.DirExists(t, stale)

	_, err = Build(Options{Source: src, Output: out, Clean: true, Logger: quiet()})
	require.NoError(t, err)
	assert.NoDirExists(t, stale)
	assert.DirExists(t, filepath.Join(out, "en-pl-raster.imageset"))
}

func TestBuildMissingSource(t *testing.T) {
	_, err := Build(Options{Source: filepath.Join(t.TempDir(), "nope"), Output: t.TempDir(), Logger: quiet()})
	assert.Error(t, err)
	_, err = Build(Options{})
	assert.Error(t, err)
}

func TestZip(t *testing.T) {
	src, root := t.TempDir(), t.TempDir()
	out := filepath.Join(root, "Assets.xcassets")
	writeFiles(t, src, "en-pl.svg", "fr-de.png")
	_, err := Build(Options{Source: src, Output: out, Logger: quiet()})
	require.NoError(t, err)

	dest := filepath.Join(root, "dist", "assets.zip")
	n, err := Zip(out, dest)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	r, err := zip.OpenReader(dest)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()
	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{
		"Assets.xcassets/en-pl.imageset/Contents.json",
		"Assets.xcassets/en-pl.imageset/en-pl.svg",
		"Assets.xcassets/fr-de.imageset/Contents.json",
		"Assets.xcassets/fr-de.imageset/fr-de.png",
	}, names)
}
