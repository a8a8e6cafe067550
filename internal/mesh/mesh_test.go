package mesh

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"odm-orthophoto/internal/geom"
	"odm-orthophoto/internal/pixel"
	"odm-orthophoto/internal/texture"
)

const testMTL = `# two atlases
newmtl material0000
Kd 1 1 1
map_Kd atlas0.png

newmtl untextured
Kd 0.5 0.5 0.5

newmtl material0001
map_Kd atlas1.png
`

const testOBJ = `mtllib model.mtl
v 0 0 1
v 1 0 1
v 1 1 2
v 0 1 2
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
usemtl material0001
f 1/1/1 2/2/1 3/3/1
usemtl material0000
f 1/1 3/3 4/4
usemtl material0001
f -4/-4 -3/-3 -2/-2
`

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

// stubTextures records loads and returns a 1×1 texture per path.
func stubTextures(loaded *[]string) texture.Loader {
	return texture.LoaderFunc(func(path string) (*texture.Texture, error) {
		*loaded = append(*loaded, filepath.Base(path))
		return texture.New(pixel.Uint8, 1, 1, 3), nil
	})
}

func fixture(t *testing.T, obj string) string {
	t.Helper()
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"model.obj":  obj,
		"model.mtl":  testMTL,
		"atlas0.png": "stub",
		"atlas1.png": "stub",
	})
	return filepath.Join(dir, "model.obj")
}

func TestLoad(t *testing.T) {
	var loaded []string
	m, err := Load(fixture(t, testOBJ), Options{Textures: stubTextures(&loaded)})
	if err != nil {
		t.Fatal(err)
	}

	if len(m.Vertices) != 4 || len(m.UVs) != 4 || len(m.Faces) != 3 {
		t.Fatalf("got %d vertices, %d uvs, %d faces", len(m.Vertices), len(m.UVs), len(m.Faces))
	}
	if got, want := m.Faces[1], (Face{Material: "material0000", V: [3]int{0, 2, 3}, T: [3]int{0, 2, 3}}); got != want {
		t.Errorf("face 1 = %+v, want %+v", got, want)
	}
	if got, want := m.Faces[2].V, [3]int{0, 1, 2}; got != want {
		t.Errorf("relative indices resolved to %v, want %v", got, want)
	}

	var lib []string
	for _, mat := range m.Library.All() {
		lib = append(lib, mat.Name)
	}
	if got := strings.Join(lib, ","); got != "material0000,material0001" {
		t.Errorf("library = %s", got)
	}

	var used []string
	for _, mat := range m.Used {
		used = append(used, mat.Name)
	}
	if got := strings.Join(used, ","); got != "material0001,material0000" {
		t.Errorf("used = %s, want first-seen order material0001,material0000", got)
	}
	if got := strings.Join(loaded, ","); got != "atlas0.png,atlas1.png" {
		t.Errorf("loaded textures = %s", got)
	}
	if n := len(m.FacesOf("material0001")); n != 2 {
		t.Errorf("FacesOf(material0001) = %d faces, want 2", n)
	}
}

func TestLoadWithBOM(t *testing.T) {
	var loaded []string
	m, err := Load(fixture(t, "\ufeff"+testOBJ), Options{Textures: stubTextures(&loaded)})
	if err != nil {
		t.Fatal(err)
	}
	if m.Library.Len() != 2 {
		t.Errorf("library has %d materials, want 2", m.Library.Len())
	}
}

func TestLoadErrors(t *testing.T) {
	header := "mtllib model.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0 0\nvt 1 0\nvt 0 1\n"
	tests := []struct {
		name   string
		obj    string
		format bool
		io     bool
	}{
		{"unknown material", header + "usemtl nope\nf 1/1 2/2 3/3\n", true, false},
		{"untextured material", header + "usemtl untextured\nf 1/1 2/2 3/3\n", true, false},
		{"face before usemtl", header + "f 1/1 2/2 3/3\n", true, false},
		{"quad", header + "v 1 1 0\nusemtl material0000\nf 1/1 2/2 3/3 4/3\n", true, false},
		{"vertex out of range", header + "usemtl material0000\nf 1/1 2/2 9/3\n", true, false},
		{"uv out of range", header + "usemtl material0000\nf 1/1 2/2 3/7\n", true, false},
		{"missing uv", header + "usemtl material0000\nf 1 2 3\n", true, false},
		{"bad vertex", "v 1 x 2\n", true, false},
		{"missing library", "mtllib other.mtl\n", false, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var loaded []string
			_, err := Load(fixture(t, tc.obj), Options{Textures: stubTextures(&loaded)})
			if err == nil {
				t.Fatal("Load succeeded, want error")
			}
			if got := errors.Is(err, ErrFormat); got != tc.format {
				t.Errorf("errors.Is(ErrFormat) = %v for %v", got, err)
			}
			if got := errors.Is(err, fs.ErrNotExist); got != tc.io {
				t.Errorf("errors.Is(fs.ErrNotExist) = %v for %v", got, err)
			}
		})
	}
}

func TestLoadMissingFiles(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.obj"), Options{})
	if !errors.Is(err, ErrFormat) || !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing mesh error = %v, want ErrFormat wrapping fs.ErrNotExist", err)
	}

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"model.obj": "mtllib model.mtl\n",
		"model.mtl": "newmtl a\nmap_Kd gone.png\n",
	})
	_, err = Load(filepath.Join(dir, "model.obj"), Options{})
	if !errors.Is(err, fs.ErrNotExist) || errors.Is(err, ErrFormat) {
		t.Errorf("missing texture error = %v, want I/O error", err)
	}
	if err != nil && !strings.Contains(err.Error(), "gone.png") {
		t.Errorf("error %q does not name the texture", err)
	}
}

func TestApplyAndRemoveSlivers(t *testing.T) {
	m := &Mesh{
		Vertices: []geom.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {2, 2, 0}},
		Faces: []Face{
			{Material: "a", V: [3]int{0, 1, 2}},
			{Material: "a", V: [3]int{0, 3, 3}},
			{Material: "a", V: [3]int{2, 1, 0}},
		},
	}
	m.Apply(geom.RoiTransform(geom.Bbox{XMin: 0, XMax: 2, YMin: 0, YMax: 2}, 10))
	if got := m.Vertices[3]; got != (geom.Vec3{20, 0, 0}) {
		t.Errorf("transformed vertex = %v, want [20 0 0]", got)
	}
	if n := m.RemoveSlivers(); n != 1 {
		t.Errorf("RemoveSlivers = %d, want 1", n)
	}
	if len(m.Faces) != 2 || m.Faces[1].V != [3]int{2, 1, 0} {
		t.Errorf("remaining faces = %+v", m.Faces)
	}
}

func TestLoadRedefinedMaterial(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"first.mtl":  "newmtl shared\nmap_Kd atlas0.png\n",
		"second.mtl": "newmtl shared\nmap_Kd atlas1.png\n",
		"atlas0.png": "stub",
		"atlas1.png": "stub",
		"model.obj": "mtllib first.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0 0\nvt 1 0\nvt 0 1\n" +
			"usemtl shared\nf 1/1 2/2 3/3\nmtllib second.mtl\nf 1/1 2/2 3/3\n",
	})

	var loaded []string
	m, err := Load(filepath.Join(dir, "model.obj"), Options{Textures: stubTextures(&loaded)})
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Used) != 1 || m.Library.Len() != 1 {
		t.Fatalf("used %d, library %d, want 1 and 1", len(m.Used), m.Library.Len())
	}
	lib, _ := m.Library.Get("shared")
	if m.Used[0] != lib || filepath.Base(m.Used[0].TexturePath) != "atlas1.png" {
		t.Errorf("used material has texture %s, want the redefinition's atlas1.png", m.Used[0].TexturePath)
	}
}
