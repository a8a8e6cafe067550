package mesh

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"odm-orthophoto/internal/geom"
	"odm-orthophoto/internal/texture"
)

// Options controls mesh loading.
type Options struct {
	// Textures decodes map_Kd images. Nil uses a fresh texture.Cache.
	Textures texture.Loader
	// Logger receives progress messages. Nil discards them.
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Textures == nil {
		o.Textures = texture.NewCache()
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// Load parses an OBJ file, its material libraries and their textures.
// Libraries and textures resolve relative to the OBJ file's directory.
func Load(path string, opts Options) (*Mesh, error) {
	opts = opts.withDefaults()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrFormat, path, err)
	}
	defer f.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	opts.Logger.Info("loading mesh", "path", path)

	p := &objParser{
		path:    path,
		baseDir: filepath.Dir(abs),
		opts:    opts,
		mesh:    &Mesh{Path: path},
		used:    make(map[string]bool),
	}
	if err := p.parse(f); err != nil {
		return nil, err
	}
	if err := p.checkIndices(); err != nil {
		return nil, err
	}
	// A later mtllib may redefine a material, so resolve after parsing.
	for _, name := range p.usedOrder {
		m, _ := p.mesh.Library.Get(name)
		p.mesh.Used = append(p.mesh.Used, m)
	}
	for _, m := range p.mesh.Library.All() {
		if !p.used[m.Name] {
			opts.Logger.Warn("material is never used", "path", path, "material", m.Name)
		}
	}
	return p.mesh, nil
}

type objParser struct {
	path    string
	baseDir string
	opts    Options
	mesh    *Mesh

	current   string
	used      map[string]bool
	usedOrder []string
	lines     []int // source line per face, for index errors
}

// newReader strips a leading UTF-8 byte order mark.
func newReader(r io.Reader) *bufio.Scanner {
	s := bufio.NewScanner(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	s.Buffer(make([]byte, 64*1024), 4*1024*1024)
	return s
}

func (p *objParser) parse(r io.Reader) error {
	scanner := newReader(r)
	ln := 0
	for scanner.Scan() {
		ln++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		ident, rest := splitRecord(line)

		var err error
		switch ident {
		case "mtllib":
			err = p.loadLibrary(rest)
		case "v":
			err = p.parseVertex(rest, ln)
		case "vt":
			err = p.parseUV(rest, ln)
		case "usemtl":
			err = p.useMaterial(rest, ln)
		case "f":
			err = p.parseFace(rest, ln)
		}
		if err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("mesh: read %s: %w", p.path, err)
	}
	return nil
}

// splitRecord separates the record keyword from its arguments.
func splitRecord(line string) (ident, rest string) {
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimSpace(line[i+1:])
}

func (p *objParser) formatErr(ln int, format string, args ...any) error {
	return fmt.Errorf("%w: %s:%d: %s", ErrFormat, p.path, ln, fmt.Sprintf(format, args...))
}

func parseFloats(fields []string, n int) ([]float64, bool) {
	if len(fields) < n {
		return nil, false
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func (p *objParser) parseVertex(rest string, ln int) error {
	xyz, ok := parseFloats(strings.Fields(rest), 3)
	if !ok {
		return p.formatErr(ln, "bad vertex %q", rest)
	}
	p.mesh.Vertices = append(p.mesh.Vertices, geom.Vec3{xyz[0], xyz[1], xyz[2]})
	return nil
}

func (p *objParser) parseUV(rest string, ln int) error {
	uv, ok := parseFloats(strings.Fields(rest), 2)
	if !ok {
		return p.formatErr(ln, "bad texture coordinate %q", rest)
	}
	p.mesh.UVs = append(p.mesh.UVs, [2]float64{uv[0], uv[1]})
	return nil
}

func (p *objParser) useMaterial(name string, ln int) error {
	if _, ok := p.mesh.Library.Get(name); !ok {
		return p.formatErr(ln, "material %q is missing", name)
	}
	p.current = name
	if !p.used[name] {
		p.used[name] = true
		p.usedOrder = append(p.usedOrder, name)
	}
	return nil
}

func (p *objParser) parseFace(rest string, ln int) error {
	refs := strings.Fields(rest)
	if len(refs) != 3 {
		return p.formatErr(ln, "face has %d vertices, only triangles are supported", len(refs))
	}
	if p.current == "" {
		return p.formatErr(ln, "face references no material (missing usemtl)")
	}

	f := Face{Material: p.current}
	for k, ref := range refs {
		parts := strings.Split(ref, "/")
		if len(parts) < 2 || parts[1] == "" {
			return p.formatErr(ln, "face vertex %q has no texture coordinate", ref)
		}
		vi, err := strconv.Atoi(parts[0])
		if err != nil {
			return p.formatErr(ln, "bad vertex index %q", parts[0])
		}
		ti, err := strconv.Atoi(parts[1])
		if err != nil {
			return p.formatErr(ln, "bad texture index %q", parts[1])
		}
		if vi == 0 || ti == 0 {
			return p.formatErr(ln, "index 0 is not valid in %q", ref)
		}
		f.V[k] = resolveIndex(vi, len(p.mesh.Vertices))
		f.T[k] = resolveIndex(ti, len(p.mesh.UVs))
	}
	p.mesh.Faces = append(p.mesh.Faces, f)
	p.lines = append(p.lines, ln)
	return nil
}

// resolveIndex converts a 1-based or negative (relative) OBJ index to 0-based.
func resolveIndex(i, count int) int {
	if i < 0 {
		return count + i
	}
	return i - 1
}

func (p *objParser) checkIndices() error {
	nv, nt := len(p.mesh.Vertices), len(p.mesh.UVs)
	for i, f := range p.mesh.Faces {
		for k := 0; k < 3; k++ {
			if f.V[k] < 0 || f.V[k] >= nv {
				return p.formatErr(p.lines[i], "vertex index %d out of range [1, %d]", f.V[k]+1, nv)
			}
			if f.T[k] < 0 || f.T[k] >= nt {
				return p.formatErr(p.lines[i], "texture index %d out of range [1, %d]", f.T[k]+1, nt)
			}
		}
	}
	return nil
}
