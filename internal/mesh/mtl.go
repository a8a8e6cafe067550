package mesh

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"odm-orthophoto/internal/texture"
)

// loadLibrary parses an MTL file and adds every material that has a diffuse
// texture to the mesh library.
func (p *objParser) loadLibrary(ref string) error {
	path := filepath.Join(p.baseDir, filepath.FromSlash(strings.ReplaceAll(ref, "\\", "/")))

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("mesh: open material library %s: %w", path, err)
	}
	defer f.Close()

	scanner := newReader(f)
	current := ""
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		ident, rest := splitRecord(line)

		switch ident {
		case "newmtl":
			current = rest
		case "map_Kd":
			if current == "" {
				continue
			}
			texPath, err := texture.ResolvePath(p.baseDir, rest)
			if err != nil {
				return fmt.Errorf("mesh: material %q in %s: %w", current, path, err)
			}
			p.opts.Logger.Info("loading texture", "material", current, "path", rest)
			tex, err := p.opts.Textures.Load(texPath)
			if err != nil {
				return fmt.Errorf("mesh: material %q in %s: %w", current, path, err)
			}
			p.mesh.Library.Add(&Material{Name: current, TexturePath: texPath, Texture: tex})
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("mesh: read %s: %w", path, err)
	}
	return nil
}
