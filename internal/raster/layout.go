package raster

import (
	"fmt"

	"odm-orthophoto/internal/mesh"
	"odm-orthophoto/internal/pixel"
)

// BandRange is a contiguous span of output bands reserved for one material.
type BandRange struct {
	Start int
	Count int
}

// Slot assigns a material of one input mesh to its output bands.
type Slot struct {
	Mesh     int
	Material *mesh.Material
	Bands    BandRange
}

// Layout is the band plan for a whole render, fixed before any pixel is
// drawn so that materials never share bands.
type Layout struct {
	Type  pixel.Type
	Bands int
	Slots []Slot
}

// PlanBands reserves a disjoint band range for every used material of every
// mesh, in mesh order and then first-seen material order. The first material
// of the first mesh fixes the element type.
func PlanBands(meshes []*mesh.Mesh) (*Layout, error) {
	if len(meshes) == 0 || len(meshes[0].Used) == 0 {
		return nil, fmt.Errorf("%w: no textured faces to render", mesh.ErrFormat)
	}

	l := &Layout{Type: meshes[0].Used[0].Texture.Type}
	for mi, m := range meshes {
		for _, mat := range m.Used {
			tex := mat.Texture
			if tex.Type != l.Type {
				return nil, fmt.Errorf("%w: material %q in %s has %s texture %s, output is %s",
					ErrUnsupported, mat.Name, m.Path, tex.Type, mat.TexturePath, l.Type)
			}
			l.Slots = append(l.Slots, Slot{
				Mesh:     mi,
				Material: mat,
				Bands:    BandRange{Start: l.Bands, Count: tex.Channels},
			})
			l.Bands += tex.Channels
		}
	}
	return l, nil
}
