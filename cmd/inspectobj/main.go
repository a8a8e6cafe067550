package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"odm-orthophoto/internal/geom"
	"odm-orthophoto/internal/mesh"
)

func main() {
	resolution := flag.Float64("resolution", 5, "Resolution in cm/pixel used for canvas size and sliver count")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [-resolution cm/px] mesh.obj\n", os.Args[0])
		os.Exit(1)
	}
	if !(*resolution > 0) {
		fmt.Fprintln(os.Stderr, "Error: resolution must be positive")
		os.Exit(1)
	}

	path := flag.Arg(0)
	m, err := mesh.Load(path, mesh.Options{})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Mesh: %s\n", path)
	fmt.Printf("Vertices: %d, UVs: %d, Faces: %d\n", len(m.Vertices), len(m.UVs), len(m.Faces))

	fmt.Printf("Materials: %d declared, %d used\n", m.Library.Len(), len(m.Used))
	for _, mat := range m.Library.All() {
		n := len(m.FacesOf(mat.Name))
		fmt.Printf("  %s: %s, faces=%d, texture=%q\n", mat.Name, mat.Texture, n, mat.TexturePath)
	}

	b := m.Bounds()
	zMin, zMax := math.Inf(1), math.Inf(-1)
	for _, v := range m.Vertices {
		zMin = math.Min(zMin, v[2])
		zMax = math.Max(zMax, v[2])
	}
	fmt.Printf("BBox: X[%.3f, %.3f] Y[%.3f, %.3f] Z[%.3f, %.3f]\n", b.XMin, b.XMax, b.YMin, b.YMax, zMin, zMax)
	fmt.Printf("Area: %.2f m²\n", b.Area())

	ppu := geom.PixelsPerMeter(*resolution)
	w, h, warnings := geom.CanvasSize(b, ppu)
	for _, msg := range warnings {
		fmt.Printf("Warning: %s\n", msg)
	}
	fmt.Printf("Canvas @ %g cm/px: %d x %d\n", *resolution, w, h)

	m.Apply(geom.RoiTransform(b, ppu))
	fmt.Printf("Slivers: %d\n", m.RemoveSlivers())
}
