package meshio

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/geomnodes/geomnodes/internal/geom"
)

// WriteVTP writes VTK XML PolyData in ascii form, carrying every
// vertex field as PointData and every face field as CellData. This is
// the format the analysis viewer consumes when a mesh has fields to
// color by.
func WriteVTP(w io.Writer, m *geom.Mesh) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, `<?xml version="1.0"?>`)
	fmt.Fprintln(bw, `<VTKFile type="PolyData" version="0.1" byte_order="LittleEndian">`)
	fmt.Fprintln(bw, `  <PolyData>`)
	fmt.Fprintf(bw, "    <Piece NumberOfPoints=\"%d\" NumberOfPolys=\"%d\">\n", m.VertexCount(), m.FaceCount())

	writeVTPFields(bw, "PointData", m.VertexFields)
	writeVTPFields(bw, "CellData", m.FaceFields)

	fmt.Fprintln(bw, `      <Points>`)
	fmt.Fprintln(bw, `        <DataArray type="Float64" NumberOfComponents="3" format="ascii">`)
	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "          %g %g %g\n", v.X(), v.Y(), v.Z())
	}
	fmt.Fprintln(bw, `        </DataArray>`)
	fmt.Fprintln(bw, `      </Points>`)

	fmt.Fprintln(bw, `      <Polys>`)
	fmt.Fprintln(bw, `        <DataArray type="Int64" Name="connectivity" format="ascii">`)
	for _, f := range m.Faces {
		fmt.Fprintf(bw, "          %d %d %d\n", f[0], f[1], f[2])
	}
	fmt.Fprintln(bw, `        </DataArray>`)
	fmt.Fprintln(bw, `        <DataArray type="Int64" Name="offsets" format="ascii">`)
	for i := range m.Faces {
		fmt.Fprintf(bw, "          %d\n", (i+1)*3)
	}
	fmt.Fprintln(bw, `        </DataArray>`)
	fmt.Fprintln(bw, `      </Polys>`)

	fmt.Fprintln(bw, `    </Piece>`)
	fmt.Fprintln(bw, `  </PolyData>`)
	fmt.Fprintln(bw, `</VTKFile>`)

	return bw.Flush()
}

func writeVTPFields(w io.Writer, section string, fields map[string][]float64) {
	if len(fields) == 0 {
		fmt.Fprintf(w, "      <%s/>\n", section)
		return
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(w, "      <%s Scalars=\"%s\">\n", section, names[0])
	for _, name := range names {
		fmt.Fprintf(w, "        <DataArray type=\"Float64\" Name=\"%s\" format=\"ascii\">\n", name)
		fmt.Fprint(w, "          ")
		for i, v := range fields[name] {
			if i > 0 {
				fmt.Fprint(w, " ")
			}
			fmt.Fprintf(w, "%g", v)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "        </DataArray>")
	}
	fmt.Fprintf(w, "      </%s>\n", section)
}
