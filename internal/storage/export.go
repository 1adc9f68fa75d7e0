package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/segsim/internal/schelling"
)

type ExportData struct {
	RunMetadata
	Grid [][]int `json:"grid"`
}

// ExportJSON writes a run summary together with its final grid.
func ExportJSON(w io.Writer, meta *RunMetadata, g *schelling.Grid) error {
	data := ExportData{RunMetadata: *meta}
	if g != nil {
		data.Grid = make([][]int, g.Size())
		for r, row := range g.Rows() {
			data.Grid[r] = make([]int, len(row))
			for c, v := range row {
				data.Grid[r][c] = int(v)
			}
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
