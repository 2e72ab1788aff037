// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert plans and runs the remote conversion stages that bring a
// document to PDF. Conversion itself happens on the remote service; this
// package only addresses stages and threads the payload between them.
package convert

import (
	"strings"

	"github.com/pdiddy/docrelay/pkg/types"
)

// Stage identifiers understood by the conversion service.
const (
	StageDocToDocx = "doc-to-docx"
	StageDocxToPDF = "docx-to-pdf"
)

// TargetExt is the extension every plan ends in.
const TargetExt = ".pdf"

var stageTable = map[string][]types.ConversionStage{
	".doc": {
		{ID: StageDocToDocx, Produces: ".docx"},
		{ID: StageDocxToPDF, Produces: TargetExt},
	},
	".docx": {
		{ID: StageDocxToPDF, Produces: TargetExt},
	},
}

// Plan returns the ordered stages that convert a file with the given
// extension to PDF. Matching is case-insensitive. Unknown extensions yield an
// empty plan: the bytes pass through unchanged.
func Plan(ext string) []types.ConversionStage {
	stages := stageTable[strings.ToLower(ext)]
	out := make([]types.ConversionStage, len(stages))
	copy(out, stages)
	return out
}
