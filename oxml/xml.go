package oxml

import (
	"path"
	"strings"
)

const wbBaseDir = "xl"

const (
	contentTypesPart  = "[Content_Types].xml"
	workbookPart      = wbBaseDir + "/workbook.xml"
	workbookRelsPart  = wbBaseDir + "/_rels/workbook.xml.rels"
	sharedStringsPart = wbBaseDir + "/sharedStrings.xml"
	calcChainPart     = wbBaseDir + "/calcChain.xml"
)

const (
	typeCalcChainUrl = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/calcChain"
	typeMainUrl      = "http://schemas.openxmlformats.org/spreadsheetml/2006/main"
)

const (
	mimeWorkbook         = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"
	mimeWorkbookTemplate = "application/vnd.openxmlformats-officedocument.spreadsheetml.template.main+xml"
	mimeWorkbookMacro    = "application/vnd.ms-excel.sheet.macroEnabled.main+xml"
	mimeTemplateMacro    = "application/vnd.ms-excel.template.macroEnabled.main+xml"
)

const (
	elemWorkbook      = "workbook"
	elemSheets        = "sheets"
	elemSheet         = "sheet"
	elemCalcPr        = "calcPr"
	elemRelationships = "Relationships"
	elemRelationship  = "Relationship"
	elemTypes         = "Types"
	elemOverride      = "Override"
	elemWorksheet     = "worksheet"
	elemSheetData     = "sheetData"
	elemRow           = "row"
	elemCell          = "c"
	elemValue         = "v"
	elemFormula       = "f"
	elemInline        = "is"
	elemText          = "t"
	elemRun           = "r"
	elemExtLst        = "extLst"
	elemSST           = "sst"
	elemShared        = "si"
)

// elements preceding calcPr in a workbook.
var beforeCalcPr = []string{
	"fileVersion",
	"fileSharing",
	"workbookPr",
	"workbookProtection",
	"bookViews",
	"sheets",
	"functionGroups",
	"externalReferences",
	"definedNames",
}

func isWorkbookType(mime string) bool {
	switch mime {
	case mimeWorkbook, mimeWorkbookTemplate, mimeWorkbookMacro, mimeTemplateMacro:
		return true
	default:
		return false
	}
}

// resolveTarget gives the archive entry of a relationship target found in the
// workbook relationships. Relative targets are relative to the xl directory.
func resolveTarget(target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Join(wbBaseDir, target)
}

func needPreserve(str string) bool {
	return str != strings.TrimSpace(str)
}
